package geometry

import "math"

// AARectangle is an axis-aligned rectangle.
type AARectangle struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// NewAARectangle returns the rectangle spanned by two opposite corners.
func NewAARectangle(a, b Point) AARectangle {
	return AARectangle{
		XMin: math.Min(a.X, b.X),
		YMin: math.Min(a.Y, b.Y),
		XMax: math.Max(a.X, b.X),
		YMax: math.Max(a.Y, b.Y),
	}
}

func (r AARectangle) Width() float64  { return r.XMax - r.XMin }
func (r AARectangle) Height() float64 { return r.YMax - r.YMin }
func (r AARectangle) Area() float64   { return r.Width() * r.Height() }

// Center returns the midpoint of the rectangle.
func (r AARectangle) Center() Point {
	return Point{X: (r.XMin + r.XMax) / 2, Y: (r.YMin + r.YMax) / 2}
}

// Diameter returns the length of the diagonal.
func (r AARectangle) Diameter() float64 {
	return math.Hypot(r.Width(), r.Height())
}

// Corners returns the four corners in counter-clockwise order, starting at (XMin, YMin).
func (r AARectangle) Corners() [4]Point {
	return [4]Point{
		{X: r.XMin, Y: r.YMin},
		{X: r.XMax, Y: r.YMin},
		{X: r.XMax, Y: r.YMax},
		{X: r.XMin, Y: r.YMax},
	}
}

// Quadrants splits the rectangle into four equally sized children,
// ordered top-left, top-right, bottom-left, bottom-right.
func (r AARectangle) Quadrants() [4]AARectangle {
	c := r.Center()
	return [4]AARectangle{
		{XMin: r.XMin, YMin: c.Y, XMax: c.X, YMax: r.YMax},
		{XMin: c.X, YMin: c.Y, XMax: r.XMax, YMax: r.YMax},
		{XMin: r.XMin, YMin: r.YMin, XMax: c.X, YMax: c.Y},
		{XMin: c.X, YMin: r.YMin, XMax: r.XMax, YMax: c.Y},
	}
}

// Inflate grows the rectangle by d on every side. A negative d shrinks it.
func (r AARectangle) Inflate(d float64) AARectangle {
	return AARectangle{XMin: r.XMin - d, YMin: r.YMin - d, XMax: r.XMax + d, YMax: r.YMax + d}
}

// Union returns the smallest rectangle containing both r and o.
func (r AARectangle) Union(o AARectangle) AARectangle {
	return AARectangle{
		XMin: math.Min(r.XMin, o.XMin),
		YMin: math.Min(r.YMin, o.YMin),
		XMax: math.Max(r.XMax, o.XMax),
		YMax: math.Max(r.YMax, o.YMax),
	}
}

// ContainsPoint reports whether p lies in the closed rectangle.
func (r AARectangle) ContainsPoint(p Point) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// ContainsRect reports whether o lies inside r, allowing o to exceed r by Tolerance.
func (r AARectangle) ContainsRect(o AARectangle) bool {
	return o.XMin >= r.XMin-Tolerance && o.YMin >= r.YMin-Tolerance &&
		o.XMax <= r.XMax+Tolerance && o.YMax <= r.YMax+Tolerance
}

// Intersects reports whether the closed rectangles share at least one point.
func (r AARectangle) Intersects(o AARectangle) bool {
	return r.XMin <= o.XMax && o.XMin <= r.XMax && r.YMin <= o.YMax && o.YMin <= r.YMax
}

// Overlaps reports whether the rectangles share interior area. Rectangles
// touching within Tolerance do not overlap.
func (r AARectangle) Overlaps(o AARectangle) bool {
	return r.XMin < o.XMax-Tolerance && o.XMin < r.XMax-Tolerance &&
		r.YMin < o.YMax-Tolerance && o.YMin < r.YMax-Tolerance
}

// DistanceTo returns the distance from p to the closed rectangle, 0 when inside.
func (r AARectangle) DistanceTo(p Point) float64 {
	dx := math.Max(0, math.Max(r.XMin-p.X, p.X-r.XMax))
	dy := math.Max(0, math.Max(r.YMin-p.Y, p.Y-r.YMax))
	return math.Hypot(dx, dy)
}

// IsFinite reports whether all bounds are finite numbers.
func (r AARectangle) IsFinite() bool {
	return Point{X: r.XMin, Y: r.YMin}.IsFinite() && Point{X: r.XMax, Y: r.YMax}.IsFinite()
}

// clipSegment clips the segment a->b to the closed rectangle using the
// Liang-Barsky parametrisation. It returns the parameter interval of the
// segment inside r and false when the segment misses r.
func (r AARectangle) clipSegment(a, b Point) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	d := b.Sub(a)
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}
	if clip(-d.X, a.X-r.XMin) && clip(d.X, r.XMax-a.X) &&
		clip(-d.Y, a.Y-r.YMin) && clip(d.Y, r.YMax-a.Y) {
		return t0, t1, true
	}
	return 0, 0, false
}
