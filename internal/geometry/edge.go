package geometry

import (
	"math"
	"sort"
)

// Edge is a directed line segment.
type Edge struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Length returns the length of the edge.
func (e Edge) Length() float64 {
	return e.Start.Distance(e.End)
}

// BBox returns the bounding box of the edge.
func (e Edge) BBox() AARectangle {
	return NewAARectangle(e.Start, e.End)
}

// At returns the point at parameter t, with 0 at Start and 1 at End.
func (e Edge) At(t float64) Point {
	return Point{
		X: e.Start.X + (e.End.X-e.Start.X)*t,
		Y: e.Start.Y + (e.End.Y-e.Start.Y)*t,
	}
}

// Midpoint returns the point halfway along the edge.
func (e Edge) Midpoint() Point {
	return e.At(0.5)
}

// Slope returns dy/dx, or +Inf for a vertical edge.
func (e Edge) Slope() float64 {
	dx := e.End.X - e.Start.X
	if math.Abs(dx) <= Tolerance {
		return math.Inf(1)
	}
	return (e.End.Y - e.Start.Y) / dx
}

// YAtX returns the y coordinate of the edge at x. It reports false when x is
// outside the edge's x range. A vertical edge returns its start y.
func (e Edge) YAtX(x float64) (float64, bool) {
	x1, x2 := e.Start.X, e.End.X
	if x < math.Min(x1, x2) || x > math.Max(x1, x2) {
		return 0, false
	}
	if x1 == x2 {
		return e.Start.Y, true
	}
	t := (x - x1) / (x2 - x1)
	return e.Start.Y + (e.End.Y-e.Start.Y)*t, true
}

// Reverse returns the edge with its direction flipped.
func (e Edge) Reverse() Edge {
	return Edge{Start: e.End, End: e.Start}
}

// Transform applies t to both endpoints.
func (e Edge) Transform(t Transformation) Edge {
	return Edge{Start: t.Apply(e.Start), End: t.Apply(e.End)}
}

// project returns the clamped parameter of the point on e closest to p.
func (e Edge) project(p Point) float64 {
	d := e.End.Sub(e.Start)
	l2 := d.Dot(d)
	if l2 == 0 {
		return 0
	}
	t := p.Sub(e.Start).Dot(d) / l2
	return math.Max(0, math.Min(1, t))
}

// ClosestPoint returns the point on e closest to p.
func (e Edge) ClosestPoint(p Point) Point {
	return e.At(e.project(p))
}

// DistanceTo returns the shortest distance from p to the edge.
func (e Edge) DistanceTo(p Point) float64 {
	return p.Distance(e.ClosestPoint(p))
}

// DistanceToEdge returns the shortest distance between two segments.
func (e Edge) DistanceToEdge(o Edge) float64 {
	if _, _, ok := e.properCrossing(o); ok {
		return 0
	}
	return math.Min(
		math.Min(e.DistanceTo(o.Start), e.DistanceTo(o.End)),
		math.Min(o.DistanceTo(e.Start), o.DistanceTo(e.End)),
	)
}

// IntersectsRect reports whether the edge touches the closed rectangle.
func (e Edge) IntersectsRect(r AARectangle) bool {
	_, _, ok := r.clipSegment(e.Start, e.End)
	return ok
}

// properCrossing reports whether e and o cross at a single point interior to
// both segments, and returns the parameters of that point on e and on o.
func (e Edge) properCrossing(o Edge) (te, to float64, ok bool) {
	r := e.End.Sub(e.Start)
	s := o.End.Sub(o.Start)
	den := r.Cross(s)
	if den == 0 {
		return 0, 0, false
	}
	q := o.Start.Sub(e.Start)
	te = q.Cross(s) / den
	to = q.Cross(r) / den
	if te > 0 && te < 1 && to > 0 && to < 1 {
		return te, to, true
	}
	return 0, 0, false
}

// Crosses reports whether two segments share any point, endpoints included.
func (e Edge) Crosses(o Edge) bool {
	d1 := orient(o.Start, o.End, e.Start)
	d2 := orient(o.Start, o.End, e.End)
	d3 := orient(e.Start, e.End, o.Start)
	d4 := orient(e.Start, e.End, o.End)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	onSegment := func(a, b, p Point) bool {
		return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
			p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
	}
	switch {
	case d1 == 0 && onSegment(o.Start, o.End, e.Start):
		return true
	case d2 == 0 && onSegment(o.Start, o.End, e.End):
		return true
	case d3 == 0 && onSegment(e.Start, e.End, o.Start):
		return true
	case d4 == 0 && onSegment(e.Start, e.End, o.End):
		return true
	}
	return false
}

// splitParams returns the sorted parameters in [0,1] at which e must be split
// so that no sub-segment crosses or touches an edge of others in its interior.
// Parameters come from proper crossings and from endpoints of others lying
// within Tolerance of e.
func (e Edge) splitParams(others []Edge) []float64 {
	params := []float64{0, 1}
	l := e.Length()
	if l == 0 {
		return params
	}
	for _, o := range others {
		if te, _, ok := e.properCrossing(o); ok {
			params = append(params, te)
		}
		for _, p := range [2]Point{o.Start, o.End} {
			t := e.project(p)
			if t > 0 && t < 1 && e.At(t).Distance(p) <= Tolerance {
				params = append(params, t)
			}
		}
	}
	sort.Float64s(params)
	// drop parameters closer than the tolerance along the edge
	out := params[:1]
	for _, t := range params[1:] {
		if (t-out[len(out)-1])*l > Tolerance {
			out = append(out, t)
		}
	}
	if len(out) == 1 {
		return append(out, 1)
	}
	out[len(out)-1] = 1
	return out
}

// ClipTo returns the part of e inside the closed rectangle r, or false when
// e misses r.
func (e Edge) ClipTo(r AARectangle) (Edge, bool) {
	t0, t1, ok := r.clipSegment(e.Start, e.End)
	if !ok {
		return Edge{}, false
	}
	return Edge{Start: e.At(t0), End: e.At(t1)}, true
}
