package geometry

import "math"

// Circle is a disk given by its center and radius.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// BBox returns the bounding box of the disk.
func (c Circle) BBox() AARectangle {
	return AARectangle{
		XMin: c.Center.X - c.Radius,
		YMin: c.Center.Y - c.Radius,
		XMax: c.Center.X + c.Radius,
		YMax: c.Center.Y + c.Radius,
	}
}

// Transform moves the center by t. The radius is kept, so t should be rigid.
func (c Circle) Transform(t Transformation) Circle {
	return Circle{Center: t.Apply(c.Center), Radius: c.Radius}
}

// OverlapsCircle reports whether two disks share interior area.
func (c Circle) OverlapsCircle(o Circle) bool {
	return c.Center.Distance(o.Center) < c.Radius+o.Radius-Tolerance
}

// OverlapsRect reports whether the disk shares interior area with r.
func (c Circle) OverlapsRect(r AARectangle) bool {
	if !c.BBox().Overlaps(r) {
		return false
	}
	return r.DistanceTo(c.Center) < c.Radius-Tolerance || r.Inflate(-Tolerance).ContainsPoint(c.Center)
}

// IsFinite reports whether center and radius are finite.
func (c Circle) IsFinite() bool {
	return c.Center.IsFinite() && !math.IsNaN(c.Radius) && !math.IsInf(c.Radius, 0)
}
