package geometry

import "math"

// Transformation is a 2D affine transformation stored as the matrix
//
//	| a  c  tx |
//	| b  d  ty |
//
// Use Identity or NewTransformation to build one; the zero value maps every
// point to the origin.
type Transformation struct {
	a, b, c, d, tx, ty float64
}

// Identity returns the transformation that leaves every point unchanged.
func Identity() Transformation {
	return Transformation{a: 1, d: 1}
}

// NewTransformation returns a rotation by rotation radians around the origin
// followed by a translation of (tx, ty).
func NewTransformation(rotation, tx, ty float64) Transformation {
	sin, cos := math.Sincos(rotation)
	return Transformation{a: cos, b: sin, c: -sin, d: cos, tx: tx, ty: ty}
}

// Translation returns a pure translation.
func Translation(tx, ty float64) Transformation {
	return Transformation{a: 1, d: 1, tx: tx, ty: ty}
}

// Rotation returns a pure rotation around the origin.
func Rotation(angle float64) Transformation {
	return NewTransformation(angle, 0, 0)
}

// Apply transforms p.
func (t Transformation) Apply(p Point) Point {
	return Point{
		X: t.a*p.X + t.c*p.Y + t.tx,
		Y: t.b*p.X + t.d*p.Y + t.ty,
	}
}

// Compose returns the transformation that applies t first and next second.
func (t Transformation) Compose(next Transformation) Transformation {
	return Transformation{
		a:  next.a*t.a + next.c*t.b,
		b:  next.b*t.a + next.d*t.b,
		c:  next.a*t.c + next.c*t.d,
		d:  next.b*t.c + next.d*t.d,
		tx: next.a*t.tx + next.c*t.ty + next.tx,
		ty: next.b*t.tx + next.d*t.ty + next.ty,
	}
}

// Inverse returns the inverse transformation. A singular matrix yields NaN
// entries, which every collision query treats as a collision.
func (t Transformation) Inverse() Transformation {
	det := t.a*t.d - t.b*t.c
	if det == 0 {
		nan := math.NaN()
		return Transformation{a: nan, b: nan, c: nan, d: nan, tx: nan, ty: nan}
	}
	inv := 1 / det
	a := t.d * inv
	b := -t.b * inv
	c := -t.c * inv
	d := t.a * inv
	return Transformation{
		a: a, b: b, c: c, d: d,
		tx: -(a*t.tx + c*t.ty),
		ty: -(b*t.tx + d*t.ty),
	}
}

// Matrix returns the coefficients in the order a, b, c, d, tx, ty.
func (t Transformation) Matrix() [6]float64 {
	return [6]float64{t.a, t.b, t.c, t.d, t.tx, t.ty}
}

// IsFinite reports whether all coefficients are finite.
func (t Transformation) IsFinite() bool {
	for _, v := range t.Matrix() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsIdentity reports whether t leaves every point unchanged.
func (t Transformation) IsIdentity() bool {
	return t == Identity()
}

// Decompose splits a rigid transformation into its rotation angle and
// translation.
func (t Transformation) Decompose() DTransformation {
	return DTransformation{
		Rotation:    math.Atan2(t.b, t.a),
		Translation: Point{X: t.tx, Y: t.ty},
	}
}

// DTransformation is a rigid transformation in decomposed form: a rotation in
// radians around the origin followed by a translation. The zero value is the
// identity.
type DTransformation struct {
	Rotation    float64 `json:"rotation"`
	Translation Point   `json:"translation"`
}

// Compose returns the matrix form of d.
func (d DTransformation) Compose() Transformation {
	return NewTransformation(d.Rotation, d.Translation.X, d.Translation.Y)
}

// RotationDegrees returns the rotation in degrees normalized to [0, 360).
func (d DTransformation) RotationDegrees() float64 {
	deg := math.Mod(d.Rotation*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
