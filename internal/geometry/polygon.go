package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDegeneratePolygon is returned for polygons with fewer than three
	// distinct points, non-finite coordinates or no area.
	ErrDegeneratePolygon = errors.New("degenerate polygon")
	// ErrSelfIntersecting is returned for polygons whose boundary crosses itself.
	ErrSelfIntersecting = errors.New("self-intersecting polygon")
)

// PointPosition classifies a point against a closed polygon.
type PointPosition int

const (
	Outside PointPosition = iota
	Boundary
	Inside
)

func (p PointPosition) String() string {
	switch p {
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	default:
		return "outside"
	}
}

// SimplePolygon is a simple polygon with counter-clockwise winding. Derived
// properties are computed once on construction and the polygon is never
// mutated afterwards, except through TransformInto on a buffer the caller owns.
type SimplePolygon struct {
	points   []Point
	bbox     AARectangle
	area     float64
	diameter float64
	poi      Circle
}

// NewSimplePolygon validates points and builds a polygon from them. A closing
// point equal to the first and consecutive duplicates are dropped, and
// clockwise input is reversed.
func NewSimplePolygon(points []Point) (*SimplePolygon, error) {
	pts := make([]Point, 0, len(points))
	for i, p := range points {
		if !p.IsFinite() {
			return nil, fmt.Errorf("point %d is not finite: %w", i, ErrDegeneratePolygon)
		}
		if len(pts) > 0 && pts[len(pts)-1].Distance(p) <= Tolerance {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && pts[0].Distance(pts[len(pts)-1]) <= Tolerance {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("%d distinct points: %w", len(pts), ErrDegeneratePolygon)
	}

	area := signedArea(pts)
	if math.Abs(area) <= Tolerance {
		return nil, fmt.Errorf("area %g: %w", area, ErrDegeneratePolygon)
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
		area = -area
	}
	if selfIntersects(pts) {
		return nil, ErrSelfIntersecting
	}

	sp := &SimplePolygon{points: pts, area: area}
	sp.bbox = boundsOf(pts)
	sp.diameter = diameterOf(pts)
	sp.poi = poleOfInaccessibility(sp, nil, sp.diameter*1e-4)
	return sp, nil
}

// MustSimplePolygon is like NewSimplePolygon but panics on invalid input.
// It is meant for fixtures and literals known to be valid.
func MustSimplePolygon(points []Point) *SimplePolygon {
	sp, err := NewSimplePolygon(points)
	if err != nil {
		panic(err)
	}
	return sp
}

// Rect returns the rectangle r as a polygon.
func Rect(r AARectangle) (*SimplePolygon, error) {
	c := r.Corners()
	return NewSimplePolygon(c[:])
}

// Points returns the vertices in counter-clockwise order. The slice is shared
// with the polygon and must not be modified.
func (sp *SimplePolygon) Points() []Point { return sp.points }

// NumPoints returns the number of vertices.
func (sp *SimplePolygon) NumPoints() int { return len(sp.points) }

// Edge returns the i-th edge, from vertex i to vertex i+1.
func (sp *SimplePolygon) Edge(i int) Edge {
	j := i + 1
	if j == len(sp.points) {
		j = 0
	}
	return Edge{Start: sp.points[i], End: sp.points[j]}
}

// Edges returns all edges in winding order.
func (sp *SimplePolygon) Edges() []Edge {
	out := make([]Edge, len(sp.points))
	for i := range sp.points {
		out[i] = sp.Edge(i)
	}
	return out
}

func (sp *SimplePolygon) BBox() AARectangle { return sp.bbox }
func (sp *SimplePolygon) Area() float64     { return sp.area }
func (sp *SimplePolygon) Diameter() float64 { return sp.diameter }

// POI returns the pole of inaccessibility: the largest circle inscribed in
// the polygon, up to the search precision.
func (sp *SimplePolygon) POI() Circle { return sp.poi }

// Centroid returns the area centroid.
func (sp *SimplePolygon) Centroid() Point {
	var cx, cy, a float64
	n := len(sp.points)
	for i := 0; i < n; i++ {
		p := sp.points[i]
		q := sp.points[(i+1)%n]
		cross := p.Cross(q)
		a += cross
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	return Point{X: cx / (3 * a), Y: cy / (3 * a)}
}

// IsFinite reports whether every vertex is finite.
func (sp *SimplePolygon) IsFinite() bool {
	for _, p := range sp.points {
		if !p.IsFinite() {
			return false
		}
	}
	return true
}

// DistanceToBoundary returns the distance from p to the nearest edge.
func (sp *SimplePolygon) DistanceToBoundary(p Point) float64 {
	best := math.Inf(1)
	for i := range sp.points {
		if d := sp.Edge(i).DistanceTo(p); d < best {
			best = d
		}
	}
	return best
}

// Classify reports whether p is inside, on the boundary of, or outside the
// polygon. Points within Tolerance of an edge are on the boundary.
func (sp *SimplePolygon) Classify(p Point) PointPosition {
	if !sp.bbox.Inflate(Tolerance).ContainsPoint(p) {
		return Outside
	}
	if sp.DistanceToBoundary(p) <= Tolerance {
		return Boundary
	}
	if sp.windingContains(p) {
		return Inside
	}
	return Outside
}

// ContainsPoint reports whether p lies strictly inside the polygon.
func (sp *SimplePolygon) ContainsPoint(p Point) bool {
	return sp.Classify(p) == Inside
}

// windingContains is the crossing-number test, ignoring the boundary.
func (sp *SimplePolygon) windingContains(p Point) bool {
	inside := false
	n := len(sp.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := sp.points[i], sp.points[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Transform returns a new polygon with t applied. t is expected to be rigid:
// area and diameter are carried over and the pole is moved, not recomputed.
func (sp *SimplePolygon) Transform(t Transformation) *SimplePolygon {
	dst := &SimplePolygon{points: make([]Point, len(sp.points))}
	sp.TransformInto(dst, t)
	return dst
}

// TransformInto writes sp transformed by t into dst, reusing dst's point
// buffer when it is large enough.
func (sp *SimplePolygon) TransformInto(dst *SimplePolygon, t Transformation) {
	if cap(dst.points) < len(sp.points) {
		dst.points = make([]Point, len(sp.points))
	}
	dst.points = dst.points[:len(sp.points)]
	for i, p := range sp.points {
		dst.points[i] = t.Apply(p)
	}
	dst.bbox = boundsOf(dst.points)
	dst.area = sp.area
	dst.diameter = sp.diameter
	dst.poi = Circle{Center: t.Apply(sp.poi.Center), Radius: sp.poi.Radius}
}

type polygonJSON struct {
	Points []Point `json:"points"`
}

// MarshalJSON encodes the polygon as its vertex list.
func (sp *SimplePolygon) MarshalJSON() ([]byte, error) {
	return json.Marshal(polygonJSON{Points: sp.points})
}

// UnmarshalJSON decodes and validates a vertex list.
func (sp *SimplePolygon) UnmarshalJSON(data []byte) error {
	var raw polygonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewSimplePolygon(raw.Points)
	if err != nil {
		return err
	}
	*sp = *built
	return nil
}

func signedArea(pts []Point) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		sum += pts[i].Cross(pts[(i+1)%n])
	}
	return sum / 2
}

func boundsOf(pts []Point) AARectangle {
	r := AARectangle{XMin: math.Inf(1), YMin: math.Inf(1), XMax: math.Inf(-1), YMax: math.Inf(-1)}
	for _, p := range pts {
		r.XMin = math.Min(r.XMin, p.X)
		r.YMin = math.Min(r.YMin, p.Y)
		r.XMax = math.Max(r.XMax, p.X)
		r.YMax = math.Max(r.YMax, p.Y)
	}
	// math.Min drops NaN, so carry it explicitly
	for _, p := range pts {
		if !p.IsFinite() {
			nan := math.NaN()
			return AARectangle{XMin: nan, YMin: nan, XMax: nan, YMax: nan}
		}
	}
	return r
}

func diameterOf(pts []Point) float64 {
	var best float64
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].SqDistance(pts[j]); d > best {
				best = d
			}
		}
	}
	return math.Sqrt(best)
}

// selfIntersects checks every pair of edges. Adjacent edges may only share
// their common vertex; folding back onto each other counts as crossing.
func selfIntersects(pts []Point) bool {
	n := len(pts)
	edge := func(i int) Edge { return Edge{Start: pts[i], End: pts[(i+1)%n]} }
	for i := 0; i < n; i++ {
		ei := edge(i)
		for j := i + 1; j < n; j++ {
			ej := edge(j)
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if !adjacent {
				if ei.Crosses(ej) {
					return true
				}
				continue
			}
			// shared vertex: reject only a fold back along the same line
			var a, b Edge
			if j == i+1 {
				a, b = ei, ej
			} else {
				a, b = ej, ei
			}
			da := a.End.Sub(a.Start)
			db := b.End.Sub(b.Start)
			if math.Abs(da.Cross(db)) <= Tolerance*(da.Norm()+db.Norm()) && da.Dot(db) < 0 {
				return true
			}
		}
	}
	return false
}
