package geometry

import (
	"math"
	"slices"
	"sort"
)

// VerticalSegment is the part of a vertical scan line at X that lies in a
// polygon. Side is 0 for a slice through the interior. Segments lying on a
// vertical edge of the polygon have Side +1 when the interior is to their
// right (a left boundary) and -1 when it is to their left.
type VerticalSegment struct {
	X    float64 `json:"x"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
	Side int     `json:"side"`
}

// Length returns YMax - YMin.
func (s VerticalSegment) Length() float64 { return s.YMax - s.YMin }

// Discretize cuts the polygon with vertical lines every resolution units,
// starting at the left of its bounding box, and returns the segments of each
// line in ascending y order. The last line is the one at or before the right
// of the bounding box. Lines passing through a single vertex yield a zero
// length segment. A non-positive resolution returns nil.
func (sp *SimplePolygon) Discretize(resolution float64) [][]VerticalSegment {
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil
	}
	bb := sp.BBox()
	n := int(math.Floor(bb.Width()/resolution+1e-9)) + 1

	xs := make([]float64, len(sp.points))
	for i, p := range sp.points {
		xs[i] = p.X
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)

	edges := sp.Edges()
	out := make([][]VerticalSegment, n)
	for k := range n {
		x := snapTo(bb.XMin+float64(k)*resolution, xs)
		out[k] = sp.scanLine(x, edges)
	}
	return out
}

// snapTo returns the value of xs within Tolerance of x, or x itself. xs is
// sorted.
func snapTo(x float64, xs []float64) float64 {
	i := sort.SearchFloat64s(xs, x)
	for _, j := range []int{i - 1, i} {
		if j >= 0 && j < len(xs) && math.Abs(xs[j]-x) <= Tolerance {
			return xs[j]
		}
	}
	return x
}

// scanLine returns the segments of the vertical line at x inside the closed
// polygon.
func (sp *SimplePolygon) scanLine(x float64, edges []Edge) []VerticalSegment {
	// Half-open crossing rule: an edge counts when x is in [min, max) of its
	// x range, so a vertex the line passes through is counted once.
	var ys []float64
	var segs []VerticalSegment
	for _, e := range edges {
		lo, hi := math.Min(e.Start.X, e.End.X), math.Max(e.Start.X, e.End.X)
		if lo == hi {
			if lo == x {
				side := 1
				if e.End.Y > e.Start.Y {
					side = -1
				}
				segs = append(segs, VerticalSegment{
					X: x, YMin: math.Min(e.Start.Y, e.End.Y), YMax: math.Max(e.Start.Y, e.End.Y), Side: side,
				})
			}
			continue
		}
		if x < lo || x >= hi {
			continue
		}
		if y, ok := e.YAtX(x); ok {
			ys = append(ys, y)
		}
	}
	sort.Float64s(ys)
	edgeSegs := len(segs)
	for i := 0; i+1 < len(ys); i += 2 {
		s := VerticalSegment{X: x, YMin: ys[i], YMax: ys[i+1]}
		// a slice lying along a vertical edge is reported as the edge
		onEdge := slices.ContainsFunc(segs[:edgeSegs], func(v VerticalSegment) bool {
			return s.YMin >= v.YMin-Tolerance && s.YMax <= v.YMax+Tolerance
		})
		if !onEdge {
			segs = append(segs, s)
		}
	}
	segs = mergeSegments(segs)

	for _, p := range sp.points {
		if p.X != x {
			continue
		}
		covered := slices.ContainsFunc(segs, func(s VerticalSegment) bool {
			return p.Y >= s.YMin-Tolerance && p.Y <= s.YMax+Tolerance
		})
		if !covered {
			segs = append(segs, VerticalSegment{X: x, YMin: p.Y, YMax: p.Y})
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].YMin < segs[j].YMin })
	return segs
}

// mergeSegments joins touching segments of the same side.
func mergeSegments(segs []VerticalSegment) []VerticalSegment {
	if len(segs) < 2 {
		return segs
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].YMin < segs[j].YMin })
	out := segs[:1]
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if s.Side == last.Side && s.YMin <= last.YMax+Tolerance {
			last.YMax = math.Max(last.YMax, s.YMax)
			continue
		}
		out = append(out, s)
	}
	return out
}

// DiscretizedArea estimates the area covered by a discretization with the
// trapezoid rule over the summed segment length of each line. Segments on
// vertical edges count, so a polygon ending in a vertical edge keeps its
// full height at the last line.
func DiscretizedArea(lines [][]VerticalSegment, resolution float64) float64 {
	if len(lines) < 2 {
		return 0
	}
	lengths := make([]float64, len(lines))
	for i, line := range lines {
		for _, s := range line {
			lengths[i] += s.Length()
		}
	}
	var a float64
	for i := 1; i < len(lengths); i++ {
		a += (lengths[i-1] + lengths[i]) / 2 * resolution
	}
	return a
}
