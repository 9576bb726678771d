package geometry

import (
	"container/heap"
	"math"
)

// maxPOICells bounds the number of cells the pole search inspects.
const maxPOICells = 1 << 14

type poiCell struct {
	center Point
	half   float64
	dist   float64 // clearance at center, negative outside
	max    float64 // upper bound of clearance anywhere in the cell
}

type poiQueue []*poiCell

func (q poiQueue) Len() int            { return len(q) }
func (q poiQueue) Less(i, j int) bool  { return q[i].max > q[j].max }
func (q poiQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *poiQueue) Push(x interface{}) { *q = append(*q, x.(*poiCell)) }
func (q *poiQueue) Pop() interface{} {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// clearance returns the distance from p to the polygon boundary or to the
// nearest excluded disk, whichever is closer. It is negative when p lies
// outside the polygon or inside an excluded disk.
func clearance(sp *SimplePolygon, exclude []Circle, p Point) float64 {
	d := sp.DistanceToBoundary(p)
	if !sp.windingContains(p) {
		d = -d
	}
	for _, c := range exclude {
		if dc := p.Distance(c.Center) - c.Radius; dc < d {
			d = dc
		}
	}
	return d
}

func newPOICell(sp *SimplePolygon, exclude []Circle, c Point, half float64) *poiCell {
	d := clearance(sp, exclude, c)
	return &poiCell{center: c, half: half, dist: d, max: d + half*math.Sqrt2}
}

// PoleOfInaccessibility returns the largest circle inside poly that does not
// overlap any circle in exclude, found to within precision.
func PoleOfInaccessibility(poly *SimplePolygon, exclude []Circle, precision float64) Circle {
	return poleOfInaccessibility(poly, exclude, precision)
}

func poleOfInaccessibility(sp *SimplePolygon, exclude []Circle, precision float64) Circle {
	bb := sp.bbox
	size := math.Min(bb.Width(), bb.Height())
	if size <= 0 {
		return Circle{Center: bb.Center()}
	}
	if precision <= 0 {
		precision = size * 1e-4
	}
	half := size / 2

	q := &poiQueue{}
	for x := bb.XMin; x < bb.XMax; x += size {
		for y := bb.YMin; y < bb.YMax; y += size {
			heap.Push(q, newPOICell(sp, exclude, Point{X: x + half, Y: y + half}, half))
		}
	}

	best := newPOICell(sp, exclude, sp.Centroid(), 0)
	if c := newPOICell(sp, exclude, bb.Center(), 0); c.dist > best.dist {
		best = c
	}

	for n := 0; q.Len() > 0 && n < maxPOICells; n++ {
		cell := heap.Pop(q).(*poiCell)
		if cell.dist > best.dist {
			best = cell
		}
		if cell.max-best.dist <= precision {
			continue
		}
		h := cell.half / 2
		for _, off := range [4]Point{{X: -h, Y: -h}, {X: h, Y: -h}, {X: -h, Y: h}, {X: h, Y: h}} {
			heap.Push(q, newPOICell(sp, exclude, cell.center.Add(off), h))
		}
	}

	return Circle{Center: best.center, Radius: math.Max(best.dist, 0)}
}
