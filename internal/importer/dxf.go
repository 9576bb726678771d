package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

const (
	arcSegments    = 32
	circleSegments = 64
	chainTolerance = 0.01
)

// segment is a loose LINE or ARC piece waiting to be chained.
type segment struct {
	start, end geometry.Point
}

// ImportDXF reads every closed shape of a DXF drawing as an item with a
// demand of one. LWPOLYLINE and CIRCLE entities are closed on their own;
// LINE and ARC entities are chained end to end. Shapes nested inside a
// larger shape are holes of that part and are dropped, since items have no
// holes.
func ImportDXF(path string, opts model.ItemOptions, cfg geometry.SPSurrogateConfig) ImportResult {
	var result ImportResult

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}
	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]geometry.Point
	var segments []segment
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if o := lwPolylineToOutline(e); len(o) >= 3 {
				outlines = append(outlines, o)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}
		case *entity.Circle:
			outlines = append(outlines, circleToOutline(e, circleSegments))
		case *entity.Arc:
			if pts := arcToPoints(e, arcSegments); len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}
		case *entity.Line:
			segments = append(segments, segment{
				start: geometry.Point{X: e.Start[0], Y: e.Start[1]},
				end:   geometry.Point{X: e.End[0], Y: e.End[1]},
			})
		}
	}
	outlines = append(outlines, chainSegments(segments, chainTolerance)...)

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	items, warnings := outlinesToItems(outlines, opts, cfg)
	result.Items = items
	result.Warnings = append(result.Warnings, warnings...)
	if len(items) == 0 {
		result.Errors = append(result.Errors, "No valid shapes found in DXF file")
	}
	return result
}

// outlinesToItems validates outlines and turns the outermost ones into
// items, largest first.
func outlinesToItems(outlines [][]geometry.Point, opts model.ItemOptions, cfg geometry.SPSurrogateConfig) ([]*model.Item, []string) {
	var warnings []string
	var polys []*geometry.SimplePolygon
	for i, o := range outlines {
		sp, err := geometry.NewSimplePolygon(o)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Skipped shape %d: %v", i+1, err))
			continue
		}
		bb := sp.BBox()
		if bb.Width() < chainTolerance || bb.Height() < chainTolerance {
			warnings = append(warnings, fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f)", bb.Width(), bb.Height()))
			continue
		}
		polys = append(polys, sp)
	}
	sort.SliceStable(polys, func(i, j int) bool { return polys[i].Area() > polys[j].Area() })

	var items []*model.Item
	var outer []*geometry.SimplePolygon
	for _, sp := range polys {
		if nestedIn(sp, outer) {
			warnings = append(warnings, fmt.Sprintf("Dropped inner contour (area %.2f), items cannot have holes", sp.Area()))
			continue
		}
		outer = append(outer, sp)
		item, err := model.NewItem(fmt.Sprintf("DXF Part %d", len(items)+1), sp.Points(), 1, opts, cfg)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		items = append(items, item)
	}
	return items, warnings
}

func nestedIn(sp *geometry.SimplePolygon, outer []*geometry.SimplePolygon) bool {
	for _, o := range outer {
		if !geometry.EscapesFrom(sp, o) {
			return true
		}
	}
	return false
}

// lwPolylineToOutline flattens an LWPOLYLINE, replacing bulged edges with
// arc points.
func lwPolylineToOutline(lw *entity.LwPolyline) []geometry.Point {
	var out []geometry.Point
	n := len(lw.Vertices)
	for i, v := range lw.Vertices {
		cur := geometry.Point{X: v[0], Y: v[1]}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) <= 1e-9 {
			out = append(out, cur)
			continue
		}
		nv := lw.Vertices[(i+1)%n]
		arc := bulgeArcPoints(cur, geometry.Point{X: nv[0], Y: nv[1]}, bulge, arcSegments)
		out = append(out, arc[:len(arc)-1]...)
	}
	return out
}

// bulgeArcPoints samples the arc between p1 and p2 for a DXF bulge, the
// tangent of a quarter of the included angle. Positive bulges turn
// counter-clockwise. The result includes both endpoints.
func bulgeArcPoints(p1, p2 geometry.Point, bulge float64, n int) []geometry.Point {
	chord := p1.Distance(p2)
	if chord < 1e-9 {
		return []geometry.Point{p1, p2}
	}
	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	// Unit normal of the chord, pointing to the arc's center.
	nx, ny := -(p2.Y-p1.Y)/chord, (p2.X-p1.X)/chord
	if bulge < 0 {
		nx, ny = -nx, -ny
	}
	d := radius - sagitta
	c := geometry.Point{X: (p1.X+p2.X)/2 + nx*d, Y: (p1.Y+p2.Y)/2 + ny*d}

	start := math.Atan2(p1.Y-c.Y, p1.X-c.X)
	sweep := 4 * math.Atan(bulge)

	pts := make([]geometry.Point, n+1)
	for i := 0; i <= n; i++ {
		a := start + sweep*float64(i)/float64(n)
		pts[i] = geometry.Point{X: c.X + radius*math.Cos(a), Y: c.Y + radius*math.Sin(a)}
	}
	pts[0], pts[n] = p1, p2
	return pts
}

// circleToOutline approximates a circle with a regular n-gon.
func circleToOutline(c *entity.Circle, n int) []geometry.Point {
	return regularPolygon(geometry.Point{X: c.Center[0], Y: c.Center[1]}, c.Radius, n)
}

func regularPolygon(c geometry.Point, r float64, n int) []geometry.Point {
	out := make([]geometry.Point, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = geometry.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return out
}

// arcToPoints samples an ARC counter-clockwise from its start to end angle.
func arcToPoints(a *entity.Arc, n int) []geometry.Point {
	c := geometry.Point{X: a.Circle.Center[0], Y: a.Circle.Center[1]}
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}
	return sampleArc(c, a.Circle.Radius, start, end, n)
}

func sampleArc(c geometry.Point, r, start, end float64, n int) []geometry.Point {
	pts := make([]geometry.Point, n+1)
	for i := range pts {
		a := start + (end-start)*float64(i)/float64(n)
		pts[i] = geometry.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return pts
}

func pointsToSegments(pts []geometry.Point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		segs = append(segs, segment{start: pts[i-1], end: pts[i]})
	}
	return segs
}

// chainSegments joins segments whose endpoints lie within tol of each other
// into outlines. Segments are reversed as needed. Chains that do not close
// are kept when they have at least three points; NewSimplePolygon closes
// them implicitly.
func chainSegments(segs []segment, tol float64) [][]geometry.Point {
	used := make([]bool, len(segs))
	var out [][]geometry.Point

	for first := range segs {
		if used[first] {
			continue
		}
		used[first] = true
		chain := []geometry.Point{segs[first].start, segs[first].end}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, s := range segs {
				if used[i] {
					continue
				}
				switch {
				case tail.Distance(s.start) <= tol:
					chain = append(chain, s.end)
				case tail.Distance(s.end) <= tol:
					chain = append(chain, s.start)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 3 && chain[0].Distance(chain[len(chain)-1]) <= tol {
			chain = chain[:len(chain)-1]
		}
		if len(chain) >= 3 {
			out = append(out, chain)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return outlineArea(out[i]) > outlineArea(out[j]) })
	return out
}

// outlineArea is the unsigned shoelace area.
func outlineArea(o []geometry.Point) float64 {
	var a float64
	for i := range o {
		j := (i + 1) % len(o)
		a += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(a) / 2
}
