package importer

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/model"
)

func squarePoints(x, y, size float64) []geometry.Point {
	return []geometry.Point{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}
}

func TestChainSegments_ClosesSquare(t *testing.T) {
	pts := squarePoints(0, 0, 10)
	// Shuffled and partly reversed, as LINE entities usually are.
	segs := []segment{
		{start: pts[2], end: pts[3]},
		{start: pts[1], end: pts[0]},
		{start: pts[3], end: pts[0]},
		{start: pts[1], end: pts[2]},
	}
	chains := chainSegments(segs, chainTolerance)
	if len(chains) != 1 {
		t.Fatalf("expected 1 outline, got %d", len(chains))
	}
	if len(chains[0]) != 4 {
		t.Errorf("expected 4 points, got %d", len(chains[0]))
	}
	if a := outlineArea(chains[0]); math.Abs(a-100) > 1e-9 {
		t.Errorf("expected area 100, got %g", a)
	}
}

func TestChainSegments_SortsByArea(t *testing.T) {
	var segs []segment
	for _, sq := range [][]geometry.Point{squarePoints(0, 0, 1), squarePoints(5, 5, 3)} {
		for i := range sq {
			segs = append(segs, segment{start: sq[i], end: sq[(i+1)%4]})
		}
	}
	chains := chainSegments(segs, chainTolerance)
	if len(chains) != 2 {
		t.Fatalf("expected 2 outlines, got %d", len(chains))
	}
	if outlineArea(chains[0]) < outlineArea(chains[1]) {
		t.Error("expected largest outline first")
	}
}

func TestChainSegments_Tolerance(t *testing.T) {
	segs := []segment{
		{start: geometry.Point{X: 0, Y: 0}, end: geometry.Point{X: 10, Y: 0}},
		{start: geometry.Point{X: 10.005, Y: 0}, end: geometry.Point{X: 10, Y: 10}},
		{start: geometry.Point{X: 10, Y: 10}, end: geometry.Point{X: 0, Y: 0.001}},
	}
	chains := chainSegments(segs, chainTolerance)
	if len(chains) != 1 || len(chains[0]) != 3 {
		t.Fatalf("expected one triangle, got %v", chains)
	}
}

func TestBulgeArcPoints_SemiCircle(t *testing.T) {
	p1 := geometry.Point{X: 0, Y: 0}
	p2 := geometry.Point{X: 2, Y: 0}

	// A bulge of 1 is a half circle; positive turns counter-clockwise,
	// which from left to right passes below the chord.
	pts := bulgeArcPoints(p1, p2, 1, 16)
	if len(pts) != 17 {
		t.Fatalf("expected 17 points, got %d", len(pts))
	}
	if pts[0] != p1 || pts[16] != p2 {
		t.Errorf("expected endpoints to be kept, got %v and %v", pts[0], pts[16])
	}
	mid := pts[8]
	if math.Abs(mid.X-1) > 1e-9 || math.Abs(mid.Y+1) > 1e-9 {
		t.Errorf("expected midpoint (1,-1), got %v", mid)
	}

	neg := bulgeArcPoints(p1, p2, -1, 16)
	if math.Abs(neg[8].Y-1) > 1e-9 {
		t.Errorf("expected negative bulge to pass above, got %v", neg[8])
	}
}

func TestBulgeArcPoints_DegenerateChord(t *testing.T) {
	p := geometry.Point{X: 1, Y: 1}
	if pts := bulgeArcPoints(p, p, 0.5, 8); len(pts) != 2 {
		t.Errorf("expected endpoints only, got %d points", len(pts))
	}
}

func TestRegularPolygon(t *testing.T) {
	pts := regularPolygon(geometry.Point{X: 5, Y: 5}, 2, 64)
	if len(pts) != 64 {
		t.Fatalf("expected 64 points, got %d", len(pts))
	}
	for _, p := range pts {
		if d := p.Distance(geometry.Point{X: 5, Y: 5}); math.Abs(d-2) > 1e-9 {
			t.Fatalf("point %v off the circle by %g", p, d-2)
		}
	}
}

func TestSampleArc_QuarterCircle(t *testing.T) {
	pts := sampleArc(geometry.Point{}, 1, 0, math.Pi/2, 4)
	if len(pts) != 5 {
		t.Fatalf("expected 5 points, got %d", len(pts))
	}
	if math.Abs(pts[4].X) > 1e-9 || math.Abs(pts[4].Y-1) > 1e-9 {
		t.Errorf("expected end at (0,1), got %v", pts[4])
	}
	if segs := pointsToSegments(pts); len(segs) != 4 {
		t.Errorf("expected 4 segments, got %d", len(segs))
	}
}

func TestOutlinesToItems_DropsHoles(t *testing.T) {
	outlines := [][]geometry.Point{
		squarePoints(2, 2, 2),        // hole of the plate
		squarePoints(0, 0, 10),       // plate
		squarePoints(20, 0, 5),       // separate part
		{{X: 0, Y: 0}, {X: 1, Y: 0}}, // not a polygon
	}
	items, warnings := outlinesToItems(outlines, model.ItemOptions{}, geometry.DefaultSPSurrogateConfig())
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d (warnings %v)", len(items), warnings)
	}
	if items[0].Label != "DXF Part 1" || items[0].Area() != 100 {
		t.Errorf("expected the plate first, got %s with area %g", items[0].Label, items[0].Area())
	}
	if items[1].Area() != 25 {
		t.Errorf("expected separate part of area 25, got %g", items[1].Area())
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, "inner contour") {
		t.Errorf("expected hole warning, got %v", warnings)
	}
}

func TestImportDXF_MissingFile(t *testing.T) {
	result := ImportDXF(filepath.Join(t.TempDir(), "nope.dxf"), model.ItemOptions{}, surrogateCfg)
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}
