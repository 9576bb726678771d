package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notchedBar is a 9 wide bar with a sloped left end and a notch cut into its
// top between x=2 and x=6. Its area is 14.5.
func notchedBar() *SimplePolygon {
	return MustSimplePolygon([]Point{
		{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 8, Y: 2}, {X: 6, Y: 2},
		{X: 4, Y: 1}, {X: 3, Y: 1}, {X: 2, Y: 2}, {X: -1, Y: 2},
	})
}

// sliceAt returns the line of lines at x.
func sliceAt(t *testing.T, lines [][]VerticalSegment, x float64) []VerticalSegment {
	t.Helper()
	for _, line := range lines {
		if len(line) > 0 && math.Abs(line[0].X-x) <= 1e-9 {
			return line
		}
	}
	t.Fatalf("no scan line at x=%g", x)
	return nil
}

func assertSegment(t *testing.T, line []VerticalSegment, yMin, yMax float64, side int) {
	t.Helper()
	require.Len(t, line, 1)
	assert.InDelta(t, yMin, line[0].YMin, 1e-9)
	assert.InDelta(t, yMax, line[0].YMax, 1e-9)
	assert.Equal(t, side, line[0].Side)
}

// ─── Discretize Tests ──────────────────────────────────────

func TestSimplePolygon_Discretize_1(t *testing.T) {
	lines := notchedBar().Discretize(1)
	require.Len(t, lines, 10)

	want := []struct {
		x, yMin, yMax float64
		side          int
	}{
		{-1, 2, 2, 0},
		{0, 0, 2, 0},
		{1, 0, 2, 0},
		{2, 0, 2, 0},
		{3, 0, 1, 0},
		{4, 0, 1, 0},
		{5, 0, 1.5, 0},
		{6, 0, 2, 0},
		{7, 0, 2, 0},
		{8, 0, 2, -1},
	}
	for i, w := range want {
		require.NotEmpty(t, lines[i])
		assert.InDelta(t, w.x, lines[i][0].X, 1e-12)
		assertSegment(t, lines[i], w.yMin, w.yMax, w.side)
	}
	assert.InDelta(t, 14.5, DiscretizedArea(lines, 1), 1e-9)
}

func TestSimplePolygon_Discretize_0_5(t *testing.T) {
	lines := notchedBar().Discretize(0.5)
	require.Len(t, lines, 19)

	assertSegment(t, sliceAt(t, lines, -0.5), 1, 2, 0)
	assertSegment(t, sliceAt(t, lines, 2.5), 0, 1.5, 0)
	assertSegment(t, sliceAt(t, lines, 3.5), 0, 1, 0)
	assertSegment(t, sliceAt(t, lines, 4.5), 0, 1.25, 0)
	assertSegment(t, sliceAt(t, lines, 8), 0, 2, -1)
	assert.InDelta(t, 14.5, DiscretizedArea(lines, 0.5), 1e-9)
}

func TestSimplePolygon_Discretize_0_1(t *testing.T) {
	lines := notchedBar().Discretize(0.1)
	require.Len(t, lines, 91)

	for _, line := range lines {
		require.Len(t, line, 1, "the bar is x-monotone, every line cuts it once")
		assert.LessOrEqual(t, line[0].YMin, line[0].YMax)
	}
	// Lines landing on vertex x coordinates are snapped onto them.
	assertSegment(t, sliceAt(t, lines, 3), 0, 1, 0)
	assertSegment(t, lines[90], 0, 2, -1)
	assert.Equal(t, 8.0, lines[90][0].X)
	assert.InDelta(t, 14.5, DiscretizedArea(lines, 0.1), 1e-6)
}

func TestSimplePolygon_Discretize_VerticalEdgeSides(t *testing.T) {
	// The L shape's inner vertical edge runs up from (4,4) to (4,10).
	line := sliceAt(t, lShape().Discretize(2), 4)
	require.Len(t, line, 2)
	assert.Equal(t, VerticalSegment{X: 4, YMin: 0, YMax: 4, Side: 0}, line[0])
	assert.Equal(t, VerticalSegment{X: 4, YMin: 4, YMax: 10, Side: -1}, line[1])

	left := lShape().Discretize(2)[0]
	require.Len(t, left, 1)
	assert.Equal(t, 1, left[0].Side)
}

func TestSimplePolygon_Discretize_TwoLobes(t *testing.T) {
	// A U shape: the line through both arms gives two separate segments.
	u := MustSimplePolygon([]Point{
		{X: 0, Y: 0}, {X: 6, Y: 0}, {X: 6, Y: 6}, {X: 4, Y: 6},
		{X: 4, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 6}, {X: 0, Y: 6},
	})
	line := sliceAt(t, u.Discretize(1), 1)
	assertSegment(t, line, 0, 6, 0)

	line = sliceAt(t, u.Discretize(1), 3)
	assertSegment(t, line, 0, 2, 0)

	line = sliceAt(t, u.Discretize(0.5), 5)
	assertSegment(t, line, 0, 6, 0)
}

func TestSimplePolygon_Discretize_InvalidResolution(t *testing.T) {
	assert.Nil(t, notchedBar().Discretize(0))
	assert.Nil(t, notchedBar().Discretize(-1))
	assert.Nil(t, notchedBar().Discretize(math.NaN()))
	assert.Zero(t, DiscretizedArea(nil, 1))
}

// ─── Edge Helper Tests ─────────────────────────────────────

func TestEdge_SlopeAndYAtX(t *testing.T) {
	e := Edge{Start: Point{X: 6, Y: 2}, End: Point{X: 4, Y: 1}}
	assert.InDelta(t, 0.5, e.Slope(), 1e-12)
	y, ok := e.YAtX(5)
	require.True(t, ok)
	assert.InDelta(t, 1.5, y, 1e-12)
	_, ok = e.YAtX(7)
	assert.False(t, ok)

	v := Edge{Start: Point{X: 8, Y: 0}, End: Point{X: 8, Y: 2}}
	assert.True(t, math.IsInf(v.Slope(), 1))
	y, ok = v.YAtX(8)
	require.True(t, ok)
	assert.Equal(t, 0.0, y)
}
