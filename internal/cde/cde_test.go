package cde

import (
	"math"
	"math/rand"
	"testing"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sq(x, y, size float64) *geometry.SimplePolygon {
	return geometry.MustSimplePolygon([]geometry.Point{
		{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size},
	})
}

func lBin() *geometry.SimplePolygon {
	return geometry.MustSimplePolygon([]geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 10}, {X: 0, Y: 10},
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.QuadTree.MaxDepth = 3
	cfg.HazProx.Enabled = false
	return cfg
}

// newTestCDE builds a CDE for a bin given by outer plus optional extra hazards.
func newTestCDE(t *testing.T, outer *geometry.SimplePolygon, extra ...Hazard) *CDE {
	t.Helper()
	static := append([]Hazard{NewHazard(BinExterior(), outer)}, extra...)
	c, err := New(outer.BBox(), static, testConfig())
	require.NoError(t, err)
	return c
}

func TestCDE_SharedEdgeIsNotACollision(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	require.NoError(t, c.InsertPlacedItem(1, sq(0, 0, 2)))

	assert.False(t, c.ShapeCollides(sq(2, 0, 2), nil), "touching along x=2")
	assert.True(t, c.ShapeCollides(sq(1, 0, 2), nil), "1x2 overlap")
	assert.True(t, c.ShapeCollides(sq(1, 0, 2), BinFilter{}))
	assert.Equal(t, []HazardEntity{PlacedItem(1)}, c.HazardsWithin(sq(1, 0, 2), nil))
}

func TestCDE_BinExterior(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	assert.False(t, c.ShapeCollides(sq(8, 8, 2), nil), "touching the corner from inside")
	assert.True(t, c.ShapeCollides(sq(9, 9, 2), nil))
	assert.False(t, c.ShapeCollides(sq(9, 9, 2), BinFilter{}))
	assert.True(t, c.ShapeCollides(sq(20, 20, 2), nil))
	assert.Equal(t, []HazardEntity{BinExterior()}, c.HazardsWithin(sq(9, 9, 2), nil))
}

func TestCDE_NonRectangularBinUsesEntireNodes(t *testing.T) {
	c := newTestCDE(t, lBin())

	var entire bool
	c.Walk(func(n NodeView) bool {
		if n.BBox == (geometry.AARectangle{XMin: 5, YMin: 5, XMax: 10, YMax: 10}) {
			require.Len(t, n.Hazards, 1)
			entire = n.Hazards[0].Presence == Entire
		}
		return true
	})
	assert.True(t, entire, "the top right quadrant lies outside the L")

	assert.True(t, c.ShapeCollides(sq(6, 6, 2), nil))
	assert.False(t, c.ShapeCollides(sq(0, 4, 4), nil))
	assert.False(t, c.ShapeCollides(sq(4, 0, 4), nil))
}

func TestCDE_FreshTreeReportsOnlyPermanentHazards(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10),
		NewHazard(BinHole(0), sq(4, 4, 2)),
		NewHazard(QualityZoneInferior(1, 0), sq(0, 0, 3)),
	)
	got := c.HazardsWithin(sq(2, 2, 3), nil)
	assert.Equal(t, []HazardEntity{BinHole(0), QualityZoneInferior(1, 0)}, got)
	assert.Equal(t, []HazardEntity{BinHole(0)}, c.HazardsWithin(sq(2, 2, 3), QZFilter{Cutoff: 1}))
}

func TestCDE_QualityZoneRelevance(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10), NewHazard(QualityZoneInferior(2, 0), sq(0, 0, 5)))
	shape := sq(1, 1, 2)
	assert.True(t, c.ShapeCollides(shape, nil))
	assert.True(t, c.ShapeCollides(shape, QZFilter{Cutoff: 3}))
	assert.False(t, c.ShapeCollides(shape, QZFilter{Cutoff: 2}))
}

func TestCDE_DuplicateInsertLeavesIndexUntouched(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	require.NoError(t, c.InsertPlacedItem(1, sq(0, 0, 2)))
	before := c.Stats()

	err := c.InsertPlacedItem(1, sq(5, 5, 2))
	require.ErrorIs(t, err, ErrDuplicateHazard)
	assert.Equal(t, before, c.Stats())
	assert.False(t, c.ShapeCollides(sq(5, 5, 2), nil))
}

func TestCDE_RemoveUnknown(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	require.ErrorIs(t, c.RemovePlacedItem(42), ErrUnknownHazard)
	require.ErrorIs(t, c.Deregister(BinHole(0)), ErrUnknownHazard)
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	_, err := New(geometry.AARectangle{XMax: 0, YMax: 10}, nil, testConfig())
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg := testConfig()
	cfg.QuadTree.MaxDepth = -1
	_, err = New(sq(0, 0, 10).BBox(), nil, cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(sq(0, 0, 10).BBox(), []Hazard{{Entity: BinExterior()}}, testConfig())
	require.ErrorIs(t, err, ErrDegenerateHazard)
}

func TestCDE_InsertRemoveIsInverse(t *testing.T) {
	c := newTestCDE(t, lBin(), NewHazard(BinHole(0), sq(1, 1, 1)))
	require.NoError(t, c.InsertPlacedItem(1, sq(5, 0, 3)))

	probes := []*geometry.SimplePolygon{sq(0, 0, 2), sq(4.5, 0.5, 1), sq(6, 1, 2), sq(2, 5, 2), sq(7, 7, 1)}
	snapshot := func() [][]HazardEntity {
		var out [][]HazardEntity
		for _, p := range probes {
			out = append(out, c.HazardsWithin(p, nil))
		}
		return out
	}
	statsBefore := c.Stats()
	resultsBefore := snapshot()

	require.NoError(t, c.InsertPlacedItem(2, sq(1, 5, 2.5)))
	require.NoError(t, c.RemovePlacedItem(2))

	assert.Equal(t, statsBefore, c.Stats())
	assert.Equal(t, resultsBefore, snapshot())
}

func TestCDE_WalkKeepsEntireFirst(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	require.NoError(t, c.InsertPlacedItem(1, sq(0, 0, 5)))
	require.NoError(t, c.InsertPlacedItem(2, sq(1, 1, 1)))

	var sawEntire bool
	c.Walk(func(n NodeView) bool {
		seenPartial := false
		for _, h := range n.Hazards {
			if h.Presence == Partial {
				seenPartial = true
				continue
			}
			assert.False(t, seenPartial, "entire hazard after a partial one at %+v", n.BBox)
			if h.Entity == PlacedItem(1) {
				sawEntire = true
			}
		}
		return true
	})
	assert.True(t, sawEntire)
}

func TestCDE_Stats(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 8))
	s := c.Stats()
	assert.Equal(t, 1+4+16+64, s.Nodes)
	assert.Equal(t, 64, s.Leaves)
	assert.Equal(t, 3, s.Depth)
	assert.Equal(t, 1, s.Hazards)
}

func TestCDE_MinNodeSizeStopsSplitting(t *testing.T) {
	cfg := testConfig()
	cfg.QuadTree.MaxDepth = 8
	cfg.QuadTree.MinNodeSize = 2
	c, err := New(sq(0, 0, 8).BBox(), nil, cfg)
	require.NoError(t, err)
	// 8 -> 4 -> 2, a node of size 2 would split into size 1 < 2
	assert.Equal(t, 2, c.Stats().Depth)
}

func TestCDE_CloneIsIndependent(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	clone := c.Clone()
	require.NoError(t, clone.InsertPlacedItem(1, sq(3, 3, 2)))

	assert.True(t, clone.ShapeCollides(sq(3, 3, 1), nil))
	assert.False(t, c.ShapeCollides(sq(3, 3, 1), nil))
	assert.Len(t, c.Hazards(), 1)
	assert.Len(t, clone.Hazards(), 2)
}

func TestCDE_NaNFailsSafe(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	broken := sq(1, 1, 1).Transform(geometry.Transformation{}.Inverse())
	assert.True(t, c.ShapeCollides(broken, nil))

	s := geometry.NewSurrogate(sq(0, 0, 1), geometry.DefaultSPSurrogateConfig())
	assert.True(t, c.SurrogateCollides(s, geometry.Transformation{}.Inverse(), nil))
}

func TestCDE_QueryOutsideTreeWithBinFiltered(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	require.NoError(t, c.InsertPlacedItem(1, sq(8, 8, 2)))
	assert.True(t, c.ShapeCollides(sq(9, 9, 3), BinFilter{}))
	assert.False(t, c.ShapeCollides(sq(11, 11, 3), BinFilter{}))
}

// randomCDE builds a bin with a hole, two quality zones and a few items.
func randomCDE(t *testing.T) *CDE {
	t.Helper()
	c := newTestCDE(t, lBin(),
		NewHazard(BinHole(0), geometry.MustSimplePolygon([]geometry.Point{{X: 1, Y: 1}, {X: 3, Y: 1.5}, {X: 2, Y: 3}})),
		NewHazard(QualityZoneInferior(1, 0), sq(6, 0.5, 2)),
		NewHazard(QualityZoneInferior(3, 1), sq(0.5, 6, 3)),
	)
	require.NoError(t, c.InsertPlacedItem(1, sq(4.2, 1.1, 1.3)))
	require.NoError(t, c.InsertPlacedItem(2, geometry.MustSimplePolygon([]geometry.Point{
		{X: 1, Y: 4.5}, {X: 3.5, Y: 4.2}, {X: 2.2, Y: 5.8},
	})))
	return c
}

func randomProbe(rng *rand.Rand) *geometry.SimplePolygon {
	base := geometry.MustSimplePolygon([]geometry.Point{
		{X: 0, Y: 0}, {X: 0.5 + rng.Float64()*2, Y: 0}, {X: 0.3 + rng.Float64(), Y: 0.5 + rng.Float64()*1.5},
	})
	return base.Transform(geometry.NewTransformation(rng.Float64()*2*math.Pi, rng.Float64()*11-0.5, rng.Float64()*11-0.5))
}

func TestCDE_AgreesWithBruteForce(t *testing.T) {
	c := randomCDE(t)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 400; i++ {
		probe := randomProbe(rng)
		var want []HazardEntity
		for _, h := range c.Hazards() {
			q := polygonCollider{shape: probe}
			if q.hits(&h) {
				want = append(want, h.Entity)
			}
		}
		got := c.HazardsWithin(probe, nil)
		if len(want) == 0 {
			assert.Empty(t, got, "probe %d", i)
		} else {
			assert.Equal(t, want, got, "probe %d", i)
		}
		assert.Equal(t, len(want) > 0, c.ShapeCollides(probe, nil), "probe %d", i)
	}
}

func TestCDE_FilterMonotonicity(t *testing.T) {
	c := randomCDE(t)
	rng := rand.New(rand.NewSource(5))
	filters := []HazardFilter{nil, BinFilter{}, QZFilter{Cutoff: 2}, NewEntityFilter(PlacedItem(1))}
	for i := 0; i < 200; i++ {
		probe := randomProbe(rng)
		for _, f := range filters {
			for _, g := range filters {
				wider := Combine(f, g)
				if c.ShapeCollides(probe, wider) {
					assert.True(t, c.ShapeCollides(probe, f), "probe %d", i)
				}
				assert.Subset(t, c.HazardsWithin(probe, f), c.HazardsWithin(probe, wider), "probe %d", i)
			}
		}
	}
}

func TestCDE_SurrogateNeverClaimsFalseCollision(t *testing.T) {
	c := randomCDE(t)
	rng := rand.New(rand.NewSource(3))
	shape := geometry.MustSimplePolygon([]geometry.Point{
		{X: -1, Y: -0.5}, {X: 1, Y: -0.5}, {X: 1, Y: 0.5}, {X: 0, Y: 0}, {X: -1, Y: 0.5},
	})
	s := geometry.NewSurrogate(shape, geometry.SPSurrogateConfig{PoleCoverageGoal: 0.9, MaxPoles: 6, NFFPoles: 2, NFFPiers: 2})
	for i := 0; i < 500; i++ {
		tr := geometry.NewTransformation(rng.Float64()*2*math.Pi, rng.Float64()*12-1, rng.Float64()*12-1)
		if c.SurrogateCollides(s, tr, nil) {
			assert.True(t, c.ShapeCollides(shape.Transform(tr), nil), "transform %+v", tr.Decompose())
		}
	}
}
