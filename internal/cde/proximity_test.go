package cde

import (
	"testing"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProxCDE(t *testing.T) *CDE {
	t.Helper()
	cfg := testConfig()
	cfg.HazProx = HazProxConfig{Enabled: true, NCells: 100}
	bin := sq(0, 0, 10)
	c, err := New(bin.BBox(), []Hazard{NewHazard(BinExterior(), bin)}, cfg)
	require.NoError(t, err)
	return c
}

func TestProximityGrid_Dimensions(t *testing.T) {
	g := newProxCDE(t).ProximityGrid()
	require.NotNil(t, g)
	cols, rows := g.Dimensions()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 10, rows)
	w, h := g.CellSize()
	assert.InDelta(t, 1.0, w, 1e-12)
	assert.InDelta(t, 1.0, h, 1e-12)
	assert.Len(t, g.Cells(), 100)
}

func TestProximityGrid_DisabledIsNil(t *testing.T) {
	c := newTestCDE(t, sq(0, 0, 10))
	assert.Nil(t, c.ProximityGrid())
}

func TestProximityGrid_TracksInsertAndRemove(t *testing.T) {
	c := newProxCDE(t)
	g := c.ProximityGrid()
	p := geometry.Point{X: 5, Y: 5}

	assert.InDelta(t, 4.5, g.Clearance(p), 1e-9)

	require.NoError(t, c.InsertPlacedItem(1, sq(4, 4, 2)))
	assert.InDelta(t, 0.0, g.Clearance(p), 1e-9)
	assert.InDelta(t, 1.5, g.Clearance(geometry.Point{X: 7.9, Y: 5.2}), 1e-9, "cell (7.5, 5.5) is 1.5 from the item")

	require.NoError(t, c.RemovePlacedItem(1))
	assert.InDelta(t, 4.5, g.Clearance(p), 1e-9)
}

func TestProximityGrid_CellsWithClearance(t *testing.T) {
	g := newProxCDE(t).ProximityGrid()
	cells := g.CellsWithClearance(4.5 - 1e-9)
	require.Len(t, cells, 4)
	for _, c := range cells {
		assert.InDelta(t, 4.5, c.Radius, 1e-9)
	}
	assert.Len(t, g.CellsWithClearance(0), 100)
}

func TestProximityGrid_OutsideIsZero(t *testing.T) {
	g := newProxCDE(t).ProximityGrid()
	assert.Equal(t, 0.0, g.Clearance(geometry.Point{X: -1, Y: 5}))
}

func TestProximityGrid_CloneIsIndependent(t *testing.T) {
	c := newProxCDE(t)
	clone := c.Clone()
	require.NoError(t, clone.InsertPlacedItem(1, sq(4, 4, 2)))

	p := geometry.Point{X: 5, Y: 5}
	assert.InDelta(t, 0.0, clone.ProximityGrid().Clearance(p), 1e-9)
	assert.InDelta(t, 4.5, c.ProximityGrid().Clearance(p), 1e-9)
}
