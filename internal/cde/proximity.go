package cde

import (
	"math"
	"slices"
	"sync"

	"github.com/piwi3910/SlabNest/internal/geometry"
)

// ProximityCell is one cell of the proximity grid.
type ProximityCell struct {
	Center geometry.Point `json:"center"`
	// Clearance is the distance from Center to the nearest hazard, 0 when
	// Center lies in a forbidden region.
	Clearance float64 `json:"clearance"`
	// Nearest is the hazard at that distance. It is meaningless when the grid
	// holds no hazards.
	Nearest HazardEntity `json:"nearest"`
}

type proxCell struct {
	ProximityCell
	stale bool
}

// ProximityGrid caches, for a regular grid of points over the bin, the
// distance to the nearest hazard. It follows the same register and
// deregister stream as the quadtree. Cells whose nearest hazard is removed
// are only recomputed when read.
type ProximityGrid struct {
	bbox       geometry.AARectangle
	cols, rows int
	cellW      float64
	cellH      float64

	mu      sync.Mutex
	cells   []proxCell
	hazards []*Hazard
	nStale  int
}

func newProximityGrid(bbox geometry.AARectangle, nCells int) *ProximityGrid {
	size := math.Sqrt(bbox.Area() / float64(nCells))
	cols := max(1, int(math.Round(bbox.Width()/size)))
	rows := max(1, int(math.Round(bbox.Height()/size)))
	g := &ProximityGrid{
		bbox:  bbox,
		cols:  cols,
		rows:  rows,
		cellW: bbox.Width() / float64(cols),
		cellH: bbox.Height() / float64(rows),
		cells: make([]proxCell, cols*rows),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := &g.cells[r*cols+c]
			cell.Center = geometry.Point{
				X: bbox.XMin + (float64(c)+0.5)*g.cellW,
				Y: bbox.YMin + (float64(r)+0.5)*g.cellH,
			}
			cell.Clearance = math.Inf(1)
		}
	}
	return g
}

// hazardDistance is the distance from p to the forbidden side of h.
func hazardDistance(h *Hazard, p geometry.Point) float64 {
	pos := h.Shape.Classify(p)
	if h.Position() == Exterior {
		if pos != geometry.Inside {
			return 0
		}
		return h.Shape.DistanceToBoundary(p)
	}
	if pos != geometry.Outside {
		return 0
	}
	return h.Shape.DistanceToBoundary(p)
}

func (g *ProximityGrid) register(h *Hazard) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hazards = append(g.hazards, h)
	for i := range g.cells {
		cell := &g.cells[i]
		if cell.stale {
			continue
		}
		if h.Position() == Interior && h.Shape.BBox().DistanceTo(cell.Center) >= cell.Clearance {
			continue
		}
		if d := hazardDistance(h, cell.Center); d < cell.Clearance {
			cell.Clearance = d
			cell.Nearest = h.Entity
		}
	}
}

func (g *ProximityGrid) deregister(e HazardEntity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hazards = slices.DeleteFunc(g.hazards, func(h *Hazard) bool { return h.Entity == e })
	for i := range g.cells {
		cell := &g.cells[i]
		if !cell.stale && cell.Nearest == e {
			cell.stale = true
			g.nStale++
		}
	}
}

// refresh recomputes stale cells. Callers hold g.mu.
func (g *ProximityGrid) refresh() {
	if g.nStale == 0 {
		return
	}
	for i := range g.cells {
		cell := &g.cells[i]
		if !cell.stale {
			continue
		}
		cell.Clearance = math.Inf(1)
		cell.Nearest = HazardEntity{}
		for _, h := range g.hazards {
			if h.Position() == Interior && h.Shape.BBox().DistanceTo(cell.Center) >= cell.Clearance {
				continue
			}
			if d := hazardDistance(h, cell.Center); d < cell.Clearance {
				cell.Clearance = d
				cell.Nearest = h.Entity
			}
		}
		cell.stale = false
	}
	g.nStale = 0
}

// Dimensions returns the number of columns and rows.
func (g *ProximityGrid) Dimensions() (cols, rows int) {
	return g.cols, g.rows
}

// CellSize returns the width and height of one cell.
func (g *ProximityGrid) CellSize() (w, h float64) {
	return g.cellW, g.cellH
}

// Clearance returns the cached clearance of the cell containing p. Points
// outside the grid have zero clearance.
func (g *ProximityGrid) Clearance(p geometry.Point) float64 {
	if !g.bbox.ContainsPoint(p) {
		return 0
	}
	c := min(g.cols-1, int((p.X-g.bbox.XMin)/g.cellW))
	r := min(g.rows-1, int((p.Y-g.bbox.YMin)/g.cellH))
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refresh()
	return g.cells[r*g.cols+c].Clearance
}

// Cells returns a snapshot of every cell, row by row from the bottom.
func (g *ProximityGrid) Cells() []ProximityCell {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refresh()
	out := make([]ProximityCell, len(g.cells))
	for i, c := range g.cells {
		out[i] = c.ProximityCell
	}
	return out
}

// CellsWithClearance returns, as circles, the cells whose clearance is at
// least minClearance. Each circle is centered on its cell and has the cell's
// clearance as radius.
func (g *ProximityGrid) CellsWithClearance(minClearance float64) []geometry.Circle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refresh()
	var out []geometry.Circle
	for _, c := range g.cells {
		if c.Clearance >= minClearance && !math.IsInf(c.Clearance, 1) {
			out = append(out, geometry.Circle{Center: c.Center, Radius: c.Clearance})
		}
	}
	return out
}

func (g *ProximityGrid) clone() *ProximityGrid {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &ProximityGrid{
		bbox:    g.bbox,
		cols:    g.cols,
		rows:    g.rows,
		cellW:   g.cellW,
		cellH:   g.cellH,
		cells:   slices.Clone(g.cells),
		hazards: slices.Clone(g.hazards),
		nStale:  g.nStale,
	}
}
