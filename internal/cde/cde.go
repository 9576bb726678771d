package cde

import (
	"fmt"
	"slices"

	"github.com/piwi3910/SlabNest/internal/geometry"
)

// CDE indexes the hazards of one layout and answers collision queries
// against them.
type CDE struct {
	bbox    geometry.AARectangle
	config  Config
	root    qtNode
	hazards []*Hazard
	prox    *ProximityGrid
}

// New builds a CDE covering bbox with the given permanent hazards.
func New(bbox geometry.AARectangle, static []Hazard, config Config) (*CDE, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !bbox.IsFinite() || bbox.Width() <= 0 || bbox.Height() <= 0 {
		return nil, fmt.Errorf("bounding box %+v: %w", bbox, ErrInvalidConfig)
	}
	c := &CDE{
		bbox:   bbox,
		config: config,
		root:   newQTNode(bbox, 0, config.QuadTree),
	}
	if config.HazProx.Enabled {
		c.prox = newProximityGrid(bbox, config.HazProx.NCells)
	}
	for _, h := range static {
		if err := c.Register(h); err != nil {
			return nil, fmt.Errorf("static hazard %s: %w", h.Entity, err)
		}
	}
	return c, nil
}

// BBox returns the region covered by the quadtree.
func (c *CDE) BBox() geometry.AARectangle { return c.bbox }

// Config returns the configuration the CDE was built with.
func (c *CDE) Config() Config { return c.config }

// Register adds a hazard. The CDE is left unchanged when the entity is
// already present or the shape is unusable.
func (c *CDE) Register(h Hazard) error {
	if h.Shape == nil || h.Shape.Area() <= geometry.Tolerance || !h.Shape.IsFinite() {
		return fmt.Errorf("%s: %w", h.Entity, ErrDegenerateHazard)
	}
	if c.indexOf(h.Entity) >= 0 {
		return fmt.Errorf("%s: %w", h.Entity, ErrDuplicateHazard)
	}
	stored := &h
	c.hazards = append(c.hazards, stored)
	if p := presenceIn(stored, c.root.bbox); p != presenceNone {
		c.root.register(stored, p)
	}
	if c.prox != nil {
		c.prox.register(stored)
	}
	return nil
}

// Deregister removes the hazard of entity e.
func (c *CDE) Deregister(e HazardEntity) error {
	idx := c.indexOf(e)
	if idx < 0 {
		return fmt.Errorf("%s: %w", e, ErrUnknownHazard)
	}
	c.hazards = slices.Delete(c.hazards, idx, idx+1)
	c.root.deregister(e)
	if c.prox != nil {
		c.prox.deregister(e)
	}
	return nil
}

// InsertPlacedItem registers shape, already transformed to its placement,
// as the hazard of placement id.
func (c *CDE) InsertPlacedItem(id PlacementID, shape *geometry.SimplePolygon) error {
	return c.Register(Hazard{Entity: PlacedItem(id), Shape: shape})
}

// RemovePlacedItem removes the hazard of placement id.
func (c *CDE) RemovePlacedItem(id PlacementID) error {
	return c.Deregister(PlacedItem(id))
}

// Hazards returns the registered hazards in registration order.
func (c *CDE) Hazards() []Hazard {
	out := make([]Hazard, len(c.hazards))
	for i, h := range c.hazards {
		out[i] = *h
	}
	return out
}

// Hazard returns the hazard registered for e.
func (c *CDE) Hazard(e HazardEntity) (Hazard, bool) {
	if idx := c.indexOf(e); idx >= 0 {
		return *c.hazards[idx], true
	}
	return Hazard{}, false
}

func (c *CDE) indexOf(e HazardEntity) int {
	return slices.IndexFunc(c.hazards, func(h *Hazard) bool { return h.Entity == e })
}

// ShapeCollides reports whether shape overlaps any hazard the filter does
// not ignore. Touching boundaries are not collisions.
func (c *CDE) ShapeCollides(shape *geometry.SimplePolygon, filter HazardFilter) bool {
	return c.collides(polygonCollider{shape: shape}, filter)
}

// SurrogateCollides tests the surrogate placed by t: fail-fast piers first,
// then fail-fast poles, then the remaining poles. A true result guarantees
// the item's shape collides too. A false result proves nothing; follow up
// with ShapeCollides.
func (c *CDE) SurrogateCollides(s *geometry.Surrogate, t geometry.Transformation, filter HazardFilter) bool {
	if !t.IsFinite() {
		return true
	}
	for _, pier := range s.Piers {
		if c.collides(edgeCollider{edge: pier.Transform(t)}, filter) {
			return true
		}
	}
	for _, pole := range s.FFPoles() {
		if c.collides(circleCollider{circle: pole.Transform(t)}, filter) {
			return true
		}
	}
	for _, pole := range s.OtherPoles() {
		if c.collides(circleCollider{circle: pole.Transform(t)}, filter) {
			return true
		}
	}
	return false
}

// PoleCollides reports whether a single circle overlaps a relevant hazard.
func (c *CDE) PoleCollides(circle geometry.Circle, filter HazardFilter) bool {
	return c.collides(circleCollider{circle: circle}, filter)
}

// HazardsWithin returns every relevant hazard that shape overlaps, in
// registration order.
func (c *CDE) HazardsWithin(shape *geometry.SimplePolygon, filter HazardFilter) []HazardEntity {
	v := c.run(polygonCollider{shape: shape}, filter, false)
	out := make([]HazardEntity, 0, len(v.detected))
	for _, h := range c.hazards {
		if slices.Contains(v.detected, h.Entity) {
			out = append(out, h.Entity)
		}
	}
	return out
}

func (c *CDE) collides(q collider, filter HazardFilter) bool {
	return len(c.run(q, filter, true).detected) > 0
}

// run executes a query. With firstOnly set it returns as soon as one
// collision is known.
func (c *CDE) run(q collider, filter HazardFilter, firstOnly bool) *visit {
	v := &visit{firstOnly: firstOnly}
	if !q.finite() {
		// fail safe: report every relevant hazard
		for _, h := range c.hazards {
			if !isIrrelevant(filter, h.Entity) {
				v.detect(h.Entity)
				if firstOnly {
					break
				}
			}
		}
		return v
	}

	if !c.bbox.ContainsRect(q.bbox()) {
		// part of the query lies outside the tree; test it the slow way
		for _, h := range c.hazards {
			if isIrrelevant(filter, h.Entity) {
				continue
			}
			if q.hits(h) {
				v.detect(h.Entity)
				if firstOnly {
					return v
				}
			}
		}
		return v
	}

	if c.root.query(q, filter, v) {
		return v
	}
	for _, h := range v.candidates {
		if v.isDetected(h.Entity) {
			continue
		}
		if q.hits(h) {
			v.detected = append(v.detected, h.Entity)
			if firstOnly {
				return v
			}
		}
	}
	return v
}

// Walk visits the quadtree nodes in pre-order. Returning false from fn
// skips the children of that node.
func (c *CDE) Walk(fn func(NodeView) bool) {
	c.root.walk(fn)
}

// ProximityGrid returns the hazard proximity grid, or nil when disabled.
func (c *CDE) ProximityGrid() *ProximityGrid {
	return c.prox
}

// Clone returns an independent copy. Hazard shapes are immutable and shared.
func (c *CDE) Clone() *CDE {
	out := &CDE{
		bbox:    c.bbox,
		config:  c.config,
		root:    c.root.clone(),
		hazards: slices.Clone(c.hazards),
	}
	if c.prox != nil {
		out.prox = c.prox.clone()
	}
	return out
}

// Stats summarizes the quadtree.
type Stats struct {
	Nodes       int `json:"nodes"`
	Leaves      int `json:"leaves"`
	ClearNodes  int `json:"clear_nodes"`
	Hazards     int `json:"hazards"`
	HazardSlots int `json:"hazard_slots"`
	EntireSlots int `json:"entire_slots"`
	Depth       int `json:"depth"`
}

// Stats counts nodes and hazard entries across the quadtree.
func (c *CDE) Stats() Stats {
	s := Stats{Hazards: len(c.hazards)}
	c.Walk(func(n NodeView) bool {
		s.Nodes++
		if n.Leaf {
			s.Leaves++
		}
		if len(n.Hazards) == 0 {
			s.ClearNodes++
		}
		s.HazardSlots += len(n.Hazards)
		for _, h := range n.Hazards {
			if h.Presence == Entire {
				s.EntireSlots++
			}
		}
		s.Depth = max(s.Depth, n.Level)
		return true
	})
	return s
}
