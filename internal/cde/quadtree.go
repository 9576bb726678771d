package cde

import (
	"math"
	"slices"

	"github.com/piwi3910/SlabNest/internal/geometry"
)

// Presence describes how much of a node's box a hazard covers.
type Presence uint8

const (
	presenceNone Presence = iota
	// Partial means the hazard's boundary passes through the node.
	Partial
	// Entire means the whole node lies in the hazard's forbidden region.
	Entire
)

func (p Presence) String() string {
	switch p {
	case Entire:
		return "entire"
	case Partial:
		return "partial"
	}
	return "none"
}

type qtHazard struct {
	hazard   *Hazard
	presence Presence
}

// qtNode is one node of the quadtree. The tree is built to its full depth
// up front; registering a hazard only fills in hazard lists. Entire hazards
// are kept before partial ones and an Entire hazard is repeated in every
// descendant.
type qtNode struct {
	bbox     geometry.AARectangle
	level    int
	children *[4]qtNode
	hazards  []qtHazard
}

func newQTNode(bbox geometry.AARectangle, level int, cfg QuadTreeConfig) qtNode {
	n := qtNode{bbox: bbox, level: level}
	half := math.Min(bbox.Width(), bbox.Height()) / 2
	if level < cfg.MaxDepth && half >= cfg.MinNodeSize && half > geometry.Tolerance {
		var children [4]qtNode
		for i, q := range bbox.Quadrants() {
			children[i] = newQTNode(q, level+1, cfg)
		}
		n.children = &children
	}
	return n
}

// isClear reports whether no hazard touches the node.
func (n *qtNode) isClear() bool {
	return len(n.hazards) == 0
}

// presenceIn classifies a hazard against a box.
func presenceIn(h *Hazard, box geometry.AARectangle) Presence {
	shape := h.Shape
	if !shape.BBox().Intersects(box) {
		if h.Position() == Exterior {
			return Entire
		}
		return presenceNone
	}
	for i := 0; i < shape.NumPoints(); i++ {
		if shape.Edge(i).IntersectsRect(box) {
			return Partial
		}
	}
	// no edge touches the box, so it lies wholly on one side
	inside := shape.Classify(box.Center()) == geometry.Inside
	if inside == (h.Position() == Interior) {
		return Entire
	}
	return presenceNone
}

func (n *qtNode) register(h *Hazard, p Presence) {
	entry := qtHazard{hazard: h, presence: p}
	if p == Entire {
		// keep Entire hazards first
		i := 0
		for i < len(n.hazards) && n.hazards[i].presence == Entire {
			i++
		}
		n.hazards = slices.Insert(n.hazards, i, entry)
	} else {
		n.hazards = append(n.hazards, entry)
	}
	if n.children == nil {
		return
	}
	for i := range n.children {
		child := &n.children[i]
		cp := Entire
		if p != Entire {
			cp = presenceIn(h, child.bbox)
		}
		if cp != presenceNone {
			child.register(h, cp)
		}
	}
}

// deregister removes e from the subtree and reports whether the node became
// clear. Subtrees the hazard never reached are not visited.
func (n *qtNode) deregister(e HazardEntity) bool {
	idx := slices.IndexFunc(n.hazards, func(q qtHazard) bool { return q.hazard.Entity == e })
	if idx < 0 {
		return n.isClear()
	}
	n.hazards = slices.Delete(n.hazards, idx, idx+1)
	if n.children != nil {
		for i := range n.children {
			n.children[i].deregister(e)
		}
	}
	return n.isClear()
}

// query collects, for the collider q, the hazards that definitely collide
// and the candidates that need an exact test. It stops early once a
// definite collision is found and v.firstOnly is set.
func (n *qtNode) query(q collider, filter HazardFilter, v *visit) bool {
	if n.isClear() || !n.bbox.Overlaps(q.bbox()) {
		return false
	}
	partial := false
	overlapsNode := -1
	for i := range n.hazards {
		qh := &n.hazards[i]
		e := qh.hazard.Entity
		if isIrrelevant(filter, e) || v.isDetected(e) {
			continue
		}
		if qh.presence == Entire {
			if overlapsNode < 0 {
				overlapsNode = 0
				if q.overlapsBox(n.bbox) {
					overlapsNode = 1
				}
			}
			if overlapsNode == 1 {
				v.detect(e)
				if v.firstOnly {
					return true
				}
			}
			continue
		}
		partial = true
		if n.children == nil {
			v.candidate(qh.hazard)
		}
	}
	if !partial || n.children == nil {
		return false
	}
	for i := range n.children {
		if n.children[i].query(q, filter, v) {
			return true
		}
	}
	return false
}

func (n *qtNode) clone() qtNode {
	out := qtNode{bbox: n.bbox, level: n.level, hazards: slices.Clone(n.hazards)}
	if n.children != nil {
		var children [4]qtNode
		for i := range n.children {
			children[i] = n.children[i].clone()
		}
		out.children = &children
	}
	return out
}

// visit accumulates query results across nodes.
type visit struct {
	firstOnly  bool
	detected   []HazardEntity
	candidates []*Hazard
}

func (v *visit) isDetected(e HazardEntity) bool {
	return slices.Contains(v.detected, e)
}

func (v *visit) detect(e HazardEntity) {
	v.detected = append(v.detected, e)
	v.candidates = slices.DeleteFunc(v.candidates, func(h *Hazard) bool { return h.Entity == e })
}

func (v *visit) candidate(h *Hazard) {
	if slices.Contains(v.candidates, h) {
		return
	}
	v.candidates = append(v.candidates, h)
}

// NodeView is a read-only snapshot of one quadtree node.
type NodeView struct {
	BBox    geometry.AARectangle
	Level   int
	Leaf    bool
	Hazards []NodeHazard
}

// NodeHazard is one hazard as seen from a node.
type NodeHazard struct {
	Entity   HazardEntity
	Presence Presence
}

// walk visits the subtree in pre-order. Returning false from fn skips the
// node's children.
func (n *qtNode) walk(fn func(NodeView) bool) {
	view := NodeView{BBox: n.bbox, Level: n.level, Leaf: n.children == nil}
	view.Hazards = make([]NodeHazard, len(n.hazards))
	for i, q := range n.hazards {
		view.Hazards[i] = NodeHazard{Entity: q.hazard.Entity, Presence: q.presence}
	}
	if !fn(view) || n.children == nil {
		return
	}
	for i := range n.children {
		n.children[i].walk(fn)
	}
}
