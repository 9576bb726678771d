// Package cde is the collision detection engine. It keeps every forbidden
// region of a layout (the bin exterior, holes, inferior quality zones and the
// items placed so far) in a static-depth quadtree and answers whether a shape
// or a surrogate at some transformation overlaps any of them.
//
// A CDE is owned by a single writer. Queries do not mutate it and may run
// concurrently with each other, but not with InsertPlacedItem or
// RemovePlacedItem.
package cde

import (
	"fmt"

	"github.com/piwi3910/SlabNest/internal/geometry"
)

// PlacementID identifies one placed item within a layout.
type PlacementID uint64

// EntityKind is the kind of object a hazard originates from.
type EntityKind uint8

const (
	KindPlacedItem EntityKind = iota
	KindBinExterior
	KindBinHole
	KindInferiorQualityZone
)

func (k EntityKind) String() string {
	switch k {
	case KindPlacedItem:
		return "placed_item"
	case KindBinExterior:
		return "bin_exterior"
	case KindBinHole:
		return "bin_hole"
	case KindInferiorQualityZone:
		return "inferior_quality_zone"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Position says which side of a hazard's polygon is forbidden.
type Position uint8

const (
	// Interior hazards forbid the region inside their polygon.
	Interior Position = iota
	// Exterior hazards forbid the region outside their polygon.
	Exterior
)

// HazardEntity identifies the source of a hazard. It is a comparable value
// and can be used as a map key; two entities are the same hazard exactly
// when they are equal.
type HazardEntity struct {
	Kind      EntityKind  `json:"kind"`
	Placement PlacementID `json:"placement,omitempty"`
	Quality   int         `json:"quality,omitempty"`
	Index     int         `json:"index,omitempty"`
}

// PlacedItem is the hazard of an item placed in the layout.
func PlacedItem(id PlacementID) HazardEntity {
	return HazardEntity{Kind: KindPlacedItem, Placement: id}
}

// BinExterior is the region outside the bin.
func BinExterior() HazardEntity {
	return HazardEntity{Kind: KindBinExterior}
}

// BinHole is the index-th hole of the bin.
func BinHole(index int) HazardEntity {
	return HazardEntity{Kind: KindBinHole, Index: index}
}

// QualityZoneInferior is the index-th zone of the given quality.
func QualityZoneInferior(quality, index int) HazardEntity {
	return HazardEntity{Kind: KindInferiorQualityZone, Quality: quality, Index: index}
}

// Position returns the forbidden side of the entity's polygon.
func (e HazardEntity) Position() Position {
	if e.Kind == KindBinExterior {
		return Exterior
	}
	return Interior
}

// IsUniversal reports whether the hazard applies to every item regardless of
// its quality requirements.
func (e HazardEntity) IsUniversal() bool {
	return e.Kind != KindInferiorQualityZone
}

func (e HazardEntity) String() string {
	switch e.Kind {
	case KindPlacedItem:
		return fmt.Sprintf("placed_item(%d)", e.Placement)
	case KindBinHole:
		return fmt.Sprintf("bin_hole(%d)", e.Index)
	case KindInferiorQualityZone:
		return fmt.Sprintf("quality_zone(q=%d, %d)", e.Quality, e.Index)
	}
	return e.Kind.String()
}

// Hazard is a forbidden region: the polygon of an entity, with the side
// given by the entity's position.
type Hazard struct {
	Entity HazardEntity
	Shape  *geometry.SimplePolygon
}

// NewHazard pairs an entity with its polygon.
func NewHazard(entity HazardEntity, shape *geometry.SimplePolygon) Hazard {
	return Hazard{Entity: entity, Shape: shape}
}

// Position returns the forbidden side of the hazard's polygon.
func (h Hazard) Position() Position {
	return h.Entity.Position()
}
