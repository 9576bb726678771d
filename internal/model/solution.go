package model

import (
	"time"

	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/piwi3910/SlabNest/internal/geometry"
)

// Placement records one placed item copy. Transform applies to the item's
// outline as it was given, not to the centered shape.
type Placement struct {
	PlacementID cde.PlacementID          `json:"placement_id"`
	ItemID      string                   `json:"item_id"`
	Label       string                   `json:"label"`
	Transform   geometry.DTransformation `json:"transform"`
}

// LayoutSolution is one used bin and its placements.
type LayoutSolution struct {
	LayoutID   string      `json:"layout_id"`
	BinID      string      `json:"bin_id"`
	BinLabel   string      `json:"bin_label"`
	Placements []Placement `json:"placements"`
	Density    float64     `json:"density"` // placed item area / usable bin area
	Width      float64     `json:"width,omitempty"`
}

// UnplacedItem counts copies of an item that did not fit.
type UnplacedItem struct {
	ItemID string `json:"item_id"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// Solution holds the full result of a run.
type Solution struct {
	ID          string           `json:"id"`
	Instance    string           `json:"instance"`
	Layouts     []LayoutSolution `json:"layouts"`
	Unplaced    []UnplacedItem   `json:"unplaced,omitempty"`
	Density     float64          `json:"density"`
	StripLength float64          `json:"strip_length,omitempty"`
	BinCost     float64          `json:"bin_cost"`
	Queries     QueryStats       `json:"queries"`
	Runtime     time.Duration    `json:"runtime"`
	CreatedAt   time.Time        `json:"created_at"`
}

// QueryStats counts how collision queries were resolved.
type QueryStats struct {
	Queries          int64 `json:"queries"`
	SurrogateRejects int64 `json:"surrogate_rejects"`
	ExactChecks      int64 `json:"exact_checks"`
	ExactRejects     int64 `json:"exact_rejects"`
}

// Add returns the sum of q and o.
func (q QueryStats) Add(o QueryStats) QueryStats {
	return QueryStats{
		Queries:          q.Queries + o.Queries,
		SurrogateRejects: q.SurrogateRejects + o.SurrogateRejects,
		ExactChecks:      q.ExactChecks + o.ExactChecks,
		ExactRejects:     q.ExactRejects + o.ExactRejects,
	}
}

// SurrogateRejectRate returns the share of queries the surrogate settled.
func (q QueryStats) SurrogateRejectRate() float64 {
	if q.Queries == 0 {
		return 0
	}
	return float64(q.SurrogateRejects) / float64(q.Queries)
}

// PlacedCount returns the number of placed item copies.
func (s Solution) PlacedCount() int {
	n := 0
	for _, l := range s.Layouts {
		n += len(l.Placements)
	}
	return n
}

// UnplacedCount returns the number of item copies left out.
func (s Solution) UnplacedCount() int {
	n := 0
	for _, u := range s.Unplaced {
		n += u.Count
	}
	return n
}
