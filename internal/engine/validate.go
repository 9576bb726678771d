package engine

import (
	"fmt"

	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/logger"
	"github.com/piwi3910/SlabNest/internal/model"
)

// Violation describes one problem found in a solution.
type Violation struct {
	Layout    int                `json:"layout"`
	Placement cde.PlacementID    `json:"placement,omitempty"`
	ItemID    string             `json:"item_id,omitempty"`
	Reason    string             `json:"reason"`
	Hazards   []cde.HazardEntity `json:"-"`
}

func (v Violation) String() string {
	if v.ItemID == "" {
		return fmt.Sprintf("layout %d: %s", v.Layout, v.Reason)
	}
	return fmt.Sprintf("layout %d, placement %d (item %s): %s", v.Layout, v.Placement, v.ItemID, v.Reason)
}

// Validate rebuilds every layout of sol and reports each placement that
// overlaps the bin exterior, a hole, a forbidden quality zone or an earlier
// placement. It also reports demand and stock overruns, and strip layouts
// reaching past sol.StripLength. Ids that cannot be resolved against in are
// returned as an error.
func Validate(sol *model.Solution, in *model.Instance, cfg cde.Config) ([]Violation, error) {
	var out []Violation
	placedPerItem := make(map[string]int)
	usedPerBin := make(map[string]int)

	layouts, err := rebuild(sol, in, cfg, func(li int, l *layout.Layout, p model.Placement, item *model.Item, t geometry.DTransformation) {
		placedPerItem[item.ID]++
		if hz := l.CollidingHazards(item, t); len(hz) > 0 {
			out = append(out, Violation{
				Layout:    li,
				Placement: p.PlacementID,
				ItemID:    item.ID,
				Reason:    fmt.Sprintf("overlaps %v", hz),
				Hazards:   hz,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	for _, ls := range sol.Layouts {
		if _, ok := in.Bin(ls.BinID); ok {
			usedPerBin[ls.BinID]++
		}
	}

	for _, it := range in.Items {
		if n := placedPerItem[it.ID]; n > it.Demand {
			out = append(out, Violation{Layout: -1, ItemID: it.ID, Reason: fmt.Sprintf("placed %d copies, demand is %d", n, it.Demand)})
		}
	}
	if in.Strip != nil {
		// strip layouts are rebuilt against the widest strip, so the
		// claimed length is checked separately
		for li, l := range layouts {
			bb, ok := l.PlacedBBox()
			if !ok {
				continue
			}
			if used := bb.XMax - l.Bin.BBox().XMin; used > sol.StripLength+geometry.Tolerance {
				out = append(out, Violation{Layout: li, Reason: fmt.Sprintf("placements use %g of the strip, strip length is %g", used, sol.StripLength)})
			}
		}
	} else {
		for _, b := range in.Bins {
			if n := usedPerBin[b.ID]; n > b.Stock {
				out = append(out, Violation{Layout: -1, Reason: fmt.Sprintf("bin %q used %d times, stock is %d", b.Label, n, b.Stock)})
			}
		}
	}
	return out, nil
}

// Rebuild replays every layout of sol onto fresh layouts without checking
// for collisions, so that a stored solution can be rendered or inspected.
func Rebuild(sol *model.Solution, in *model.Instance, cfg cde.Config) ([]*layout.Layout, error) {
	return rebuild(sol, in, cfg, nil)
}

// rebuild replays sol. before, when set, sees each placement just before it
// is committed.
func rebuild(sol *model.Solution, in *model.Instance, cfg cde.Config,
	before func(li int, l *layout.Layout, p model.Placement, item *model.Item, t geometry.DTransformation)) ([]*layout.Layout, error) {
	out := make([]*layout.Layout, 0, len(sol.Layouts))
	for li, ls := range sol.Layouts {
		bin, ok := in.Bin(ls.BinID)
		if !ok && in.Strip != nil {
			bin, ok = stripBin(in, ls)
		}
		if !ok {
			return nil, fmt.Errorf("layout %d: unknown bin %q", li, ls.BinID)
		}

		l, err := layout.New(bin, cfg, layout.WithLogger(logger.Discard()))
		if err != nil {
			return nil, err
		}
		for _, p := range ls.Placements {
			item, ok := in.Item(p.ItemID)
			if !ok {
				return nil, fmt.Errorf("layout %d: unknown item %q", li, p.ItemID)
			}
			t := item.CenteredTransform(p.Transform)
			if before != nil {
				before(li, l, p, item, t)
			}
			if _, err := l.ForcePlaceItem(item, t); err != nil {
				return nil, fmt.Errorf("layout %d: %w", li, err)
			}
		}
		out = append(out, l)
	}
	return out, nil
}

// stripBin rebuilds the strip container a strip layout was packed into.
func stripBin(in *model.Instance, ls model.LayoutSolution) (*model.Bin, bool) {
	b, err := in.StripBin(in.StripWidthBound())
	if err != nil {
		return nil, false
	}
	b.ID = ls.BinID
	return b, true
}
