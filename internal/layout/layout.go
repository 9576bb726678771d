// Package layout pairs a bin with its collision index and the items placed
// on it. A Layout is the unit the optimizer works on: it asks whether an item
// fits at a transformation and commits placements.
//
// A Layout has a single writer. Collides and CollidingHazards may run
// concurrently with each other, but not with PlaceItem or RemoveItem.
package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/logger"
	"github.com/piwi3910/SlabNest/internal/model"
)

var (
	// ErrCollision is returned by PlaceItem when the item does not fit.
	ErrCollision = errors.New("placement collides")
	// ErrUnknownPlacement is returned when removing an id that is not placed.
	ErrUnknownPlacement = errors.New("unknown placement")
)

// PlacedItem is an item committed to a layout.
type PlacedItem struct {
	ID        cde.PlacementID
	Item      *model.Item
	Transform geometry.DTransformation
	Shape     *geometry.SimplePolygon // Item.Shape with Transform applied
}

// Layout is one bin, its CDE and the items placed on it.
type Layout struct {
	ID     string
	Bin    *model.Bin
	cde    *cde.CDE
	placed map[cde.PlacementID]PlacedItem
	order  []cde.PlacementID
	nextID cde.PlacementID
	area   float64
	log    *slog.Logger

	bufs sync.Pool

	queries, surrogateRejects, exactChecks, exactRejects atomic.Int64
}

// Option configures a Layout.
type Option func(*Layout)

// WithLogger sets the logger used for placement events.
func WithLogger(l *slog.Logger) Option {
	return func(lay *Layout) { lay.log = l }
}

// New builds an empty layout for bin. The CDE is built from the bin's
// static hazards with cfg.
func New(bin *model.Bin, cfg cde.Config, opts ...Option) (*Layout, error) {
	c, err := cde.New(bin.BBox(), bin.StaticHazards(), cfg)
	if err != nil {
		return nil, fmt.Errorf("layout for bin %q: %w", bin.Label, err)
	}
	l := &Layout{
		ID:     uuid.New().String()[:8],
		Bin:    bin,
		cde:    c,
		placed: make(map[cde.PlacementID]PlacedItem),
		nextID: 1,
		log:    logger.L(),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// CDE returns the layout's collision index for read-only use.
func (l *Layout) CDE() *cde.CDE { return l.cde }

// Collides reports whether item placed by t overlaps anything on the layout
// that is relevant to it. The item's own quality filter is combined with
// extra. The surrogate is tried first; the exact shape only when the
// surrogate is inconclusive.
func (l *Layout) Collides(item *model.Item, t geometry.DTransformation, extra cde.HazardFilter) bool {
	l.queries.Add(1)
	filter := cde.Combine(item.Filter(), extra)
	m := t.Compose()
	if item.Surrogate != nil && l.cde.SurrogateCollides(item.Surrogate, m, filter) {
		l.surrogateRejects.Add(1)
		return true
	}
	l.exactChecks.Add(1)

	buf, _ := l.bufs.Get().(*geometry.SimplePolygon)
	if buf == nil {
		buf = new(geometry.SimplePolygon)
	}
	item.Shape.TransformInto(buf, m)
	hit := l.cde.ShapeCollides(buf, filter)
	l.bufs.Put(buf)

	if hit {
		l.exactRejects.Add(1)
	}
	return hit
}

// CollidingHazards returns every hazard item placed by t overlaps, after
// the item's quality filter.
func (l *Layout) CollidingHazards(item *model.Item, t geometry.DTransformation) []cde.HazardEntity {
	return l.cde.HazardsWithin(item.Shape.Transform(t.Compose()), item.Filter())
}

// PlaceItem commits item at t and returns its placement id. It fails with
// ErrCollision when the item does not fit.
func (l *Layout) PlaceItem(item *model.Item, t geometry.DTransformation) (cde.PlacementID, error) {
	if l.Collides(item, t, nil) {
		return 0, fmt.Errorf("item %q at %+v: %w", item.Label, t, ErrCollision)
	}
	return l.place(item, t)
}

// ForcePlaceItem commits item at t without checking for collisions. It is
// used to rebuild layouts from stored solutions before validating them.
func (l *Layout) ForcePlaceItem(item *model.Item, t geometry.DTransformation) (cde.PlacementID, error) {
	return l.place(item, t)
}

func (l *Layout) place(item *model.Item, t geometry.DTransformation) (cde.PlacementID, error) {
	id := l.nextID
	shape := item.Shape.Transform(t.Compose())
	if err := l.cde.InsertPlacedItem(id, shape); err != nil {
		return 0, fmt.Errorf("item %q: %w", item.Label, err)
	}
	l.nextID++
	l.placed[id] = PlacedItem{ID: id, Item: item, Transform: t, Shape: shape}
	l.order = append(l.order, id)
	l.area += item.Area()
	l.log.Debug("item placed", "layout", l.ID, "item", item.Label, "placement", uint64(id),
		"rotation", t.RotationDegrees(), "x", t.Translation.X, "y", t.Translation.Y)
	return id, nil
}

// RemoveItem takes a placement off the layout.
func (l *Layout) RemoveItem(id cde.PlacementID) (PlacedItem, error) {
	pi, ok := l.placed[id]
	if !ok {
		return PlacedItem{}, fmt.Errorf("placement %d: %w", id, ErrUnknownPlacement)
	}
	if err := l.cde.RemovePlacedItem(id); err != nil {
		return PlacedItem{}, err
	}
	delete(l.placed, id)
	l.order = slices.DeleteFunc(l.order, func(x cde.PlacementID) bool { return x == id })
	l.area -= pi.Item.Area()
	l.log.Debug("item removed", "layout", l.ID, "item", pi.Item.Label, "placement", uint64(id))
	return pi, nil
}

// PlacedItem returns a placement by id.
func (l *Layout) PlacedItem(id cde.PlacementID) (PlacedItem, bool) {
	pi, ok := l.placed[id]
	return pi, ok
}

// PlacedItems returns the placements in the order they were made.
func (l *Layout) PlacedItems() []PlacedItem {
	out := make([]PlacedItem, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.placed[id])
	}
	return out
}

// Len returns the number of placed items.
func (l *Layout) Len() int { return len(l.placed) }

// IsEmpty reports whether nothing is placed.
func (l *Layout) IsEmpty() bool { return len(l.placed) == 0 }

// Density returns the placed item area over the usable bin area.
func (l *Layout) Density() float64 {
	a := l.Bin.Area()
	if a <= 0 {
		return 0
	}
	return l.area / a
}

// PlacedBBox returns the bounding box of all placed shapes, or false when
// the layout is empty.
func (l *Layout) PlacedBBox() (geometry.AARectangle, bool) {
	if len(l.order) == 0 {
		return geometry.AARectangle{}, false
	}
	bb := l.placed[l.order[0]].Shape.BBox()
	for _, id := range l.order[1:] {
		bb = bb.Union(l.placed[id].Shape.BBox())
	}
	return bb, true
}

// Counters returns the query statistics gathered so far.
func (l *Layout) Counters() model.QueryStats {
	return model.QueryStats{
		Queries:          l.queries.Load(),
		SurrogateRejects: l.surrogateRejects.Load(),
		ExactChecks:      l.exactChecks.Load(),
		ExactRejects:     l.exactRejects.Load(),
	}
}

// Clone returns an independent copy sharing the bin and the items. The copy
// gets a fresh id and zeroed counters.
func (l *Layout) Clone() *Layout {
	out := &Layout{
		ID:     uuid.New().String()[:8],
		Bin:    l.Bin,
		cde:    l.cde.Clone(),
		placed: make(map[cde.PlacementID]PlacedItem, len(l.placed)),
		order:  slices.Clone(l.order),
		nextID: l.nextID,
		area:   l.area,
		log:    l.log,
	}
	for id, pi := range l.placed {
		out.placed[id] = pi
	}
	return out
}

// Snapshot converts the layout into its solution form. Transformations are
// reported for the item outlines as they were given.
func (l *Layout) Snapshot() model.LayoutSolution {
	ls := model.LayoutSolution{
		LayoutID:   l.ID,
		BinID:      l.Bin.ID,
		BinLabel:   l.Bin.Label,
		Placements: make([]model.Placement, 0, len(l.order)),
		Density:    l.Density(),
	}
	for _, pi := range l.PlacedItems() {
		ls.Placements = append(ls.Placements, model.Placement{
			PlacementID: pi.ID,
			ItemID:      pi.Item.ID,
			Label:       pi.Item.Label,
			Transform:   pi.Item.OriginalTransform(pi.Transform),
		})
	}
	return ls
}
