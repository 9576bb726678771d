package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/logger"
	"github.com/piwi3910/SlabNest/internal/model"
)

// Optimizer nests the items of an instance with a left-bottom-fill
// constructive heuristic. Every candidate placement is checked with the
// layout's collision detection engine.
type Optimizer struct {
	Config model.Config
	log    *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger for the optimizer and the layouts it builds.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) { o.log = l }
}

func New(cfg model.Config, opts ...Option) *Optimizer {
	o := &Optimizer{Config: cfg, log: logger.L()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// packing is the raw outcome of one constructive run.
type packing struct {
	layouts     []*layout.Layout
	unplaced    []*model.Item
	stripLength float64
	queries     model.QueryStats
}

// placedArea returns the item area placed across all layouts.
func (p *packing) placedArea() float64 {
	var a float64
	for _, l := range p.layouts {
		a += l.Density() * l.Bin.Area()
	}
	return a
}

// Solve runs the configured algorithm and returns the best solution found.
// Solve is deterministic for a given Config.Seed.
func (o *Optimizer) Solve(ctx context.Context, in *model.Instance) (*model.Solution, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := o.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	ctx, span := startSolveSpan(ctx, in, o.Config.Algorithm)
	defer span.End()

	start := time.Now()
	var (
		p   *packing
		err error
	)
	switch o.Config.Algorithm {
	case model.AlgorithmGenetic:
		p, err = o.optimizeOrder(ctx, in)
	default:
		p, err = o.pack(ctx, in, greedyOrder(in), rand.New(rand.NewSource(o.Config.Seed)))
	}
	if err != nil {
		recordSolveError(ctx, span, o.Config.Algorithm, err)
		return nil, err
	}

	sol := o.solution(in, p, time.Since(start))
	recordSolve(ctx, span, sol, o.Config.Algorithm)
	o.log.Info("solve finished",
		"instance", in.Name,
		"algorithm", o.Config.Algorithm,
		"layouts", len(sol.Layouts),
		"placed", sol.PlacedCount(),
		"unplaced", sol.UnplacedCount(),
		"density", sol.Density,
		"runtime", sol.Runtime)
	return sol, nil
}

// expand returns one entry per demanded item copy, in item order.
func expand(in *model.Instance) []*model.Item {
	var out []*model.Item
	for _, it := range in.Items {
		for i := 0; i < it.Demand; i++ {
			out = append(out, it)
		}
	}
	return out
}

// greedyOrder returns the item copies sorted by area, largest first.
func greedyOrder(in *model.Instance) []*model.Item {
	copies := expand(in)
	sort.SliceStable(copies, func(i, j int) bool {
		return copies[i].Area() > copies[j].Area()
	})
	return copies
}

// pack places copies in the given order.
func (o *Optimizer) pack(ctx context.Context, in *model.Instance, copies []*model.Item, rng *rand.Rand) (*packing, error) {
	if in.Strip != nil {
		return o.packStrip(ctx, in, copies, rng)
	}
	return o.packBins(ctx, in, copies, rng)
}

// packBins tries every open layout before opening a new bin. Bins are opened
// in the order they are listed, as long as stock remains.
func (o *Optimizer) packBins(ctx context.Context, in *model.Instance, copies []*model.Item, rng *rand.Rand) (*packing, error) {
	p := &packing{}
	stock := make([]int, len(in.Bins))
	for i, b := range in.Bins {
		stock[i] = b.Stock
	}
	// Empty layouts are kept between items so a bin an item did not fit is
	// not rebuilt for the next one.
	fresh := make([]*layout.Layout, len(in.Bins))

	for _, it := range copies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		placed := false
		for _, l := range p.layouts {
			if o.placeIn(l, it, rng) {
				placed = true
				break
			}
		}
		for bi := 0; !placed && bi < len(in.Bins); bi++ {
			if stock[bi] == 0 {
				continue
			}
			if fresh[bi] == nil {
				l, err := layout.New(in.Bins[bi], o.Config.CDE, layout.WithLogger(o.log))
				if err != nil {
					return nil, err
				}
				fresh[bi] = l
			}
			if o.placeIn(fresh[bi], it, rng) {
				p.layouts = append(p.layouts, fresh[bi])
				fresh[bi] = nil
				stock[bi]--
				placed = true
			}
		}
		if !placed {
			o.log.Debug("item does not fit", "item", it.Label)
			p.unplaced = append(p.unplaced, it)
		}
	}

	for _, l := range p.layouts {
		p.queries = p.queries.Add(l.Counters())
	}
	for _, l := range fresh {
		if l != nil {
			p.queries = p.queries.Add(l.Counters())
		}
	}
	return p, nil
}

// packStrip places every copy into one strip wide enough for all of them
// side by side and reports how much of its width was used.
func (o *Optimizer) packStrip(ctx context.Context, in *model.Instance, copies []*model.Item, rng *rand.Rand) (*packing, error) {
	bin, err := in.StripBin(in.StripWidthBound())
	if err != nil {
		return nil, err
	}
	l, err := layout.New(bin, o.Config.CDE, layout.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	p := &packing{layouts: []*layout.Layout{l}}
	for _, it := range copies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !o.placeIn(l, it, rng) {
			p.unplaced = append(p.unplaced, it)
		}
	}
	if bb, ok := l.PlacedBBox(); ok {
		p.stripLength = bb.XMax - bin.BBox().XMin
	}
	p.queries = l.Counters()
	return p, nil
}

// placeIn finds the cheapest placement for item on l and commits it.
func (o *Optimizer) placeIn(l *layout.Layout, item *model.Item, rng *rand.Rand) bool {
	if item.Area() > l.Bin.Area()*(1-l.Density())+geometry.Tolerance {
		return false
	}
	t, ok := o.findPlacement(l, item, rng)
	if !ok {
		return false
	}
	if _, err := l.PlaceItem(item, t); err != nil {
		o.log.Warn("placement rejected on commit", "item", item.Label, "error", err)
		return false
	}
	return true
}

// findPlacement samples NSamplesPerItem transformations. The first share
// explores the whole bin, the rest refines the best feasible one.
func (o *Optimizer) findPlacement(l *layout.Layout, item *model.Item, rng *rand.Rand) (geometry.DTransformation, bool) {
	uniform := newUniformSampler(l.Bin.BBox(), item)
	if uniform == nil {
		return geometry.DTransformation{}, false
	}
	var s sampler = uniform
	if o.Config.Sampler == model.SamplerProximity {
		s = newProximitySampler(l, item, uniform)
	}

	nLS := int(float64(o.Config.NSamplesPerItem) * o.Config.LSSamplesFraction)
	nGlobal := o.Config.NSamplesPerItem - nLS

	var (
		best     geometry.DTransformation
		bestCost float64
		found    bool
	)
	for i := 0; i < nGlobal; i++ {
		t, ok := s.sample(rng)
		if !ok {
			continue
		}
		c := placingCost(transformedBBox(item.Shape, t.Compose()))
		if found && c >= bestCost {
			continue
		}
		if l.Collides(item, t, nil) {
			continue
		}
		best, bestCost, found = t, c, true
	}
	if !found {
		return geometry.DTransformation{}, false
	}
	best, _ = localSearch(l, item, best, bestCost, nLS, rng)
	return best, true
}

// solution converts a packing into its reported form.
func (o *Optimizer) solution(in *model.Instance, p *packing, runtime time.Duration) *model.Solution {
	sol := &model.Solution{
		ID:          uuid.New().String()[:8],
		Instance:    in.Name,
		StripLength: p.stripLength,
		Queries:     p.queries,
		Runtime:     runtime,
		CreatedAt:   time.Now(),
	}
	var usedArea float64
	for _, l := range p.layouts {
		ls := l.Snapshot()
		if in.Strip != nil {
			ls.Width = p.stripLength
			if p.stripLength > 0 {
				ls.Density = l.Density() * l.Bin.Area() / (p.stripLength * in.Strip.Height)
			}
			usedArea += p.stripLength * in.Strip.Height
		} else {
			usedArea += l.Bin.Area()
			sol.BinCost += l.Bin.Cost
		}
		sol.Layouts = append(sol.Layouts, ls)
	}
	if usedArea > 0 {
		sol.Density = p.placedArea() / usedArea
	}
	sol.Unplaced = groupUnplaced(p.unplaced)
	return sol
}

// groupUnplaced counts unplaced copies per item, in first-seen order.
func groupUnplaced(items []*model.Item) []model.UnplacedItem {
	var out []model.UnplacedItem
	index := make(map[string]int)
	for _, it := range items {
		if i, ok := index[it.ID]; ok {
			out[i].Count++
			continue
		}
		index[it.ID] = len(out)
		out = append(out, model.UnplacedItem{ItemID: it.ID, Label: it.Label, Count: 1})
	}
	return out
}
