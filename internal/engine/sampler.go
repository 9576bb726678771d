package engine

import (
	"math"
	"math/rand"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/model"
)

// xMultiplier weighs x_max over y_max in the placing cost.
const xMultiplier = 10.0

// placingCost favors placements that end furthest left, then lowest.
func placingCost(bb geometry.AARectangle) float64 {
	return bb.XMax*xMultiplier + bb.YMax
}

// transformedBBox returns the bounding box of shape placed by m without
// building the transformed polygon.
func transformedBBox(shape *geometry.SimplePolygon, m geometry.Transformation) geometry.AARectangle {
	pts := shape.Points()
	first := m.Apply(pts[0])
	bb := geometry.AARectangle{XMin: first.X, YMin: first.Y, XMax: first.X, YMax: first.Y}
	for _, p := range pts[1:] {
		q := m.Apply(p)
		bb.XMin = min(bb.XMin, q.X)
		bb.YMin = min(bb.YMin, q.Y)
		bb.XMax = max(bb.XMax, q.X)
		bb.YMax = max(bb.YMax, q.Y)
	}
	return bb
}

// sampler draws candidate transformations for one item on one layout.
type sampler interface {
	sample(rng *rand.Rand) (geometry.DTransformation, bool)
}

// rotationOption is a rotation together with the translations that keep the
// rotated bounding box inside the bin's bounding box.
type rotationOption struct {
	rotation     float64
	translations geometry.AARectangle
}

func newRotationOption(bin geometry.AARectangle, shape *geometry.SimplePolygon, rotation float64) (rotationOption, bool) {
	rb := transformedBBox(shape, geometry.Rotation(rotation))
	r := geometry.AARectangle{
		XMin: bin.XMin - rb.XMin,
		YMin: bin.YMin - rb.YMin,
		XMax: bin.XMax - rb.XMax,
		YMax: bin.YMax - rb.YMax,
	}
	return rotationOption{rotation: rotation, translations: r}, r.XMin <= r.XMax && r.YMin <= r.YMax
}

func (o rotationOption) sample(rng *rand.Rand) geometry.DTransformation {
	r := o.translations
	return geometry.DTransformation{
		Rotation: o.rotation,
		Translation: geometry.Point{
			X: r.XMin + rng.Float64()*r.Width(),
			Y: r.YMin + rng.Float64()*r.Height(),
		},
	}
}

// uniformSampler samples uniformly over the bin's bounding box, restricted to
// positions where the item's bounding box fits.
type uniformSampler struct {
	bin     geometry.AARectangle
	item    *model.Item
	options []rotationOption // nil for continuous rotation
}

func newUniformSampler(bin geometry.AARectangle, item *model.Item) *uniformSampler {
	s := &uniformSampler{bin: bin, item: item}
	if item.AllowedRotation.Kind == model.RotationContinuous {
		return s
	}
	for _, rot := range item.AllowedRotation.Candidates() {
		if o, ok := newRotationOption(bin, item.Shape, rot); ok {
			s.options = append(s.options, o)
		}
	}
	if len(s.options) == 0 {
		return nil
	}
	return s
}

func (s *uniformSampler) sample(rng *rand.Rand) (geometry.DTransformation, bool) {
	if s.item.AllowedRotation.Kind == model.RotationContinuous {
		o, ok := newRotationOption(s.bin, s.item.Shape, s.item.AllowedRotation.Sample(rng))
		if !ok {
			return geometry.DTransformation{}, false
		}
		return o.sample(rng), true
	}
	return s.options[rng.Intn(len(s.options))].sample(rng), true
}

// proximitySampler draws half of its samples from proximity grid cells
// whose clearance fits the item's largest inscribed circle and the other
// half uniformly.
type proximitySampler struct {
	uniform      *uniformSampler
	item         *model.Item
	cells        []geometry.Circle
	cellW, cellH float64
}

func newProximitySampler(l *layout.Layout, item *model.Item, uniform *uniformSampler) sampler {
	grid := l.CDE().ProximityGrid()
	if grid == nil {
		return uniform
	}
	cells := grid.CellsWithClearance(item.Shape.POI().Radius)
	if len(cells) == 0 {
		return uniform
	}
	w, h := grid.CellSize()
	return &proximitySampler{uniform: uniform, item: item, cells: cells, cellW: w, cellH: h}
}

func (s *proximitySampler) sample(rng *rand.Rand) (geometry.DTransformation, bool) {
	if rng.Intn(2) == 0 {
		return s.uniform.sample(rng)
	}
	c := s.cells[rng.Intn(len(s.cells))]
	target := geometry.Point{
		X: c.Center.X + (rng.Float64()-0.5)*s.cellW,
		Y: c.Center.Y + (rng.Float64()-0.5)*s.cellH,
	}
	rot := s.item.AllowedRotation.Sample(rng)
	poi := geometry.Rotation(rot).Apply(s.item.Shape.POI().Center)
	return geometry.DTransformation{Rotation: rot, Translation: target.Sub(poi)}, true
}

// localSearch refines best with Gaussian moves whose spread shrinks from a
// quarter of the item's diameter to a thousandth of that.
func localSearch(l *layout.Layout, item *model.Item, best geometry.DTransformation, bestCost float64, n int, rng *rand.Rand) (geometry.DTransformation, float64) {
	if n <= 0 {
		return best, bestCost
	}
	start := item.Shape.Diameter() / 4
	end := start / 1000
	continuous := item.AllowedRotation.Kind == model.RotationContinuous
	for i := 0; i < n; i++ {
		step := start * math.Pow(end/start, float64(i)/float64(n))
		cand := best
		cand.Translation.X += rng.NormFloat64() * step
		cand.Translation.Y += rng.NormFloat64() * step
		if continuous {
			cand.Rotation += rng.NormFloat64() * step / item.Shape.Diameter()
		}
		c := placingCost(transformedBBox(item.Shape, cand.Compose()))
		if c >= bestCost || l.Collides(item, cand, nil) {
			continue
		}
		best, bestCost = cand, c
	}
	return best, bestCost
}
