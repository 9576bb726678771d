package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/piwi3910/SlabNest/internal/geometry"
)

var (
	// ErrInvalidItem is returned for items that cannot be nested.
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidBin is returned for bins whose holes or zones leave the outline.
	ErrInvalidBin = errors.New("invalid bin")
	// ErrEmptyInstance is returned for instances without items or containers.
	ErrEmptyInstance = errors.New("empty instance")
)

// RotationKind selects which rotations an item may be placed with.
type RotationKind string

const (
	RotationNone       RotationKind = "none"       // Only the original orientation
	RotationDiscrete   RotationKind = "discrete"   // A fixed list of angles
	RotationContinuous RotationKind = "continuous" // Any angle
)

// AllowedRotation describes the rotations permitted for an item.
type AllowedRotation struct {
	Kind   RotationKind `json:"kind"`
	Angles []float64    `json:"angles,omitempty"` // degrees, for RotationDiscrete
}

// FixedRotation allows only the original orientation.
func FixedRotation() AllowedRotation {
	return AllowedRotation{Kind: RotationNone}
}

// DiscreteRotation allows the given angles in degrees. A single angle of 0
// is the same as FixedRotation.
func DiscreteRotation(degrees ...float64) AllowedRotation {
	if len(degrees) == 0 || (len(degrees) == 1 && degrees[0] == 0) {
		return FixedRotation()
	}
	return AllowedRotation{Kind: RotationDiscrete, Angles: degrees}
}

// ContinuousRotation allows any angle.
func ContinuousRotation() AllowedRotation {
	return AllowedRotation{Kind: RotationContinuous}
}

// Candidates returns the allowed angles in radians. Continuous rotation
// returns nil; use Sample instead.
func (a AllowedRotation) Candidates() []float64 {
	switch a.Kind {
	case RotationDiscrete:
		out := make([]float64, len(a.Angles))
		for i, d := range a.Angles {
			out[i] = d * math.Pi / 180
		}
		return out
	case RotationContinuous:
		return nil
	}
	return []float64{0}
}

// Sample draws an allowed rotation in radians.
func (a AllowedRotation) Sample(rng *rand.Rand) float64 {
	switch a.Kind {
	case RotationDiscrete:
		if len(a.Angles) == 0 {
			return 0
		}
		return a.Angles[rng.Intn(len(a.Angles))] * math.Pi / 180
	case RotationContinuous:
		return rng.Float64() * 2 * math.Pi
	}
	return 0
}

// Item is a shape to be nested. Its shape is centered on the origin; the
// Centering transformation maps the outline as given to Shape.
type Item struct {
	ID              string                   `json:"id"`
	Label           string                   `json:"label"`
	Shape           *geometry.SimplePolygon  `json:"shape"`
	Demand          int                      `json:"demand"`
	Value           float64                  `json:"value"`
	AllowedRotation AllowedRotation          `json:"allowed_rotation"`
	BaseQuality     *int                     `json:"base_quality,omitempty"`
	Centering       geometry.DTransformation `json:"centering"`
	Surrogate       *geometry.Surrogate      `json:"-"`
}

// ItemOptions holds the optional attributes of an item.
type ItemOptions struct {
	Value           float64
	AllowedRotation AllowedRotation
	BaseQuality     *int
}

// NewItem validates outline, centers it on its bounding box and builds the
// item's surrogate.
func NewItem(label string, outline []geometry.Point, demand int, opts ItemOptions, surrogate geometry.SPSurrogateConfig) (*Item, error) {
	if demand < 0 {
		return nil, fmt.Errorf("item %q: negative demand %d: %w", label, demand, ErrInvalidItem)
	}
	raw, err := geometry.NewSimplePolygon(outline)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", label, err)
	}
	c := raw.BBox().Center()
	centering := geometry.DTransformation{Translation: geometry.Point{X: -c.X, Y: -c.Y}}
	shape := raw.Transform(centering.Compose())

	rot := opts.AllowedRotation
	if rot.Kind == "" {
		rot = FixedRotation()
	}
	return &Item{
		ID:              uuid.New().String()[:8],
		Label:           label,
		Shape:           shape,
		Demand:          demand,
		Value:           opts.Value,
		AllowedRotation: rot,
		BaseQuality:     opts.BaseQuality,
		Centering:       centering,
		Surrogate:       geometry.NewSurrogate(shape, surrogate),
	}, nil
}

// NewRectItem is a convenience constructor for rectangular items.
func NewRectItem(label string, w, h float64, demand int, opts ItemOptions, surrogate geometry.SPSurrogateConfig) (*Item, error) {
	return NewItem(label, []geometry.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}, demand, opts, surrogate)
}

// Area returns the area of the item's shape.
func (it *Item) Area() float64 {
	return it.Shape.Area()
}

// Filter returns the hazard filter an item applies to every query. An item
// with a base quality tolerates zones of that quality or better. An item
// without one tolerates no inferior zone at all.
func (it *Item) Filter() cde.HazardFilter {
	if it.BaseQuality == nil {
		return nil
	}
	return cde.QZFilter{Cutoff: *it.BaseQuality}
}

// OriginalTransform converts a transformation of the centered shape into
// one of the outline as it was given.
func (it *Item) OriginalTransform(t geometry.DTransformation) geometry.DTransformation {
	return it.Centering.Compose().Compose(t.Compose()).Decompose()
}

// CenteredTransform is the inverse of OriginalTransform.
func (it *Item) CenteredTransform(orig geometry.DTransformation) geometry.DTransformation {
	return it.Centering.Compose().Inverse().Compose(orig.Compose()).Decompose()
}

// QualityZone is a region of a bin with reduced material quality.
type QualityZone struct {
	Quality int                     `json:"quality"`
	Shape   *geometry.SimplePolygon `json:"shape"`
}

// Bin is a container items are nested into.
type Bin struct {
	ID    string                    `json:"id"`
	Label string                    `json:"label"`
	Outer *geometry.SimplePolygon   `json:"outer"`
	Holes []*geometry.SimplePolygon `json:"holes,omitempty"`
	Zones []QualityZone             `json:"zones,omitempty"`
	Cost  float64                   `json:"cost"`
	Stock int                       `json:"stock"`
}

// NewBin validates that every hole and zone lies inside outer.
func NewBin(label string, outer *geometry.SimplePolygon, holes []*geometry.SimplePolygon, zones []QualityZone, cost float64, stock int) (*Bin, error) {
	if outer == nil {
		return nil, fmt.Errorf("bin %q: missing outline: %w", label, ErrInvalidBin)
	}
	for i, h := range holes {
		if geometry.EscapesFrom(h, outer) {
			return nil, fmt.Errorf("bin %q: hole %d leaves the outline: %w", label, i, ErrInvalidBin)
		}
	}
	for i, z := range zones {
		if z.Shape == nil || geometry.EscapesFrom(z.Shape, outer) {
			return nil, fmt.Errorf("bin %q: quality zone %d leaves the outline: %w", label, i, ErrInvalidBin)
		}
	}
	if stock < 0 {
		return nil, fmt.Errorf("bin %q: negative stock %d: %w", label, stock, ErrInvalidBin)
	}
	return &Bin{
		ID:    uuid.New().String()[:8],
		Label: label,
		Outer: outer,
		Holes: holes,
		Zones: zones,
		Cost:  cost,
		Stock: stock,
	}, nil
}

// NewRectBin returns a rectangular bin with its lower left corner at the origin.
func NewRectBin(label string, w, h, cost float64, stock int) (*Bin, error) {
	outer, err := geometry.Rect(geometry.AARectangle{XMax: w, YMax: h})
	if err != nil {
		return nil, fmt.Errorf("bin %q: %w", label, err)
	}
	return NewBin(label, outer, nil, nil, cost, stock)
}

// BBox returns the bounding box of the outline.
func (b *Bin) BBox() geometry.AARectangle {
	return b.Outer.BBox()
}

// Area returns the usable area: the outline minus its holes.
func (b *Bin) Area() float64 {
	a := b.Outer.Area()
	for _, h := range b.Holes {
		a -= h.Area()
	}
	return a
}

// StaticHazards returns the hazards every layout of this bin starts with.
func (b *Bin) StaticHazards() []cde.Hazard {
	out := make([]cde.Hazard, 0, 1+len(b.Holes)+len(b.Zones))
	out = append(out, cde.NewHazard(cde.BinExterior(), b.Outer))
	for i, h := range b.Holes {
		out = append(out, cde.NewHazard(cde.BinHole(i), h))
	}
	for i, z := range b.Zones {
		out = append(out, cde.NewHazard(cde.QualityZoneInferior(z.Quality, i), z.Shape))
	}
	return out
}

// Strip is an open-ended container of fixed height.
type Strip struct {
	Height float64 `json:"height"`
}

// Instance is a complete nesting problem: items and either bins or a strip.
type Instance struct {
	Name  string  `json:"name"`
	Items []*Item `json:"items"`
	Bins  []*Bin  `json:"bins,omitempty"`
	Strip *Strip  `json:"strip,omitempty"`
}

// Validate checks that the instance can be solved.
func (in *Instance) Validate() error {
	if len(in.Items) == 0 {
		return fmt.Errorf("instance %q has no items: %w", in.Name, ErrEmptyInstance)
	}
	if len(in.Bins) == 0 && in.Strip == nil {
		return fmt.Errorf("instance %q has neither bins nor a strip: %w", in.Name, ErrEmptyInstance)
	}
	if in.Strip != nil && in.Strip.Height <= 0 {
		return fmt.Errorf("instance %q: strip height %g must be positive: %w", in.Name, in.Strip.Height, ErrEmptyInstance)
	}
	return nil
}

// TotalDemand returns the number of item copies to place.
func (in *Instance) TotalDemand() int {
	n := 0
	for _, it := range in.Items {
		n += it.Demand
	}
	return n
}

// TotalItemArea returns the area of all demanded copies.
func (in *Instance) TotalItemArea() float64 {
	var a float64
	for _, it := range in.Items {
		a += it.Area() * float64(it.Demand)
	}
	return a
}

// Item returns the item with the given id.
func (in *Instance) Item(id string) (*Item, bool) {
	for _, it := range in.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Bin returns the bin with the given id.
func (in *Instance) Bin(id string) (*Bin, bool) {
	for _, b := range in.Bins {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// StripWidthBound returns a strip width every item copy fits into when laid
// out side by side.
func (in *Instance) StripWidthBound() float64 {
	var w float64
	for _, it := range in.Items {
		w += it.Shape.Diameter() * float64(it.Demand)
	}
	return w
}

// StripBin returns the strip cut to the given width as a rectangular bin.
func (in *Instance) StripBin(width float64) (*Bin, error) {
	if in.Strip == nil {
		return nil, fmt.Errorf("instance %q has no strip: %w", in.Name, ErrEmptyInstance)
	}
	return NewRectBin("strip", width, in.Strip.Height, 0, 1)
}

// WithSurrogates returns a copy of the instance whose items carry surrogates
// built with cfg. Item ids and bins are kept.
func (in *Instance) WithSurrogates(cfg geometry.SPSurrogateConfig) *Instance {
	out := *in
	out.Items = make([]*Item, len(in.Items))
	for i, it := range in.Items {
		cp := *it
		cp.Surrogate = geometry.NewSurrogate(it.Shape, cfg)
		out.Items[i] = &cp
	}
	return &out
}
