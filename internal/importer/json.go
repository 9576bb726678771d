package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/model"
)

// jsonInstance is the interchange format used by nesting benchmark sets:
// items and either objects (bins) or a strip.
type jsonInstance struct {
	Name    string     `json:"Name"`
	Items   []jsonItem `json:"Items"`
	Objects []jsonBin  `json:"Objects,omitempty"`
	Strip   *jsonStrip `json:"Strip,omitempty"`
}

type jsonItem struct {
	Demand int `json:"Demand"`
	// Absent means any angle; [0] or [] means fixed.
	AllowedOrientations *[]float64 `json:"AllowedOrientations,omitempty"`
	Shape               jsonShape  `json:"Shape"`
	Zones               []jsonZone `json:"Zones,omitempty"`
	Value               float64    `json:"Value,omitempty"`
	BaseQuality         *int       `json:"BaseQuality,omitempty"`
}

type jsonBin struct {
	Cost  float64    `json:"Cost"`
	Stock int        `json:"Stock"`
	Shape jsonShape  `json:"Shape"`
	Zones []jsonZone `json:"Zones,omitempty"`
}

type jsonShape struct {
	Outer [][2]float64   `json:"Outer"`
	Inner [][][2]float64 `json:"Inner,omitempty"`
}

type jsonZone struct {
	Quality int       `json:"Quality"`
	Shape   jsonShape `json:"Shape"`
}

type jsonStrip struct {
	Height float64 `json:"Height"`
}

// LoadInstance reads a JSON instance file. See ParseInstance.
func LoadInstance(path string, cfg geometry.SPSurrogateConfig) (*model.Instance, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening instance: %w", err)
	}
	defer f.Close()
	return ParseInstance(f, cfg)
}

// ParseInstance decodes a JSON instance. Items and bins get their index as
// ID so solutions can be checked against a fresh load of the same file.
// Item holes and item zones are not supported; they are dropped with a
// warning. Zones with holes are rejected.
func ParseInstance(r io.Reader, cfg geometry.SPSurrogateConfig) (*model.Instance, []string, error) {
	var raw jsonInstance
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decoding instance: %w", err)
	}

	var warnings []string
	in := &model.Instance{Name: raw.Name}
	if raw.Strip != nil {
		in.Strip = &model.Strip{Height: raw.Strip.Height}
	}

	for i, ji := range raw.Items {
		label := fmt.Sprintf("item_%d", i)
		if len(ji.Shape.Inner) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: dropped %d holes", label, len(ji.Shape.Inner)))
		}
		if len(ji.Zones) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: ignored %d item quality zones", label, len(ji.Zones)))
		}
		opts := model.ItemOptions{
			Value:           ji.Value,
			AllowedRotation: orientations(ji.AllowedOrientations),
			BaseQuality:     ji.BaseQuality,
		}
		it, err := model.NewItem(label, toPoints(ji.Shape.Outer), ji.Demand, opts, cfg)
		if err != nil {
			return nil, warnings, err
		}
		it.ID = strconv.Itoa(i)
		in.Items = append(in.Items, it)
	}

	for i, jb := range raw.Objects {
		b, err := buildBin(fmt.Sprintf("bin_%d", i), jb)
		if err != nil {
			return nil, warnings, err
		}
		b.ID = strconv.Itoa(i)
		in.Bins = append(in.Bins, b)
	}

	if err := in.Validate(); err != nil {
		return nil, warnings, err
	}
	return in, warnings, nil
}

func buildBin(label string, jb jsonBin) (*model.Bin, error) {
	outer, err := geometry.NewSimplePolygon(toPoints(jb.Shape.Outer))
	if err != nil {
		return nil, fmt.Errorf("%s outline: %w", label, err)
	}
	holes := make([]*geometry.SimplePolygon, 0, len(jb.Shape.Inner))
	for k, h := range jb.Shape.Inner {
		sp, err := geometry.NewSimplePolygon(toPoints(h))
		if err != nil {
			return nil, fmt.Errorf("%s hole %d: %w", label, k, err)
		}
		holes = append(holes, sp)
	}
	zones := make([]model.QualityZone, 0, len(jb.Zones))
	for k, z := range jb.Zones {
		if len(z.Shape.Inner) > 0 {
			return nil, fmt.Errorf("%s zone %d: zones with holes are not supported: %w", label, k, model.ErrInvalidBin)
		}
		sp, err := geometry.NewSimplePolygon(toPoints(z.Shape.Outer))
		if err != nil {
			return nil, fmt.Errorf("%s zone %d: %w", label, k, err)
		}
		zones = append(zones, model.QualityZone{Quality: z.Quality, Shape: sp})
	}
	return model.NewBin(label, outer, holes, zones, jb.Cost, jb.Stock)
}

func orientations(o *[]float64) model.AllowedRotation {
	if o == nil {
		return model.ContinuousRotation()
	}
	return model.DiscreteRotation(*o...)
}

func toPoints(raw [][2]float64) []geometry.Point {
	pts := make([]geometry.Point, len(raw))
	for i, p := range raw {
		pts[i] = geometry.Point{X: p[0], Y: p[1]}
	}
	return pts
}
