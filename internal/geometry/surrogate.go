package geometry

import (
	"math"
	"sort"
)

// pierLines is the number of probe lines cast per axis when searching for piers.
const pierLines = 10

// SPSurrogateConfig controls how the surrogate of a simple polygon is built.
type SPSurrogateConfig struct {
	PoleCoverageGoal float64 `json:"pole_coverage_goal" yaml:"pole_coverage_goal"`
	MaxPoles         int     `json:"max_poles" yaml:"max_poles"`
	NFFPoles         int     `json:"n_ff_poles" yaml:"n_ff_poles"`
	NFFPiers         int     `json:"n_ff_piers" yaml:"n_ff_piers"`
}

// DefaultSPSurrogateConfig returns the configuration used by the default solver.
func DefaultSPSurrogateConfig() SPSurrogateConfig {
	return SPSurrogateConfig{
		PoleCoverageGoal: 0.9,
		MaxPoles:         10,
		NFFPoles:         1,
		NFFPiers:         1,
	}
}

// Surrogate is an inner approximation of a polygon: disjoint inscribed
// circles (poles) and axis-aligned chords (piers). Every pole and pier lies
// inside the closed polygon, so any of them overlapping a forbidden region
// proves the polygon overlaps it too.
type Surrogate struct {
	// Poles in descending radius order.
	Poles []Circle `json:"poles"`
	// Piers in descending length order.
	Piers []Edge `json:"piers"`
	// NFFPoles is the number of leading poles tested before the piers are done.
	NFFPoles int `json:"n_ff_poles"`
	// PoleCoverage is the fraction of the polygon area covered by poles.
	PoleCoverage float64 `json:"pole_coverage"`
}

// NewSurrogate builds the surrogate of sp.
func NewSurrogate(sp *SimplePolygon, cfg SPSurrogateConfig) *Surrogate {
	poles := generatePoles(sp, cfg)
	var covered float64
	for _, p := range poles {
		covered += p.Area()
	}
	s := &Surrogate{
		Poles:        poles,
		Piers:        generatePiers(sp, cfg.NFFPiers),
		NFFPoles:     min(cfg.NFFPoles, len(poles)),
		PoleCoverage: covered / sp.Area(),
	}
	return s
}

// FFPoles returns the fail-fast poles.
func (s *Surrogate) FFPoles() []Circle {
	return s.Poles[:s.NFFPoles]
}

// OtherPoles returns the poles that are not fail-fast.
func (s *Surrogate) OtherPoles() []Circle {
	return s.Poles[s.NFFPoles:]
}

// Transform returns a copy of the surrogate moved by t.
func (s *Surrogate) Transform(t Transformation) *Surrogate {
	out := &Surrogate{
		Poles:        make([]Circle, len(s.Poles)),
		Piers:        make([]Edge, len(s.Piers)),
		NFFPoles:     s.NFFPoles,
		PoleCoverage: s.PoleCoverage,
	}
	for i, p := range s.Poles {
		out.Poles[i] = p.Transform(t)
	}
	for i, p := range s.Piers {
		out.Piers[i] = p.Transform(t)
	}
	return out
}

// inset returns how far a pole or pier is pulled back from the boundary to
// absorb rounding in its construction.
func inset(sp *SimplePolygon) float64 {
	return math.Max(10*Tolerance, sp.Diameter()*1e-6)
}

func generatePoles(sp *SimplePolygon, cfg SPSurrogateConfig) []Circle {
	var poles []Circle
	goal := cfg.PoleCoverageGoal * sp.Area()
	minRadius := sp.Diameter() * 1e-3
	precision := sp.Diameter() * 1e-3
	margin := inset(sp)

	var covered float64
	for len(poles) < cfg.MaxPoles && covered < goal {
		c := poleOfInaccessibility(sp, poles, precision)
		c.Radius -= margin
		if c.Radius <= minRadius {
			break
		}
		poles = append(poles, c)
		covered += c.Area()
	}
	sort.SliceStable(poles, func(i, j int) bool { return poles[i].Radius > poles[j].Radius })
	return poles
}

func generatePiers(sp *SimplePolygon, n int) []Edge {
	if n <= 0 {
		return nil
	}
	bb := sp.BBox()
	var candidates []Edge
	for k := 0; k < pierLines; k++ {
		f := (float64(k) + 0.5) / pierLines
		candidates = append(candidates, chords(sp, bb.YMin+f*bb.Height(), true)...)
		candidates = append(candidates, chords(sp, bb.XMin+f*bb.Width(), false)...)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Length() > candidates[j].Length()
	})

	var piers []Edge
	for _, c := range candidates {
		if len(piers) == n {
			break
		}
		if SegmentEscapes(c, sp) {
			continue
		}
		piers = append(piers, c)
	}
	return piers
}

// chords returns the pieces of the horizontal line y=v (or the vertical line
// x=v) that lie inside sp, pulled back slightly at both ends.
func chords(sp *SimplePolygon, v float64, horizontal bool) []Edge {
	coord := func(p Point) (along, across float64) {
		if horizontal {
			return p.X, p.Y
		}
		return p.Y, p.X
	}
	var hits []float64
	n := sp.NumPoints()
	for i := 0; i < n; i++ {
		a1, c1 := coord(sp.points[i])
		a2, c2 := coord(sp.points[(i+1)%n])
		if (c1 > v) == (c2 > v) {
			continue
		}
		hits = append(hits, a1+(v-c1)*(a2-a1)/(c2-c1))
	}
	sort.Float64s(hits)

	margin := inset(sp)
	var out []Edge
	for i := 0; i+1 < len(hits); i += 2 {
		lo, hi := hits[i]+margin, hits[i+1]-margin
		if hi-lo <= margin {
			continue
		}
		if horizontal {
			out = append(out, Edge{Start: Point{X: lo, Y: v}, End: Point{X: hi, Y: v}})
		} else {
			out = append(out, Edge{Start: Point{X: v, Y: lo}, End: Point{X: v, Y: hi}})
		}
	}
	return out
}
