package cde

import (
	"fmt"

	"github.com/piwi3910/SlabNest/internal/geometry"
)

// QuadTreeConfig fixes the depth of the quadtree. Nodes are not split below
// MinNodeSize on their shortest side, even before MaxDepth is reached.
type QuadTreeConfig struct {
	MaxDepth    int     `json:"max_depth" yaml:"max_depth"`
	MinNodeSize float64 `json:"min_node_size" yaml:"min_node_size"`
}

// HazProxConfig enables the hazard proximity grid and sets its resolution.
type HazProxConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	NCells  int  `json:"n_cells" yaml:"n_cells"`
}

// Config is fixed when a CDE is built.
type Config struct {
	QuadTree      QuadTreeConfig             `json:"quadtree" yaml:"quadtree"`
	HazProx       HazProxConfig              `json:"haz_prox" yaml:"haz_prox"`
	ItemSurrogate geometry.SPSurrogateConfig `json:"item_surrogate_config" yaml:"item_surrogate_config"`
}

// DefaultConfig returns a depth-4 quadtree, a 10000 cell proximity grid and
// the default surrogate settings.
func DefaultConfig() Config {
	return Config{
		QuadTree:      QuadTreeConfig{MaxDepth: 4},
		HazProx:       HazProxConfig{Enabled: true, NCells: 10000},
		ItemSurrogate: geometry.DefaultSPSurrogateConfig(),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.QuadTree.MaxDepth < 0 || c.QuadTree.MaxDepth > 16 {
		return fmt.Errorf("quadtree max depth %d out of range [0, 16]: %w", c.QuadTree.MaxDepth, ErrInvalidConfig)
	}
	if c.QuadTree.MinNodeSize < 0 {
		return fmt.Errorf("quadtree min node size %g is negative: %w", c.QuadTree.MinNodeSize, ErrInvalidConfig)
	}
	if c.HazProx.Enabled && c.HazProx.NCells <= 0 {
		return fmt.Errorf("proximity grid needs a positive cell count, got %d: %w", c.HazProx.NCells, ErrInvalidConfig)
	}
	s := c.ItemSurrogate
	if s.PoleCoverageGoal < 0 || s.PoleCoverageGoal > 1 {
		return fmt.Errorf("pole coverage goal %g out of range [0, 1]: %w", s.PoleCoverageGoal, ErrInvalidConfig)
	}
	if s.MaxPoles < 0 || s.NFFPoles < 0 || s.NFFPiers < 0 {
		return fmt.Errorf("surrogate counts must not be negative: %w", ErrInvalidConfig)
	}
	return nil
}
