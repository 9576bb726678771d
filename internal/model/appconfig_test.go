package model

import (
	"testing"

	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, AlgorithmLBF, cfg.Algorithm)
	assert.Equal(t, 5000, cfg.NSamplesPerItem)
	assert.Equal(t, 0.2, cfg.LSSamplesFraction)
	assert.Equal(t, cde.DefaultConfig(), cfg.CDE)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown algorithm", func(c *Config) { c.Algorithm = "annealing" }},
		{"unknown sampler", func(c *Config) { c.Sampler = "grid" }},
		{"proximity sampler without grid", func(c *Config) {
			c.Sampler = SamplerProximity
			c.CDE.HazProx.Enabled = false
		}},
		{"no samples", func(c *Config) { c.NSamplesPerItem = 0 }},
		{"local search fraction", func(c *Config) { c.LSSamplesFraction = 1.5 }},
		{"tiny population", func(c *Config) {
			c.Algorithm = AlgorithmGenetic
			c.Genetic.PopulationSize = 1
		}},
		{"bad quadtree depth", func(c *Config) { c.CDE.QuadTree.MaxDepth = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigValidate_ProximitySampler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sampler = SamplerProximity
	cfg.CDE.HazProx.Enabled = true
	assert.NoError(t, cfg.Validate())
}
