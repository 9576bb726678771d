package model

import (
	"fmt"

	"github.com/piwi3910/SlabNest/internal/cde"
)

// Algorithm represents the optimizer algorithm to use.
type Algorithm string

const (
	AlgorithmLBF     Algorithm = "lbf"     // Left-bottom-fill constructive heuristic (fast)
	AlgorithmGenetic Algorithm = "genetic" // Genetic search over the item order (slower, often better)
)

// SamplerKind selects how candidate positions are drawn.
type SamplerKind string

const (
	SamplerUniform   SamplerKind = "uniform"   // Uniform over the bin bounding box
	SamplerProximity SamplerKind = "proximity" // Biased towards proximity grid cells with enough clearance
)

// GeneticConfig holds parameters for the genetic algorithm optimizer.
type GeneticConfig struct {
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Generations    int     `json:"generations" yaml:"generations"`
	MutationRate   float64 `json:"mutation_rate" yaml:"mutation_rate"`
	TournamentSize int     `json:"tournament_size" yaml:"tournament_size"`
	EliteCount     int     `json:"elite_count" yaml:"elite_count"`
	Workers        int     `json:"workers" yaml:"workers"` // 0 = one per CPU
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 20,
		Generations:    15,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// Config holds the CDE and optimizer configuration.
type Config struct {
	CDE               cde.Config    `json:"cde_config" yaml:"cde_config"`
	Algorithm         Algorithm     `json:"algorithm" yaml:"algorithm"`
	Sampler           SamplerKind   `json:"sampler" yaml:"sampler"`
	Seed              int64         `json:"seed" yaml:"seed"`
	NSamplesPerItem   int           `json:"n_samples_per_item" yaml:"n_samples_per_item"`
	LSSamplesFraction float64       `json:"ls_samples_fraction" yaml:"ls_samples_fraction"` // Share of samples spent on local search
	Genetic           GeneticConfig `json:"genetic" yaml:"genetic"`
	Log               LogConfig     `json:"log" yaml:"log"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		CDE:               cde.DefaultConfig(),
		Algorithm:         AlgorithmLBF,
		Sampler:           SamplerUniform,
		Seed:              42,
		NSamplesPerItem:   5000,
		LSSamplesFraction: 0.2,
		Genetic:           DefaultGeneticConfig(),
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if err := c.CDE.Validate(); err != nil {
		return err
	}
	switch c.Algorithm {
	case AlgorithmLBF, AlgorithmGenetic:
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}
	switch c.Sampler {
	case SamplerUniform, SamplerProximity:
	default:
		return fmt.Errorf("unknown sampler %q", c.Sampler)
	}
	if c.Sampler == SamplerProximity && !c.CDE.HazProx.Enabled {
		return fmt.Errorf("sampler %q needs the proximity grid enabled", c.Sampler)
	}
	if c.NSamplesPerItem <= 0 {
		return fmt.Errorf("n_samples_per_item must be positive, got %d", c.NSamplesPerItem)
	}
	if c.LSSamplesFraction < 0 || c.LSSamplesFraction > 1 {
		return fmt.Errorf("ls_samples_fraction %g out of range [0, 1]", c.LSSamplesFraction)
	}
	if c.Algorithm == AlgorithmGenetic && c.Genetic.PopulationSize < 2 {
		return fmt.Errorf("genetic population size must be at least 2, got %d", c.Genetic.PopulationSize)
	}
	return nil
}
