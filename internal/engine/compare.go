package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/SlabNest/internal/model"
)

// ComparisonScenario defines a named configuration to compare.
type ComparisonScenario struct {
	Name   string
	Config model.Config
}

// ComparisonResult holds the solution and computed statistics for a single
// scenario.
type ComparisonResult struct {
	Scenario            ComparisonScenario
	Solution            *model.Solution
	LayoutsUsed         int
	Density             float64
	UnplacedCount       int
	Queries             model.QueryStats
	SurrogateRejectRate float64
}

// CompareScenarios solves in once per scenario and returns the results in
// scenario order. Scenarios that change the item surrogate settings get
// their own copy of the items.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, in *model.Instance, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		inst := in.WithSurrogates(scenario.Config.CDE.ItemSurrogate)
		sol, err := New(scenario.Config, opts...).Solve(ctx, inst)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		results = append(results, ComparisonResult{
			Scenario:            scenario,
			Solution:            sol,
			LayoutsUsed:         len(sol.Layouts),
			Density:             sol.Density,
			UnplacedCount:       sol.UnplacedCount(),
			Queries:             sol.Queries,
			SurrogateRejectRate: sol.Queries.SurrogateRejectRate(),
		})
	}
	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current configuration, varying the collision detection settings to show
// their effect on speed and quality.
func BuildDefaultScenarios(base model.Config) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Config: base},
	}

	// Scenario: Try the other algorithm
	alt := base
	if base.Algorithm == model.AlgorithmGenetic {
		alt.Algorithm = model.AlgorithmLBF
		scenarios = append(scenarios, ComparisonScenario{Name: "Left-Bottom-Fill", Config: alt})
	} else {
		alt.Algorithm = model.AlgorithmGenetic
		scenarios = append(scenarios, ComparisonScenario{Name: "Genetic Algorithm", Config: alt})
	}

	// Scenario: No fail-fast surrogate checks
	noFF := base
	noFF.CDE.ItemSurrogate.NFFPoles = 0
	noFF.CDE.ItemSurrogate.NFFPiers = 0
	scenarios = append(scenarios, ComparisonScenario{Name: "No Fail-Fast Surrogate", Config: noFF})

	// Scenario: Shallower and deeper quadtrees
	if base.CDE.QuadTree.MaxDepth > 1 {
		shallow := base
		shallow.CDE.QuadTree.MaxDepth = base.CDE.QuadTree.MaxDepth / 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Quadtree Depth %d", shallow.CDE.QuadTree.MaxDepth),
			Config: shallow,
		})
	}
	deep := base
	deep.CDE.QuadTree.MaxDepth = min(base.CDE.QuadTree.MaxDepth+2, 16)
	if deep.CDE.QuadTree.MaxDepth != base.CDE.QuadTree.MaxDepth {
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Quadtree Depth %d", deep.CDE.QuadTree.MaxDepth),
			Config: deep,
		})
	}

	// Scenario: Proximity-guided sampling
	if base.Sampler != model.SamplerProximity {
		prox := base
		prox.Sampler = model.SamplerProximity
		prox.CDE.HazProx.Enabled = true
		if prox.CDE.HazProx.NCells <= 0 {
			prox.CDE.HazProx.NCells = 10000
		}
		scenarios = append(scenarios, ComparisonScenario{Name: "Proximity Sampler", Config: prox})
	}

	return scenarios
}
