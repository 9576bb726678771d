package engine

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGA(t *testing.T, in *model.Instance) *geneticOptimizer {
	t.Helper()
	return newGeneticOptimizer(newTestOptimizer(testConfig()), in)
}

func isPermutation(genes []int) bool {
	cp := append([]int(nil), genes...)
	sort.Ints(cp)
	for i, g := range cp {
		if g != i {
			return false
		}
	}
	return true
}

func TestOrderCrossover_KeepsPermutation(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 1, 1, 8))
	g := newTestGA(t, in)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		p1 := chromosome{genes: rng.Perm(8)}
		p2 := chromosome{genes: rng.Perm(8)}
		child := g.orderCrossover(p1, p2)
		assert.True(t, isPermutation(child.genes), "child %v", child.genes)
	}
}

func TestMutate_KeepsPermutation(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 1, 1, 6))
	g := newTestGA(t, in)
	g.config.MutationRate = 1

	c := chromosome{genes: []int{0, 1, 2, 3, 4, 5}}
	for i := 0; i < 20; i++ {
		g.mutate(&c)
		assert.True(t, isPermutation(c.genes))
	}
}

func TestGreedyChromosome(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "small", 1, 1, 1), rectItem(t, "big", 2, 2, 1))
	g := newTestGA(t, in)
	c := g.greedyChromosome()
	assert.Equal(t, []int{1, 0}, c.genes)
}

func TestTournamentSelect_PrefersFitter(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 1, 1, 2))
	g := newTestGA(t, in)
	g.config.TournamentSize = 10
	pop := []chromosome{
		{genes: []int{0, 1}, fitness: 0.1},
		{genes: []int{1, 0}, fitness: 0.9},
	}
	best := g.tournamentSelect(pop)
	assert.Equal(t, 0.9, best.fitness)
}

func TestFitness_PenalizesUnplaced(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 4, 2, 1))
	g := newTestGA(t, in)
	opt := newTestOptimizer(testConfig())

	full, err := opt.pack(context.Background(), in, expand(in), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	f := g.fitness(full)
	assert.InDelta(t, 0.08, f, 1e-9)

	full.unplaced = append(full.unplaced, in.Items[0])
	assert.Equal(t, 0.0, g.fitness(full))
}

func TestOptimizeOrder(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 4, 2, 3), rectItem(t, "b", 2, 2, 3))
	sol, err := newTestOptimizer(testConfig()).OptimizeOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 6, sol.PlacedCount())

	violations, err := Validate(sol, in, testConfig().CDE)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestOptimizeOrder_Deterministic(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 4, 2, 2), rectItem(t, "b", 2, 2, 2))
	opt := newTestOptimizer(testConfig())
	s1, err := opt.OptimizeOrder(context.Background(), in)
	require.NoError(t, err)
	s2, err := opt.OptimizeOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, s1.Density, s2.Density)
	assert.Equal(t, s1.Layouts[0].Placements[0].Transform, s2.Layouts[0].Placements[0].Transform)
}

func TestBuildDefaultScenarios(t *testing.T) {
	base := testConfig()
	scenarios := BuildDefaultScenarios(base)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
		assert.NoError(t, s.Config.Validate(), s.Name)
	}
	assert.Equal(t, []string{
		"Current Settings",
		"Genetic Algorithm",
		"No Fail-Fast Surrogate",
		"Quadtree Depth 1",
		"Quadtree Depth 5",
		"Proximity Sampler",
	}, names)
}

func TestCompareScenarios(t *testing.T) {
	in := binInstance(t, 1, rectItem(t, "a", 4, 2, 2))
	base := testConfig()
	noFF := base
	noFF.CDE.ItemSurrogate.NFFPoles = 0
	noFF.CDE.ItemSurrogate.NFFPiers = 0

	results, err := CompareScenarios(context.Background(), []ComparisonScenario{
		{Name: "base", Config: base},
		{Name: "no ff", Config: noFF},
	}, in, WithLogger(newTestOptimizer(base).log))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 1, r.LayoutsUsed)
		assert.Equal(t, 0, r.UnplacedCount)
		assert.Positive(t, r.Queries.Queries)
		assert.InDelta(t, 0.16, r.Density, 1e-9)
	}
	assert.Equal(t, "no ff", results[1].Scenario.Name)
}
