package engine

import (
	"context"
	"math/rand"
	"runtime"
	"sort"

	"github.com/piwi3910/SlabNest/internal/model"
	"golang.org/x/sync/errgroup"
)

// chromosome is an ordering of item copies. Each copy is decoded with the
// left-bottom-fill heuristic in this order.
type chromosome struct {
	genes     []int // Indices into the expanded copies slice
	fitness   float64
	packing   *packing
	evaluated bool
}

// geneticOptimizer searches over insertion orders. Decoding builds fresh
// layouts per chromosome, so a population is evaluated in parallel.
type geneticOptimizer struct {
	opt    *Optimizer
	in     *model.Instance
	config model.GeneticConfig
	copies []*model.Item
	rng    *rand.Rand
	seed   int64
}

func newGeneticOptimizer(o *Optimizer, in *model.Instance) *geneticOptimizer {
	cfg := o.Config.Genetic
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &geneticOptimizer{
		opt:    o,
		in:     in,
		config: cfg,
		copies: expand(in),
		rng:    rand.New(rand.NewSource(o.Config.Seed)),
		seed:   o.Config.Seed,
	}
}

// OptimizeOrder runs the genetic search over item orders and returns the
// best solution it decoded.
func (o *Optimizer) OptimizeOrder(ctx context.Context, in *model.Instance) (*model.Solution, error) {
	cfg := o.Config
	cfg.Algorithm = model.AlgorithmGenetic
	return New(cfg, WithLogger(o.log)).Solve(ctx, in)
}

func (o *Optimizer) optimizeOrder(ctx context.Context, in *model.Instance) (*packing, error) {
	ctx, span := tracer().Start(ctx, "Optimizer.OptimizeOrder")
	defer span.End()
	return newGeneticOptimizer(o, in).optimize(ctx)
}

// optimize runs the genetic algorithm and returns the best packing.
func (g *geneticOptimizer) optimize(ctx context.Context) (*packing, error) {
	population := g.initPopulation()
	if err := g.evaluateAll(ctx, population, 0); err != nil {
		return nil, err
	}

	for gen := 1; gen <= g.config.Generations; gen++ {
		sortByFitness(population)
		g.opt.log.Debug("generation", "gen", gen, "best_fitness", population[0].fitness,
			"unplaced", len(population[0].packing.unplaced))

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := min(g.config.EliteCount, len(population))
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, population[i])
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)
			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)
			newPop = append(newPop, child)
		}

		if err := g.evaluateAll(ctx, newPop, gen); err != nil {
			return nil, err
		}
		population = newPop
	}

	sortByFitness(population)
	return population[0].packing, nil
}

func sortByFitness(population []chromosome) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

// initPopulation creates random orders plus the greedy largest-first order.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.copies)
	population := make([]chromosome, g.config.PopulationSize)
	for i := range population {
		population[i] = chromosome{genes: g.rng.Perm(n)}
	}
	if len(population) > 0 {
		population[0] = g.greedyChromosome()
	}
	return population
}

// greedyChromosome orders copies by area descending.
func (g *geneticOptimizer) greedyChromosome() chromosome {
	genes := make([]int, len(g.copies))
	for i := range genes {
		genes[i] = i
	}
	sort.SliceStable(genes, func(i, j int) bool {
		return g.copies[genes[i]].Area() > g.copies[genes[j]].Area()
	})
	return chromosome{genes: genes}
}

// evaluateAll decodes every chromosome not yet evaluated. Each decode gets
// its own seed derived from the generation and slot, so results do not
// depend on scheduling.
func (g *geneticOptimizer) evaluateAll(ctx context.Context, population []chromosome, gen int) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Workers)
	for i := range population {
		if population[i].evaluated {
			continue
		}
		c := &population[i]
		seed := g.seed + int64(gen*len(population)+i)
		eg.Go(func() error {
			p, err := g.opt.pack(ctx, g.in, g.decodeOrder(c.genes), rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}
			c.packing = p
			c.fitness = g.fitness(p)
			c.evaluated = true
			return nil
		})
	}
	return eg.Wait()
}

func (g *geneticOptimizer) decodeOrder(genes []int) []*model.Item {
	out := make([]*model.Item, len(genes))
	for i, idx := range genes {
		out[i] = g.copies[idx]
	}
	return out
}

// fitness measures material efficiency, penalizing unplaced copies and
// every bin beyond the first.
func (g *geneticOptimizer) fitness(p *packing) float64 {
	var used float64
	if g.in.Strip != nil {
		used = p.stripLength * g.in.Strip.Height
	} else {
		for _, l := range p.layouts {
			used += l.Bin.Area()
		}
	}
	if used <= 0 {
		return 0
	}
	efficiency := p.placedArea() / used

	unplacedPenalty := float64(len(p.unplaced)) * 0.1
	binPenalty := 0.0
	if len(p.layouts) > 1 {
		binPenalty = float64(len(p.layouts)-1) * 0.05
	}

	return max(efficiency-unplacedPenalty-binPenalty, 0)
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return best
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return chromosome{genes: append([]int(nil), parent1.genes...)}
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]int, n)}
	inSegment := make(map[int]bool)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i]] = true
	}

	// Fill remaining positions with genes from parent2 in order
	childIdx := (point2 + 1) % n
	for _, pg := range parent2.genes {
		if !inSegment[pg] {
			child.genes[childIdx] = pg
			childIdx = (childIdx + 1) % n
		}
	}
	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	// Inversion mutation: reverse a small segment (less frequent)
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}
