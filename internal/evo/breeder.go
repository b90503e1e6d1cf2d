// Package evo implements the genetic-algorithm core: truncation selection,
// uniform crossover, gene-flip mutation, the per-generation epoch runner, and
// the best-checkpoint tracker.
package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"cellevo/internal/model"
)

// Breeder transforms a scored population into the next generation. The phase
// order per generation is fixed: selection, breeding, mutation. All phases
// allocate fresh gene storage; a surviving parent's backing slice is never
// written through.
type Breeder struct {
	rng      *rand.Rand
	ratePct  float64
	maxGenes int
}

// NewBreeder validates the mutation parameters and fixes the random source.
func NewBreeder(rng *rand.Rand, ratePct float64, maxGenes int) (*Breeder, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if ratePct <= 0 || ratePct > 100 {
		return nil, fmt.Errorf("%w: %v", model.ErrMutationRate, ratePct)
	}
	if maxGenes < 1 {
		return nil, fmt.Errorf("%w: max genes per mutation %d", model.ErrMutationRate, maxGenes)
	}
	return &Breeder{rng: rng, ratePct: ratePct, maxGenes: maxGenes}, nil
}

// SetMutation adjusts the mutation parameters between generations.
func (b *Breeder) SetMutation(ratePct float64, maxGenes int) error {
	if ratePct <= 0 || ratePct > 100 {
		return fmt.Errorf("%w: %v", model.ErrMutationRate, ratePct)
	}
	if maxGenes < 1 {
		return fmt.Errorf("%w: max genes per mutation %d", model.ErrMutationRate, maxGenes)
	}
	b.ratePct = ratePct
	b.maxGenes = maxGenes
	return nil
}

// NextGeneration runs selection, breeding, and mutation over a scored
// population and returns a same-sized population of fitness-0 individuals.
func (b *Breeder) NextGeneration(scored []model.Individual) ([]model.Individual, error) {
	if len(scored) == 0 || len(scored)%4 != 0 {
		return nil, fmt.Errorf("%w: %d", model.ErrPopulationSize, len(scored))
	}
	survivors := SelectTopHalf(scored)
	next := b.breed(survivors)
	b.mutate(next)
	return next, nil
}

// SelectTopHalf applies deterministic truncation selection: individuals sort
// by fitness descending with ties broken by original index ascending, and
// exactly the top half survives. There is no probabilistic survival.
func SelectTopHalf(scored []model.Individual) []model.Individual {
	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, c int) bool {
		return scored[order[a]].Fitness > scored[order[c]].Fitness
	})

	half := len(scored) / 2
	survivors := make([]model.Individual, half)
	for i := 0; i < half; i++ {
		survivors[i] = scored[order[i]]
	}
	return survivors
}

// breed draws distinct survivor pairs uniformly at random without replacement
// until the pool is exhausted. Each pair contributes four slots to the new
// population: both parents reinserted and two uniform-crossover children, all
// with fitness reset to 0 and freshly allocated rules.
func (b *Breeder) breed(survivors []model.Individual) []model.Individual {
	order := b.rng.Perm(len(survivors))
	next := make([]model.Individual, 0, len(survivors)*2)
	for i := 0; i+1 < len(order); i += 2 {
		p1 := survivors[order[i]]
		p2 := survivors[order[i+1]]
		c1, c2 := b.crossover(p1.Rule, p2.Rule)
		next = append(next,
			model.NewIndividual(p1.Rule.Clone()),
			model.NewIndividual(p2.Rule.Clone()),
			model.NewIndividual(c1),
			model.NewIndividual(c2),
		)
	}
	return next
}

// crossover performs uniform crossover: for every gene position a fair coin
// decides which parent feeds child1; child2 always receives the other
// parent's gene, so per position the children carry exactly the parental
// gene pair.
func (b *Breeder) crossover(p1, p2 model.Rule) (model.Rule, model.Rule) {
	c1 := make(model.Rule, len(p1))
	c2 := make(model.Rule, len(p1))
	for j := range p1 {
		if b.rng.Intn(2) == 0 {
			c1[j], c2[j] = p1[j], p2[j]
		} else {
			c1[j], c2[j] = p2[j], p1[j]
		}
	}
	return c1, c2
}

// mutate independently decides per individual, with probability ratePct%,
// whether it mutates; if so it flips between 1 and maxGenes genes, each at an
// independent uniform index. Repeated indices are allowed and intentionally
// not deduplicated: a double flip is a net no-op.
func (b *Breeder) mutate(population []model.Individual) {
	for i := range population {
		if b.rng.Float64()*100 >= b.ratePct {
			continue
		}
		mutated := population[i].Rule.Clone()
		flips := 1 + b.rng.Intn(b.maxGenes)
		for f := 0; f < flips; f++ {
			idx := b.rng.Intn(len(mutated))
			mutated[idx] ^= 1
		}
		population[i].Rule = mutated
	}
}
