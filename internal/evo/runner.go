package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"cellevo/internal/ca"
	"cellevo/internal/fitness"
	"cellevo/internal/model"
)

// initialFillProbability is the Bernoulli parameter for fresh random starting
// grids.
const initialFillProbability = 0.5

// EpochRunner orchestrates one generation: it simulates and scores every
// individual, records statistics, updates the best checkpoint, and invokes
// the breeder. It owns no population state of its own; the caller passes the
// EvolutionState explicitly.
type EpochRunner struct {
	evaluator fitness.Evaluator
	breeder   *Breeder
	workers   int
}

// NewEpochRunner wires an evaluator and a breeder for the given run
// configuration. The configuration must already be validated.
func NewEpochRunner(cfg model.RunConfig, evaluator fitness.Evaluator, breeder *Breeder) (*EpochRunner, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("fitness evaluator is required")
	}
	if breeder == nil {
		return nil, fmt.Errorf("breeder is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &EpochRunner{evaluator: evaluator, breeder: breeder, workers: workers}, nil
}

// Breeder exposes the runner's breeder for mid-run mutation adjustments.
func (r *EpochRunner) Breeder() *Breeder { return r.breeder }

// RunEpoch advances the state by exactly one generation. On return the state
// holds the already-bred next population, and the returned record describes
// the generation that was just scored. Persisted generations are therefore
// always self-consistent: interrupting between epochs loses nothing.
func (r *EpochRunner) RunEpoch(ctx context.Context, state *model.EvolutionState) (model.EpochRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.EpochRecord{}, err
	}

	scores, err := r.evaluatePopulation(ctx, state)
	if err != nil {
		return model.EpochRecord{}, err
	}
	// Full barrier: every individual is scored before any selection state is
	// touched.
	for i := range state.Population {
		state.Population[i].Fitness = scores[i]
	}

	record := summarizeEpoch(state.Generation+1, scores)
	state.History = append(state.History, record)
	TrackBest(state).Observe(record.Average)

	next, err := r.breeder.NextGeneration(state.Population)
	if err != nil {
		return model.EpochRecord{}, err
	}
	state.Population = next
	state.Generation++
	return record, nil
}

// evaluatePopulation fans the simulate-then-score step out across workers.
// Each worker receives its own rule copy and grid parameters, and every
// fitness result lands in a distinct slot of the result vector. Evaluation is
// deterministic per (run seed, generation, slot), independent of worker
// scheduling.
func (r *EpochRunner) evaluatePopulation(ctx context.Context, state *model.EvolutionState) ([]float64, error) {
	type job struct {
		idx  int
		rule model.Rule
	}
	type result struct {
		idx   int
		score float64
		err   error
	}

	cfg := state.Config
	jobs := make(chan job)
	results := make(chan result, len(state.Population))

	workerCount := r.workers
	if workerCount > len(state.Population) {
		workerCount = len(state.Population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				score, err := r.evaluateRule(cfg, state.Generation, j.idx, j.rule)
				results <- result{idx: j.idx, score: score, err: err}
			}
		}()
	}

	for i := range state.Population {
		jobs <- job{idx: i, rule: state.Population[i].Rule.Clone()}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scores := make([]float64, len(state.Population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scores[res.idx] = res.score
	}
	return scores, nil
}

// evaluateRule builds a fresh random starting grid, runs the configured
// iteration count, and scores the closing window of grids.
func (r *EpochRunner) evaluateRule(cfg model.RunConfig, generation, idx int, rule model.Rule) (float64, error) {
	grid, err := ca.NewGrid(cfg.GridWidth, cfg.GridHeight)
	if err != nil {
		return 0, err
	}
	rng := rand.New(rand.NewSource(evalSeed(cfg.Seed, generation, idx)))
	grid.Randomize(rng, initialFillProbability)

	window := cfg.Fitness.ScoreWindow
	if window < 1 {
		window = 1
	}
	tail := ca.RunTail(grid, rule, cfg.Iterations, window)
	return fitness.ScoreTail(r.evaluator, tail), nil
}

// evalSeed derives a per-individual random stream from the run seed so
// evaluation does not depend on worker scheduling order.
func evalSeed(base int64, generation, idx int) int64 {
	h := base
	h = h*1000003 + int64(generation)
	h = h*1000003 + int64(idx)
	return h
}

func summarizeEpoch(generation int, scores []float64) model.EpochRecord {
	record := model.EpochRecord{
		Generation: generation,
		Fitness:    append([]float64(nil), scores...),
	}
	if len(scores) == 0 {
		return record
	}
	total := 0.0
	record.Best = scores[0]
	record.Min = scores[0]
	for _, s := range scores {
		total += s
		if s > record.Best {
			record.Best = s
		}
		if s < record.Min {
			record.Min = s
		}
	}
	record.Average = total / float64(len(scores))
	return record
}
