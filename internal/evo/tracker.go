package evo

import "cellevo/internal/model"

// BestTracker maintains the best-ever population snapshot inside an
// EvolutionState. The checkpoint is monotonic: it is replaced only when a
// generation's average fitness strictly exceeds the recorded best average,
// and it snapshots the entire current population, not just one individual.
type BestTracker struct {
	state *model.EvolutionState
}

func TrackBest(state *model.EvolutionState) *BestTracker {
	return &BestTracker{state: state}
}

// Observe offers the current population with its average fitness and reports
// whether it became the new checkpoint.
func (t *BestTracker) Observe(average float64) bool {
	if t.state.Best != nil && average <= t.state.Best.AverageFitness {
		return false
	}
	t.state.Best = &model.BestCheckpoint{
		Population:     model.ClonePopulation(t.state.Population),
		AverageFitness: average,
	}
	return true
}

// Restore replaces the current population with the checkpoint snapshot.
// It reports false when no checkpoint has been recorded yet.
func (t *BestTracker) Restore() bool {
	if t.state.Best == nil {
		return false
	}
	t.state.Population = model.ClonePopulation(t.state.Best.Population)
	return true
}
