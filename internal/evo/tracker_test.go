package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"cellevo/internal/model"
)

func trackerState(t *testing.T, size int) *model.EvolutionState {
	t.Helper()
	rng := rand.New(rand.NewSource(31))
	cfg := model.DefaultRunConfig()
	cfg.PopulationSize = size
	state := &model.EvolutionState{RunID: "t", Config: cfg}
	for i := 0; i < size; i++ {
		state.Population = append(state.Population, model.NewIndividual(model.NewRandomRule(rng)))
	}
	return state
}

func TestBestTrackerMonotonic(t *testing.T) {
	state := trackerState(t, 4)
	tracker := TrackBest(state)

	require.True(t, tracker.Observe(10))
	require.Equal(t, 10.0, state.Best.AverageFitness)

	// Equal average does not replace the checkpoint.
	require.False(t, tracker.Observe(10))
	// Lower average does not replace it either.
	require.False(t, tracker.Observe(3))
	require.Equal(t, 10.0, state.Best.AverageFitness)

	require.True(t, tracker.Observe(10.5))
	require.Equal(t, 10.5, state.Best.AverageFitness)
}

func TestBestTrackerSnapshotsWholePopulation(t *testing.T) {
	state := trackerState(t, 4)
	tracker := TrackBest(state)
	require.True(t, tracker.Observe(5))
	require.Len(t, state.Best.Population, 4)

	// Mutating the live population must not leak into the snapshot.
	before := state.Best.Population[0].Rule.Clone()
	state.Population[0].Rule[0] ^= 1
	require.Equal(t, before, state.Best.Population[0].Rule)
}

func TestBestTrackerRestore(t *testing.T) {
	state := trackerState(t, 4)
	tracker := TrackBest(state)

	require.False(t, tracker.Restore(), "restore without a checkpoint must be a no-op")

	require.True(t, tracker.Observe(5))
	checkpointed := model.ClonePopulation(state.Best.Population)

	state.Population[0].Rule[0] ^= 1
	state.Population[2].Rule[100] ^= 1

	require.True(t, tracker.Restore())
	require.Equal(t, checkpointed, state.Population)
}
