package stats

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cellevo/internal/model"
)

func exportState(t *testing.T, runID string) model.EvolutionState {
	t.Helper()
	rng := rand.New(rand.NewSource(61))
	cfg := model.DefaultRunConfig()
	cfg.PopulationSize = 4
	state := model.EvolutionState{
		RunID:      runID,
		Generation: 5,
		Config:     cfg,
		History: []model.EpochRecord{
			{Generation: 1, Fitness: []float64{1, 2, 3, 4}, Average: 2.5, Best: 4, Min: 1},
		},
	}
	for i := 0; i < 4; i++ {
		state.Population = append(state.Population, model.NewIndividual(model.NewRandomRule(rng)))
	}
	state.Best = &model.BestCheckpoint{
		Population:     model.ClonePopulation(state.Population),
		AverageFitness: 2.5,
	}
	return state
}

func TestWriteRunArtifacts(t *testing.T) {
	base := t.TempDir()
	state := exportState(t, "run-export")

	runDir, err := WriteRunArtifacts(base, RunArtifacts{State: state})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "run-export"), runDir)

	for _, name := range []string{"config.json", "history.json", "population.json", "best_checkpoint.json"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		require.NoErrorf(t, err, "missing artifact %s", name)
	}

	var history []model.EpochRecord
	data, err := os.ReadFile(filepath.Join(runDir, "history.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &history))
	require.Equal(t, state.History, history)

	index, err := ListRunIndex(base)
	require.NoError(t, err)
	require.Len(t, index, 1)
	require.Equal(t, "run-export", index[0].RunID)
	require.Equal(t, 5, index[0].Generation)
	require.Equal(t, 4, index[0].PopulationSize)
	require.Equal(t, 2.5, index[0].BestAverage)
}

func TestWriteRunArtifactsWithoutCheckpoint(t *testing.T) {
	base := t.TempDir()
	state := exportState(t, "run-nobest")
	state.Best = nil

	runDir, err := WriteRunArtifacts(base, RunArtifacts{State: state})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(runDir, "best_checkpoint.json"))
	require.True(t, os.IsNotExist(err))
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	_, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{})
	require.Error(t, err)
}

func TestAppendRunIndexUpsertsAndSorts(t *testing.T) {
	base := t.TempDir()

	require.NoError(t, AppendRunIndex(base, RunIndexEntry{RunID: "zeta", Generation: 1}))
	require.NoError(t, AppendRunIndex(base, RunIndexEntry{RunID: "alpha", Generation: 1}))
	require.NoError(t, AppendRunIndex(base, RunIndexEntry{RunID: "zeta", Generation: 9}))

	index, err := ListRunIndex(base)
	require.NoError(t, err)
	require.Len(t, index, 2)
	require.Equal(t, "alpha", index[0].RunID)
	require.Equal(t, "zeta", index[1].RunID)
	require.Equal(t, 9, index[1].Generation)
}

func TestListRunIndexMissingIsEmpty(t *testing.T) {
	index, err := ListRunIndex(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, index)
}
