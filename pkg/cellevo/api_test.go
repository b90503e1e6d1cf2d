package cellevo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cellevo/internal/model"
	"cellevo/internal/storage"
)

func testConfig() model.RunConfig {
	cfg := model.DefaultRunConfig()
	cfg.GridWidth = 8
	cfg.GridHeight = 8
	cfg.Iterations = 4
	cfg.PopulationSize = 8
	cfg.MutationRatePct = 10
	cfg.Seed = 321
	cfg.Fitness.MinDensity = 0
	cfg.Fitness.MaxDensity = 1
	return cfg
}

func newTestSession(t *testing.T, store storage.Store, runID string) *Session {
	t.Helper()
	session, err := NewSession(context.Background(), Options{Store: store}, runID, testConfig())
	require.NoError(t, err)
	return session
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 10
	_, err := NewSession(context.Background(), Options{Store: storage.NewMemoryStore()}, "", cfg)
	require.ErrorIs(t, err, model.ErrPopulationSize)
}

func TestNewSessionAssignsRunID(t *testing.T) {
	session := newTestSession(t, storage.NewMemoryStore(), "")
	require.NotEmpty(t, session.RunID())

	named := newTestSession(t, storage.NewMemoryStore(), "my-run")
	require.Equal(t, "my-run", named.RunID())
}

func TestRunGenerationsRequiresPopulation(t *testing.T) {
	session := newTestSession(t, storage.NewMemoryStore(), "r")

	_, err := session.RunGenerations(context.Background(), 3)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = session.PopulationSummary()
	require.ErrorIs(t, err, ErrNotInitialized)

	_, _, err = session.BestIndividual()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestRunGenerationsAdvancesAndCheckpoints(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	session := newTestSession(t, store, "run-x")

	require.NoError(t, session.InitializePopulation(ctx))

	summary, err := session.RunGenerations(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Generations)
	require.Zero(t, summary.CheckpointFailures)
	require.Positive(t, summary.BestAverageFitness)

	popSummary, err := session.PopulationSummary()
	require.NoError(t, err)
	require.Equal(t, 3, popSummary.Generation)
	require.Equal(t, 8, popSummary.PopulationSize)
	require.True(t, popSummary.HasCheckpoint)

	history := session.History()
	require.Len(t, history, 3)
	for i, record := range history {
		require.Equal(t, i+1, record.Generation)
		require.Len(t, record.Fitness, 8)
	}

	// Every generation boundary persisted the state.
	persisted, found, err := store.GetState(ctx, "run-x")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 3, persisted.Generation)

	savedHistory, found, err := store.GetEpochHistory(ctx, "run-x")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, savedHistory, 3)
}

func TestResumeContinuesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := newTestSession(t, store, "run-resume")
	require.NoError(t, first.InitializePopulation(ctx))
	_, err := first.RunGenerations(ctx, 2)
	require.NoError(t, err)
	firstHistory := first.History()

	// A new session over the same store picks up where the first stopped.
	second := newTestSession(t, store, "run-resume")
	require.NoError(t, second.Resume(ctx))

	summary, err := second.PopulationSummary()
	require.NoError(t, err)
	require.Equal(t, 2, summary.Generation)
	require.Equal(t, firstHistory, second.History())

	runSummary, err := second.RunGenerations(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, runSummary.Generations)
	require.Len(t, second.History(), 3)
	require.Equal(t, 3, second.History()[2].Generation)
}

func TestResumeWithoutSnapshotInitializes(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, storage.NewMemoryStore(), "run-fresh")

	require.NoError(t, session.Resume(ctx))

	summary, err := session.PopulationSummary()
	require.NoError(t, err)
	require.Zero(t, summary.Generation)
	require.Equal(t, 8, summary.PopulationSize)
}

func TestResumeRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := newTestSession(t, store, "run-corrupt")
	require.NoError(t, first.InitializePopulation(ctx))
	_, err := first.RunGenerations(ctx, 1)
	require.NoError(t, err)

	// Truncate the persisted population behind the session's back.
	broken, found, err := store.GetState(ctx, "run-corrupt")
	require.NoError(t, err)
	require.True(t, found)
	broken.Population = broken.Population[:3]
	require.NoError(t, store.SaveState(ctx, broken))

	second := newTestSession(t, store, "run-corrupt")
	require.ErrorIs(t, second.Resume(ctx), model.ErrStateIntegrity)
}

func TestRestoreBestCheckpoint(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, storage.NewMemoryStore(), "run-best")

	require.ErrorIs(t, session.RestoreBestCheckpoint(), ErrNoCheckpoint)

	require.NoError(t, session.InitializePopulation(ctx))
	require.ErrorIs(t, session.RestoreBestCheckpoint(), ErrNoCheckpoint)

	_, err := session.RunGenerations(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, session.RestoreBestCheckpoint())
	require.Equal(t, session.state.Best.Population, session.state.Population)
}

func TestBestIndividualPrefersCheckpoint(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, storage.NewMemoryStore(), "run-top")
	require.NoError(t, session.InitializePopulation(ctx))

	_, err := session.RunGenerations(ctx, 2)
	require.NoError(t, err)

	rule, fitnessScore, err := session.BestIndividual()
	require.NoError(t, err)
	require.NoError(t, rule.Validate())

	// The score is the maximum over the checkpointed population, not the
	// current (already bred, fitness-0) one.
	top := session.state.Best.Population[0].Fitness
	for _, ind := range session.state.Best.Population {
		if ind.Fitness > top {
			top = ind.Fitness
		}
	}
	require.Equal(t, top, fitnessScore)

	// The returned rule is a copy.
	rule[0] ^= 1
	again, _, err := session.BestIndividual()
	require.NoError(t, err)
	require.NotEqual(t, rule[0], again[0])
}

func TestSetMutationAndResizeGrid(t *testing.T) {
	session := newTestSession(t, storage.NewMemoryStore(), "run-tune")

	require.NoError(t, session.SetMutation(25, 6))
	require.Equal(t, 25.0, session.state.Config.MutationRatePct)
	require.Equal(t, 6, session.state.Config.MaxGenes)
	require.ErrorIs(t, session.SetMutation(0, 6), model.ErrMutationRate)

	require.NoError(t, session.ResizeGrid(16, 12))
	require.Equal(t, 16, session.state.Config.GridWidth)
	require.Equal(t, 12, session.state.Config.GridHeight)
	require.ErrorIs(t, session.ResizeGrid(2, 12), model.ErrGridTooSmall)
	// A rejected resize leaves the previous dimensions intact.
	require.Equal(t, 16, session.state.Config.GridWidth)
}

func TestRunGenerationsRejectsNonPositiveCount(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, storage.NewMemoryStore(), "run-count")
	require.NoError(t, session.InitializePopulation(ctx))

	_, err := session.RunGenerations(ctx, 0)
	require.Error(t, err)
}
