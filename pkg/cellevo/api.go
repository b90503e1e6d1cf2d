// Package cellevo is the public control surface of the rule-evolution engine.
// A Session owns one EvolutionState explicitly; there is no process-wide
// simulation state. Every operation is synchronous and completes with a
// result or a reported failure.
package cellevo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cellevo/internal/evo"
	"cellevo/internal/fitness"
	"cellevo/internal/model"
	"cellevo/internal/storage"
)

const defaultDBPath = "cellevo.db"

// ErrNotInitialized is returned by operations that need a population before
// InitializePopulation or Resume has run.
var ErrNotInitialized = errors.New("session has no population; initialize or resume first")

// ErrNoCheckpoint is returned when no best checkpoint has been recorded yet.
var ErrNoCheckpoint = errors.New("no best checkpoint recorded")

type Options struct {
	// Store, when set, is used directly; otherwise StoreKind/DBPath select
	// a backend.
	Store     storage.Store
	StoreKind string // "memory" (default) or "sqlite"
	DBPath    string
	Logger    *zap.Logger
}

// Session drives one evolution run against one store.
type Session struct {
	mu     sync.Mutex
	store  storage.Store
	log    *zap.Logger
	runID  string
	state  *model.EvolutionState
	runner *evo.EpochRunner
}

// RunSummary reports the outcome of a RunGenerations call. Checkpoint
// failures are non-fatal: the in-memory state keeps evolving and only the
// latest persisted snapshot is at risk.
type RunSummary struct {
	Generations        int
	FinalAverage       float64
	BestAverageFitness float64
	CheckpointFailures int
}

// PopulationSummary is a read-only snapshot of the run's standing.
type PopulationSummary struct {
	RunID              string
	Generation         int
	PopulationSize     int
	LastAverage        float64
	LastBest           float64
	BestAverageFitness float64
	HasCheckpoint      bool
}

// NewSession validates the configuration, opens the store, and prepares the
// GA machinery. Validation failures are fatal before any generation runs.
func NewSession(ctx context.Context, opts Options, runID string, cfg model.RunConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		dbPath := opts.DBPath
		if dbPath == "" {
			dbPath = defaultDBPath
		}
		var err error
		store, err = storage.NewStore(opts.StoreKind, dbPath)
		if err != nil {
			return nil, err
		}
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	s := &Session{
		store: store,
		log:   logger,
		runID: runID,
		state: &model.EvolutionState{RunID: runID, Config: cfg},
	}
	if err := s.rebuildRunner(); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return s, nil
}

func (s *Session) Close() error {
	return storage.CloseIfSupported(s.store)
}

// RunID returns the identifier this session persists under.
func (s *Session) RunID() string { return s.runID }

// InitializePopulation discards any in-memory progress and seeds a fresh
// random population from the configured seed, then persists the run
// configuration.
func (s *Session) InitializePopulation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.state.Config
	rng := rand.New(rand.NewSource(cfg.Seed))
	population := make([]model.Individual, cfg.PopulationSize)
	for i := range population {
		population[i] = model.NewIndividual(model.NewRandomRule(rng))
	}

	s.state.Population = population
	s.state.Generation = 0
	s.state.History = nil
	s.state.Best = nil

	if err := s.store.SaveRunConfig(ctx, s.runID, cfg); err != nil {
		return fmt.Errorf("save run config: %w", err)
	}
	s.log.Info("initialized population",
		zap.String("run_id", s.runID),
		zap.Int("size", cfg.PopulationSize),
		zap.Int64("seed", cfg.Seed))
	return nil
}

// Resume reloads the last persisted snapshot instead of reinitializing. A
// missing snapshot falls back to fresh initialization; a snapshot that exists
// but cannot be decoded or fails integrity checks is fatal.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	loaded, found, err := s.store.GetState(ctx, s.runID)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load state for run %s: %w", s.runID, err)
	}
	if !found {
		s.mu.Unlock()
		s.log.Info("no checkpoint found, starting fresh", zap.String("run_id", s.runID))
		return s.InitializePopulation(ctx)
	}
	defer s.mu.Unlock()

	if err := loaded.CheckIntegrity(); err != nil {
		return fmt.Errorf("run %s: %w", s.runID, err)
	}

	s.state = &loaded
	if err := s.rebuildRunner(); err != nil {
		return err
	}
	s.log.Info("resumed run",
		zap.String("run_id", s.runID),
		zap.Int("generation", loaded.Generation),
		zap.Int("history", len(loaded.History)))
	return nil
}

// RunGenerations advances the run by count epochs, checkpointing at every
// generation boundary. Persistence failures are logged and counted but never
// corrupt the in-memory state.
func (s *Session) RunGenerations(ctx context.Context, count int) (RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count <= 0 {
		return RunSummary{}, fmt.Errorf("generation count must be > 0, got %d", count)
	}
	if len(s.state.Population) == 0 {
		return RunSummary{}, ErrNotInitialized
	}

	summary := RunSummary{}
	for i := 0; i < count; i++ {
		record, err := s.runner.RunEpoch(ctx, s.state)
		if err != nil {
			return summary, err
		}
		summary.Generations++
		summary.FinalAverage = record.Average

		if err := s.checkpoint(ctx); err != nil {
			summary.CheckpointFailures++
			s.log.Warn("checkpoint failed",
				zap.String("run_id", s.runID),
				zap.Int("generation", s.state.Generation),
				zap.Error(err))
		}

		s.log.Debug("generation complete",
			zap.Int("generation", record.Generation),
			zap.Float64("average", record.Average),
			zap.Float64("best", record.Best))
	}

	if s.state.Best != nil {
		summary.BestAverageFitness = s.state.Best.AverageFitness
	}
	return summary, nil
}

func (s *Session) checkpoint(ctx context.Context) error {
	if err := s.store.SaveState(ctx, *s.state); err != nil {
		return err
	}
	return s.store.SaveEpochHistory(ctx, s.runID, s.state.History)
}

// ResizeGrid changes the simulation grid for subsequent evaluations.
func (s *Session) ResizeGrid(w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.state.Config
	cfg.GridWidth = w
	cfg.GridHeight = h
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.state.Config = cfg
	return nil
}

// SetMutation changes the mutation rate and per-event gene cap.
func (s *Session) SetMutation(ratePct float64, maxGenes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.runner.Breeder().SetMutation(ratePct, maxGenes); err != nil {
		return err
	}
	s.state.Config.MutationRatePct = ratePct
	s.state.Config.MaxGenes = maxGenes
	return nil
}

// RestoreBestCheckpoint replaces the current population with the best-ever
// snapshot.
func (s *Session) RestoreBestCheckpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !evo.TrackBest(s.state).Restore() {
		return ErrNoCheckpoint
	}
	s.log.Info("restored best checkpoint",
		zap.String("run_id", s.runID),
		zap.Float64("average_fitness", s.state.Best.AverageFitness))
	return nil
}

// BestIndividual returns the top-scoring rule. It prefers the best-ever
// checkpoint and falls back to the current population's last recorded scores.
func (s *Session) BestIndividual() (model.Rule, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.state.Population
	if s.state.Best != nil {
		pool = s.state.Best.Population
	}
	if len(pool) == 0 {
		return nil, 0, ErrNotInitialized
	}
	best := pool[0]
	for _, ind := range pool[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best.Rule.Clone(), best.Fitness, nil
}

// PopulationSummary reports the run's current standing.
func (s *Session) PopulationSummary() (PopulationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Population) == 0 {
		return PopulationSummary{}, ErrNotInitialized
	}
	summary := PopulationSummary{
		RunID:          s.runID,
		Generation:     s.state.Generation,
		PopulationSize: len(s.state.Population),
		HasCheckpoint:  s.state.Best != nil,
	}
	if n := len(s.state.History); n > 0 {
		summary.LastAverage = s.state.History[n-1].Average
		summary.LastBest = s.state.History[n-1].Best
	}
	if s.state.Best != nil {
		summary.BestAverageFitness = s.state.Best.AverageFitness
	}
	return summary, nil
}

// History returns a copy of the append-only epoch history.
func (s *Session) History() []model.EpochRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.EpochRecord, len(s.state.History))
	for i, record := range s.state.History {
		out[i] = record
		out[i].Fitness = append([]float64(nil), record.Fitness...)
	}
	return out
}

// rebuildRunner derives the evaluator and breeder from the current config.
// The breeder stream is reseeded from (seed, generation) so a resumed run
// does not replay the mutation decisions of generation zero.
func (s *Session) rebuildRunner() error {
	cfg := s.state.Config
	evaluator, err := fitness.New(cfg.Fitness)
	if err != nil {
		return err
	}
	breederSeed := cfg.Seed*1000003 + int64(s.state.Generation)
	breeder, err := evo.NewBreeder(rand.New(rand.NewSource(breederSeed)), cfg.MutationRatePct, cfg.MaxGenes)
	if err != nil {
		return err
	}
	runner, err := evo.NewEpochRunner(cfg, evaluator, breeder)
	if err != nil {
		return err
	}
	s.runner = runner
	return nil
}
