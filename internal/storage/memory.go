package storage

import (
	"context"
	"sort"
	"sync"

	"cellevo/internal/model"
)

// MemoryStore is the in-process Store used by tests and throwaway runs. It
// hands out defensive copies so callers cannot alias its internals.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	states      map[string]model.EvolutionState
	configs     map[string]model.RunConfig
	histories   map[string][]model.EpochRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.states = make(map[string]model.EvolutionState)
	s.configs = make(map[string]model.RunConfig)
	s.histories = make(map[string][]model.EpochRecord)
	return nil
}

func (s *MemoryStore) SaveState(_ context.Context, state model.EvolutionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.RunID] = cloneState(state)
	return nil
}

func (s *MemoryStore) GetState(_ context.Context, runID string) (model.EvolutionState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[runID]
	if !ok {
		return model.EvolutionState{}, false, nil
	}
	return cloneState(state), true, nil
}

func (s *MemoryStore) SaveRunConfig(_ context.Context, runID string, cfg model.RunConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[runID] = cfg
	return nil
}

func (s *MemoryStore) GetRunConfig(_ context.Context, runID string) (model.RunConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[runID]
	return cfg, ok, nil
}

func (s *MemoryStore) SaveEpochHistory(_ context.Context, runID string, history []model.EpochRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[runID] = cloneHistory(history)
	return nil
}

func (s *MemoryStore) GetEpochHistory(_ context.Context, runID string) ([]model.EpochRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.histories[runID]
	if !ok {
		return nil, false, nil
	}
	return cloneHistory(history), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.states))
	for runID := range s.states {
		runs = append(runs, runID)
	}
	sort.Strings(runs)
	return runs, nil
}

func cloneState(state model.EvolutionState) model.EvolutionState {
	out := state
	out.Population = model.ClonePopulation(state.Population)
	out.History = cloneHistory(state.History)
	if state.Best != nil {
		out.Best = &model.BestCheckpoint{
			Population:     model.ClonePopulation(state.Best.Population),
			AverageFitness: state.Best.AverageFitness,
		}
	}
	return out
}

func cloneHistory(history []model.EpochRecord) []model.EpochRecord {
	out := make([]model.EpochRecord, len(history))
	for i, record := range history {
		out[i] = record
		out[i].Fitness = append([]float64(nil), record.Fitness...)
	}
	return out
}
