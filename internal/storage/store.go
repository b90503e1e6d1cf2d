// Package storage isolates all durable-state reads and writes behind a narrow
// load/save interface so the GA core has no direct I/O dependency and is
// testable against an in-memory fake.
package storage

import (
	"context"

	"cellevo/internal/model"
)

// Store persists evolution runs as opaque structured blobs. Lookups return
// found=false for records that were never written; that is the expected
// "no checkpoint yet" signal, not an error. A record that exists but cannot
// be decoded is an error and is never silently recovered.
type Store interface {
	Init(ctx context.Context) error
	SaveState(ctx context.Context, state model.EvolutionState) error
	GetState(ctx context.Context, runID string) (model.EvolutionState, bool, error)
	SaveRunConfig(ctx context.Context, runID string, cfg model.RunConfig) error
	GetRunConfig(ctx context.Context, runID string) (model.RunConfig, bool, error)
	SaveEpochHistory(ctx context.Context, runID string, history []model.EpochRecord) error
	GetEpochHistory(ctx context.Context, runID string) ([]model.EpochRecord, bool, error)
	ListRuns(ctx context.Context) ([]string, error)
}
