package model

import "errors"

// MinGridAxis is the smallest grid dimension for which all 8 toroidal Moore
// neighbors of a cell are distinct cells.
const MinGridAxis = 3

// Configuration errors. These fail fast before any generation runs.
var (
	ErrGridTooSmall   = errors.New("grid dimensions must be at least 3 per axis")
	ErrPopulationSize = errors.New("population size must be positive and divisible by 4")
	ErrMutationRate   = errors.New("mutation rate must be in (0, 100]")
	ErrIterations     = errors.New("invalid iteration settings")
)

// Integrity errors. Loaded state that contradicts its configuration is fatal.
var (
	ErrRuleLength     = errors.New("invalid rule encoding")
	ErrStateIntegrity = errors.New("persisted state does not match configuration")
)
