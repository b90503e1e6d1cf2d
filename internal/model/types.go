package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// RuleLength is the number of entries in a transition rule: one next-state bit
// for each of the 2^9 configurations of a cell plus its 8 Moore neighbors.
const RuleLength = 512

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Rule is a transition function encoded as a fixed-length vector of 0/1 bytes,
// indexed by the packed neighborhood configuration. Every 512-entry vector is
// a legal rule. Rules serialize as an explicit JSON array of 0/1 integers so
// persisted populations stay readable and stable across codec changes.
type Rule []byte

// NewRandomRule draws each transition bit independently and uniformly.
func NewRandomRule(rng *rand.Rand) Rule {
	r := make(Rule, RuleLength)
	for i := range r {
		r[i] = byte(rng.Intn(2))
	}
	return r
}

// Next returns the next-state bit for a packed neighborhood index.
func (r Rule) Next(index int) byte {
	return r[index]
}

// Clone returns a rule with fresh backing storage.
func (r Rule) Clone() Rule {
	out := make(Rule, len(r))
	copy(out, r)
	return out
}

// Validate checks length and bit range.
func (r Rule) Validate() error {
	if len(r) != RuleLength {
		return fmt.Errorf("%w: rule length %d, want %d", ErrRuleLength, len(r), RuleLength)
	}
	for i, bit := range r {
		if bit > 1 {
			return fmt.Errorf("%w: rule entry %d is %d", ErrRuleLength, i, bit)
		}
	}
	return nil
}

func (r Rule) MarshalJSON() ([]byte, error) {
	bits := make([]int, len(r))
	for i, b := range r {
		bits[i] = int(b)
	}
	return json.Marshal(bits)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var bits []int
	if err := json.Unmarshal(data, &bits); err != nil {
		return err
	}
	out := make(Rule, len(bits))
	for i, bit := range bits {
		if bit != 0 && bit != 1 {
			return fmt.Errorf("%w: rule entry %d is %d", ErrRuleLength, i, bit)
		}
		out[i] = byte(bit)
	}
	*r = out
	return nil
}

// Individual pairs a candidate rule with its fitness for the current
// generation. Fitness is 0 at creation and assigned exactly once per
// generation during evaluation.
type Individual struct {
	Rule    Rule    `json:"rule"`
	Fitness float64 `json:"fitness"`
}

// NewIndividual wraps a rule with zero fitness, taking ownership of the slice.
func NewIndividual(rule Rule) Individual {
	return Individual{Rule: rule}
}

// ClonePopulation deep-copies individuals including rule storage.
func ClonePopulation(population []Individual) []Individual {
	out := make([]Individual, len(population))
	for i, ind := range population {
		out[i] = Individual{Rule: ind.Rule.Clone(), Fitness: ind.Fitness}
	}
	return out
}

// FitnessConfig selects and parameterizes the active scoring strategy.
type FitnessConfig struct {
	Strategy string `json:"strategy"`

	// Density-gated local symmetry.
	MinDensity float64 `json:"min_density,omitempty"`
	MaxDensity float64 `json:"max_density,omitempty"`
	PatchSize  int     `json:"patch_size,omitempty"`

	// Pattern matching.
	Pattern     string `json:"pattern,omitempty"`
	Tolerance   int    `json:"tolerance,omitempty"`
	ScoringMode string `json:"scoring_mode,omitempty"`

	// ScoreWindow aggregates the score over the last K iterations of a
	// simulation; 1 scores only the final grid.
	ScoreWindow int `json:"score_window,omitempty"`
}

// RunConfig is the full parameterization of an evolution run.
type RunConfig struct {
	VersionedRecord
	GridWidth       int           `json:"grid_width"`
	GridHeight      int           `json:"grid_height"`
	Iterations      int           `json:"iterations"`
	PopulationSize  int           `json:"population_size"`
	MutationRatePct float64       `json:"mutation_rate_pct"`
	MaxGenes        int           `json:"max_genes_per_mutation"`
	Workers         int           `json:"workers,omitempty"`
	Seed            int64         `json:"seed"`
	Fitness         FitnessConfig `json:"fitness"`
}

// DefaultRunConfig mirrors the documented defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		GridWidth:       32,
		GridHeight:      32,
		Iterations:      50,
		PopulationSize:  200,
		MutationRatePct: 5,
		MaxGenes:        4,
		Workers:         1,
		Fitness: FitnessConfig{
			Strategy:    "density_symmetry",
			MinDensity:  0.2,
			MaxDensity:  0.8,
			PatchSize:   3,
			ScoreWindow: 1,
		},
	}
}

// Validate fails fast on configuration errors before any generation runs.
func (c RunConfig) Validate() error {
	if c.GridWidth < MinGridAxis || c.GridHeight < MinGridAxis {
		return fmt.Errorf("%w: %dx%d", ErrGridTooSmall, c.GridWidth, c.GridHeight)
	}
	if c.PopulationSize <= 0 || c.PopulationSize%4 != 0 {
		return fmt.Errorf("%w: %d", ErrPopulationSize, c.PopulationSize)
	}
	if c.MutationRatePct <= 0 || c.MutationRatePct > 100 {
		return fmt.Errorf("%w: %v", ErrMutationRate, c.MutationRatePct)
	}
	if c.MaxGenes < 1 {
		return fmt.Errorf("%w: max genes per mutation %d", ErrMutationRate, c.MaxGenes)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations %d", ErrIterations, c.Iterations)
	}
	if c.Fitness.ScoreWindow < 0 || c.Fitness.ScoreWindow > c.Iterations {
		return fmt.Errorf("%w: score window %d with %d iterations", ErrIterations, c.Fitness.ScoreWindow, c.Iterations)
	}
	return nil
}

// BestCheckpoint is the best-ever observed population snapshot. It is
// monotonic: a later generation replaces it only with a strictly higher
// average fitness.
type BestCheckpoint struct {
	Population     []Individual `json:"population"`
	AverageFitness float64      `json:"average_fitness"`
}

// EpochRecord is one entry of the append-only per-generation history.
type EpochRecord struct {
	Generation int       `json:"generation"`
	Fitness    []float64 `json:"fitness"`
	Average    float64   `json:"average"`
	Best       float64   `json:"best"`
	Min        float64   `json:"min"`
}

// EvolutionState is the process-scoped aggregate a run evolves in place and
// checkpoints at generation boundaries. It is owned by the caller and passed
// explicitly; there is no ambient process-wide state.
type EvolutionState struct {
	VersionedRecord
	RunID      string          `json:"run_id"`
	Generation int             `json:"generation"`
	Population []Individual    `json:"population"`
	Best       *BestCheckpoint `json:"best,omitempty"`
	History    []EpochRecord   `json:"history"`
	Config     RunConfig       `json:"config"`
}

// CheckIntegrity verifies a loaded state against its own configuration.
// Mismatches are fatal and never auto-repaired.
func (s EvolutionState) CheckIntegrity() error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	if len(s.Population) != s.Config.PopulationSize {
		return fmt.Errorf("%w: population length %d, configured %d",
			ErrStateIntegrity, len(s.Population), s.Config.PopulationSize)
	}
	for i, ind := range s.Population {
		if err := ind.Rule.Validate(); err != nil {
			return fmt.Errorf("%w: individual %d: %v", ErrStateIntegrity, i, err)
		}
		if ind.Fitness < 0 {
			return fmt.Errorf("%w: individual %d has negative fitness %v", ErrStateIntegrity, i, ind.Fitness)
		}
	}
	if s.Best != nil {
		if len(s.Best.Population) != s.Config.PopulationSize {
			return fmt.Errorf("%w: checkpoint population length %d, configured %d",
				ErrStateIntegrity, len(s.Best.Population), s.Config.PopulationSize)
		}
		for i, ind := range s.Best.Population {
			if err := ind.Rule.Validate(); err != nil {
				return fmt.Errorf("%w: checkpoint individual %d: %v", ErrStateIntegrity, i, err)
			}
		}
	}
	for _, epoch := range s.History {
		if len(epoch.Fitness) != s.Config.PopulationSize {
			return fmt.Errorf("%w: epoch %d fitness vector length %d, configured %d",
				ErrStateIntegrity, epoch.Generation, len(epoch.Fitness), s.Config.PopulationSize)
		}
	}
	return nil
}
