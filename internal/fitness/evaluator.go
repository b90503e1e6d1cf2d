// Package fitness scores final simulation grids. Evaluators are pure: they
// never mutate their input grid and always return a non-negative score.
package fitness

import (
	"errors"
	"fmt"

	"cellevo/internal/ca"
	"cellevo/internal/model"
)

var (
	ErrUnknownStrategy = errors.New("unknown fitness strategy")
	ErrBadStrategy     = errors.New("invalid fitness strategy parameters")
)

// Evaluator is a polymorphic scoring strategy selected at configuration time.
type Evaluator interface {
	Name() string
	Score(g *ca.Grid) float64
}

// New builds the evaluator selected by the configuration, or reports a
// configuration error.
func New(cfg model.FitnessConfig) (Evaluator, error) {
	switch cfg.Strategy {
	case "", StrategyDensitySymmetry:
		return NewDensitySymmetry(cfg)
	case StrategyPatternMatch:
		return NewPatternMatch(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, cfg.Strategy)
	}
}

// ScoreTail sums the evaluator's score over a window of closing grids. It is
// the aggregation point for configurations that score the last K iterations
// instead of only the final one.
func ScoreTail(e Evaluator, tail []*ca.Grid) float64 {
	total := 0.0
	for _, g := range tail {
		total += e.Score(g)
	}
	return total
}
