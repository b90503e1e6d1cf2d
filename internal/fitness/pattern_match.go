package fitness

import (
	"fmt"

	"cellevo/internal/ca"
	"cellevo/internal/model"
)

const StrategyPatternMatch = "pattern_match"

// Scoring modes for PatternMatch. Exactly one applies per configuration.
const (
	ModeTotalMatches = "totalMatches"
	ModeBestMatch    = "bestMatch"
)

// PatternMatch slides a fixed target pattern plus its four 90° rotations over
// every toroidal grid offset. A placement matches when the number of
// mismatched cells is at most Tolerance.
type PatternMatch struct {
	Target      Pattern
	Orientation [4]Pattern
	Tolerance   int
	Mode        string
}

func NewPatternMatch(cfg model.FitnessConfig) (*PatternMatch, error) {
	target, err := LookupPattern(cfg.Pattern)
	if err != nil {
		return nil, err
	}
	mode := cfg.ScoringMode
	if mode == "" {
		mode = ModeTotalMatches
	}
	if mode != ModeTotalMatches && mode != ModeBestMatch {
		return nil, fmt.Errorf("%w: scoring mode %q", ErrBadStrategy, mode)
	}
	tolerance := cfg.Tolerance
	if tolerance == 0 {
		tolerance = 1
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance %d", ErrBadStrategy, tolerance)
	}

	e := &PatternMatch{Target: target, Tolerance: tolerance, Mode: mode}
	e.Orientation[0] = target
	for i := 1; i < 4; i++ {
		e.Orientation[i] = e.Orientation[i-1].Rotate90()
	}
	return e, nil
}

func (e *PatternMatch) Name() string { return StrategyPatternMatch }

func (e *PatternMatch) Score(g *ca.Grid) float64 {
	switch e.Mode {
	case ModeBestMatch:
		return float64(e.bestMatch(g))
	default:
		return float64(e.totalMatches(g))
	}
}

// totalMatches counts matching (position, orientation) pairs across the grid.
func (e *PatternMatch) totalMatches(g *ca.Grid) int {
	matches := 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			for _, p := range e.Orientation {
				if p.Cells() > 0 && e.mismatches(g, x, y, p) <= e.Tolerance {
					matches++
				}
			}
		}
	}
	return matches
}

// bestMatch returns the single best per-placement matching-cell count across
// every position and orientation.
func (e *PatternMatch) bestMatch(g *ca.Grid) int {
	best := 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			for _, p := range e.Orientation {
				matched := p.Cells() - e.mismatches(g, x, y, p)
				if matched > best {
					best = matched
				}
			}
		}
	}
	return best
}

func (e *PatternMatch) mismatches(g *ca.Grid, x0, y0 int, p Pattern) int {
	miss := 0
	for py, row := range p {
		for px, want := range row {
			if g.Get(x0+px, y0+py) != want {
				miss++
			}
		}
	}
	return miss
}
