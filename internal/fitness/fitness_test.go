package fitness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cellevo/internal/ca"
	"cellevo/internal/model"
)

func mustGrid(t *testing.T, w, h int) *ca.Grid {
	t.Helper()
	g, err := ca.NewGrid(w, h)
	require.NoError(t, err)
	return g
}

func fillGrid(g *ca.Grid, v byte) {
	cells := g.Cells()
	for i := range cells {
		cells[i] = v
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	e, err := New(model.FitnessConfig{})
	require.NoError(t, err)
	require.Equal(t, StrategyDensitySymmetry, e.Name())

	e, err = New(model.FitnessConfig{Strategy: StrategyPatternMatch})
	require.NoError(t, err)
	require.Equal(t, StrategyPatternMatch, e.Name())

	_, err = New(model.FitnessConfig{Strategy: "novelty"})
	require.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestNewDensitySymmetryRejectsBadParams(t *testing.T) {
	_, err := NewDensitySymmetry(model.FitnessConfig{PatchSize: 4, MaxDensity: 1})
	require.ErrorIs(t, err, ErrBadStrategy)

	_, err = NewDensitySymmetry(model.FitnessConfig{PatchSize: 3, MinDensity: 0.9, MaxDensity: 0.1})
	require.ErrorIs(t, err, ErrBadStrategy)
}

func TestDensityGateZeroesScore(t *testing.T) {
	e, err := NewDensitySymmetry(model.FitnessConfig{MinDensity: 0.3, MaxDensity: 0.4, PatchSize: 3})
	require.NoError(t, err)

	g := mustGrid(t, 10, 10)
	// Density 0: below the gate.
	require.Zero(t, e.Score(g))

	// Density 1: above the gate, even though the grid is perfectly symmetric.
	fillGrid(g, 1)
	require.Zero(t, e.Score(g))
}

func TestDensitySymmetryUniformGridScore(t *testing.T) {
	e, err := NewDensitySymmetry(model.FitnessConfig{MinDensity: 0, MaxDensity: 1, PatchSize: 3})
	require.NoError(t, err)

	// A uniform grid matches every mirror pair. Per 3x3 patch: 3 horizontal
	// pairs, 3 vertical pairs, 3 off-diagonal pairs.
	g := mustGrid(t, 10, 10)
	fillGrid(g, 1)
	require.Equal(t, float64(9*10*10), e.Score(g))
}

func TestDensitySymmetryPenalizesBrokenSymmetry(t *testing.T) {
	e, err := NewDensitySymmetry(model.FitnessConfig{MinDensity: 0, MaxDensity: 1, PatchSize: 3})
	require.NoError(t, err)

	uniform := mustGrid(t, 8, 8)
	fillGrid(uniform, 1)

	dented := uniform.Clone()
	dented.Set(3, 4, 0)

	require.Less(t, e.Score(dented), e.Score(uniform))
	require.Positive(t, e.Score(dented))
}

func TestPatternMatchFindsPlantedTarget(t *testing.T) {
	e, err := NewPatternMatch(model.FitnessConfig{Pattern: "glider", Tolerance: 1})
	require.NoError(t, err)

	g := mustGrid(t, 12, 12)
	for py, row := range e.Target {
		for px, v := range row {
			g.Set(2+px, 3+py, v)
		}
	}

	require.Zero(t, e.mismatches(g, 2, 3, e.Target))
	require.GreaterOrEqual(t, e.Score(g), 1.0)
}

func TestPatternMatchWrapsAroundTorus(t *testing.T) {
	e, err := NewPatternMatch(model.FitnessConfig{Pattern: "glider", Tolerance: 1})
	require.NoError(t, err)

	// Plant the target straddling both grid edges.
	g := mustGrid(t, 12, 12)
	for py, row := range e.Target {
		for px, v := range row {
			g.Set(10+px, 10+py, v)
		}
	}

	require.Zero(t, e.mismatches(g, 10, 10, e.Target))
	require.GreaterOrEqual(t, e.Score(g), 1.0)
}

func TestPatternMatchBestMatchMode(t *testing.T) {
	e, err := NewPatternMatch(model.FitnessConfig{
		Pattern:     "glider",
		Tolerance:   1,
		ScoringMode: ModeBestMatch,
	})
	require.NoError(t, err)

	// Empty grid: the best any placement does is match the 4 dead pattern cells.
	g := mustGrid(t, 10, 10)
	require.Equal(t, 4.0, e.Score(g))

	// Exact target present: one placement matches all 9 cells.
	for py, row := range e.Target {
		for px, v := range row {
			g.Set(4+px, 4+py, v)
		}
	}
	require.Equal(t, 9.0, e.Score(g))
}

func TestPatternMatchRejectsBadConfig(t *testing.T) {
	_, err := NewPatternMatch(model.FitnessConfig{Pattern: "spaceship"})
	require.ErrorIs(t, err, ErrBadStrategy)

	_, err = NewPatternMatch(model.FitnessConfig{Pattern: "glider", ScoringMode: "average"})
	require.ErrorIs(t, err, ErrBadStrategy)

	_, err = NewPatternMatch(model.FitnessConfig{Pattern: "glider", Tolerance: -1})
	require.ErrorIs(t, err, ErrBadStrategy)
}

func TestRotate90(t *testing.T) {
	blinker, err := LookupPattern("blinker")
	require.NoError(t, err)
	require.Equal(t, Pattern{{1}, {1}, {1}}, blinker.Rotate90())

	glider, err := LookupPattern("glider")
	require.NoError(t, err)
	full := glider.Rotate90().Rotate90().Rotate90().Rotate90()
	require.Equal(t, glider, full)
}

func TestLookupPatternDefaultsToGlider(t *testing.T) {
	p, err := LookupPattern("")
	require.NoError(t, err)
	require.Equal(t, builtinPatterns["glider"], p)
}

func TestPatternNamesSorted(t *testing.T) {
	require.Equal(t, []string{"blinker", "block", "glider"}, PatternNames())
}

func TestScoreTailSumsWindow(t *testing.T) {
	e, err := NewDensitySymmetry(model.FitnessConfig{MinDensity: 0, MaxDensity: 1, PatchSize: 3})
	require.NoError(t, err)

	g := mustGrid(t, 5, 5)
	fillGrid(g, 1)
	single := e.Score(g)

	total := ScoreTail(e, []*ca.Grid{g, g, g})
	require.Equal(t, 3*single, total)
}
