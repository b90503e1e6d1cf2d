package fitness

import (
	"fmt"

	"cellevo/internal/ca"
	"cellevo/internal/model"
)

const StrategyDensitySymmetry = "density_symmetry"

// DensitySymmetry counts local mirror symmetries, gated by global live-cell
// density. The gate eliminates trivial all-dead and all-alive attractors: a
// grid whose density falls outside [MinDensity, MaxDensity] scores exactly 0.
type DensitySymmetry struct {
	MinDensity float64
	MaxDensity float64
	PatchSize  int
}

func NewDensitySymmetry(cfg model.FitnessConfig) (*DensitySymmetry, error) {
	e := &DensitySymmetry{
		MinDensity: cfg.MinDensity,
		MaxDensity: cfg.MaxDensity,
		PatchSize:  cfg.PatchSize,
	}
	if e.PatchSize == 0 {
		e.PatchSize = 3
	}
	if e.PatchSize < 1 || e.PatchSize%2 == 0 {
		return nil, fmt.Errorf("%w: patch size %d must be odd and positive", ErrBadStrategy, e.PatchSize)
	}
	if e.MinDensity < 0 || e.MaxDensity > 1 || e.MinDensity > e.MaxDensity {
		return nil, fmt.Errorf("%w: density bounds [%v, %v]", ErrBadStrategy, e.MinDensity, e.MaxDensity)
	}
	return e, nil
}

func (e *DensitySymmetry) Name() string { return StrategyDensitySymmetry }

// Score treats every grid position as the top-left corner of a toroidally
// wrapped K×K patch and, per patch, counts cell pairs that match under a
// horizontal flip, a vertical flip, and a diagonal transpose. Each axis is
// counted independently; a diagonal self-pair is excluded.
func (e *DensitySymmetry) Score(g *ca.Grid) float64 {
	density := g.Density()
	if density < e.MinDensity || density > e.MaxDensity {
		return 0
	}

	k := e.PatchSize
	total := 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			total += symmetricPairs(g, x, y, k)
		}
	}
	return float64(total)
}

func symmetricPairs(g *ca.Grid, x0, y0, k int) int {
	count := 0
	// Horizontal flip: mirror across the vertical center line.
	for py := 0; py < k; py++ {
		for px := 0; px < k/2; px++ {
			if g.Get(x0+px, y0+py) == g.Get(x0+k-1-px, y0+py) {
				count++
			}
		}
	}
	// Vertical flip: mirror across the horizontal center line.
	for py := 0; py < k/2; py++ {
		for px := 0; px < k; px++ {
			if g.Get(x0+px, y0+py) == g.Get(x0+px, y0+k-1-py) {
				count++
			}
		}
	}
	// Diagonal transpose, excluding the self-paired diagonal itself.
	for py := 0; py < k; py++ {
		for px := py + 1; px < k; px++ {
			if g.Get(x0+px, y0+py) == g.Get(x0+py, y0+px) {
				count++
			}
		}
	}
	return count
}
