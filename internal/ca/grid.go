// Package ca implements the toroidal binary grid and the Moore-neighborhood
// rule stepping that evolution candidates are simulated on.
package ca

import (
	"fmt"
	"math/rand"

	"cellevo/internal/model"
)

// Grid is a toroidal 2D grid of binary cells stored row-major. Grids are
// ephemeral: one is created per individual evaluation and discarded after
// scoring.
type Grid struct {
	W, H  int
	cells []byte
}

// NewGrid allocates an all-zero grid. Both axes must be at least
// model.MinGridAxis so no toroidal neighbor aliases the cell itself.
func NewGrid(w, h int) (*Grid, error) {
	if w < model.MinGridAxis || h < model.MinGridAxis {
		return nil, fmt.Errorf("%w: %dx%d", model.ErrGridTooSmall, w, h)
	}
	return &Grid{W: w, H: h, cells: make([]byte, w*h)}, nil
}

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid) Wrap(x, y int) (int, int) {
	x = (x%g.W + g.W) % g.W
	y = (y%g.H + g.H) % g.H
	return x, y
}

// Get returns the cell at toroidally wrapped coordinates.
func (g *Grid) Get(x, y int) byte {
	x, y = g.Wrap(x, y)
	return g.cells[g.Index(x, y)]
}

// Set writes the cell at toroidally wrapped coordinates.
func (g *Grid) Set(x, y int, v byte) {
	x, y = g.Wrap(x, y)
	g.cells[g.Index(x, y)] = v
}

// Cells exposes the backing slice so scoring loops can read values directly.
func (g *Grid) Cells() []byte { return g.cells }

// Randomize fills the grid with independent Bernoulli(p) cells.
func (g *Grid) Randomize(rng *rand.Rand, p float64) {
	for i := range g.cells {
		g.cells[i] = 0
		if rng.Float64() < p {
			g.cells[i] = 1
		}
	}
}

// Density returns the live-cell fraction in [0, 1].
func (g *Grid) Density() float64 {
	live := 0
	for _, c := range g.cells {
		live += int(c)
	}
	return float64(live) / float64(len(g.cells))
}

// Clone returns a grid with fresh backing storage.
func (g *Grid) Clone() *Grid {
	out := &Grid{W: g.W, H: g.H, cells: make([]byte, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}
