package ca

import "cellevo/internal/model"

// NeighborhoodIndex packs a cell and its 8 Moore neighbors into a rule index
// in [0, 511]. The bit order is fixed for the lifetime of any persisted rule:
// NW is the most significant bit, then N, NE, W, C, E, SW, S, and SE as the
// least significant bit. Changing this order invalidates stored rules.
func NeighborhoodIndex(g *Grid, x, y int) int {
	idx := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			idx = idx<<1 | int(g.Get(x+dx, y+dy))
		}
	}
	return idx
}

// Step advances the grid by one generation under the given rule. The update
// is simultaneous: every neighborhood is read from the pre-step grid and the
// result is written into a fresh allocation, so no cell can observe another
// cell's already-updated value within the same step.
func Step(g *Grid, rule model.Rule) *Grid {
	next := &Grid{W: g.W, H: g.H, cells: make([]byte, len(g.cells))}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			next.cells[next.Index(x, y)] = rule.Next(NeighborhoodIndex(g, x, y))
		}
	}
	return next
}

// Run applies Step the given number of times and returns the final grid.
func Run(g *Grid, rule model.Rule, steps int) *Grid {
	cur := g
	for i := 0; i < steps; i++ {
		cur = Step(cur, rule)
	}
	return cur
}

// RunTail applies Step `steps` times and returns the last `window` grids in
// step order, ending with the final grid. A window of 0 or 1 returns just the
// final grid. Used by score aggregation over the closing iterations of a
// simulation.
func RunTail(g *Grid, rule model.Rule, steps, window int) []*Grid {
	if window < 1 {
		window = 1
	}
	if window > steps {
		window = steps
	}
	tail := make([]*Grid, 0, window)
	cur := g
	for i := 0; i < steps; i++ {
		cur = Step(cur, rule)
		if i >= steps-window {
			tail = append(tail, cur)
		}
	}
	if len(tail) == 0 {
		tail = append(tail, cur)
	}
	return tail
}
