package fitness

import (
	"fmt"
	"sort"
)

// Pattern is a small rectangular 0/1 target, row-major.
type Pattern [][]byte

// Rotate90 returns the pattern rotated a quarter turn clockwise.
func (p Pattern) Rotate90() Pattern {
	if len(p) == 0 {
		return Pattern{}
	}
	h := len(p)
	w := len(p[0])
	out := make(Pattern, w)
	for y := range out {
		out[y] = make([]byte, h)
		for x := range out[y] {
			out[y][x] = p[h-1-x][y]
		}
	}
	return out
}

// Cells reports the number of cells covered by the pattern.
func (p Pattern) Cells() int {
	n := 0
	for _, row := range p {
		n += len(row)
	}
	return n
}

// Built-in target patterns selectable by name in run profiles.
var builtinPatterns = map[string]Pattern{
	"glider": {
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 1},
	},
	"block": {
		{1, 1},
		{1, 1},
	},
	"blinker": {
		{1, 1, 1},
	},
}

// LookupPattern resolves a built-in pattern by name.
func LookupPattern(name string) (Pattern, error) {
	if name == "" {
		name = "glider"
	}
	p, ok := builtinPatterns[name]
	if !ok {
		return nil, fmt.Errorf("%w: pattern %q", ErrBadStrategy, name)
	}
	return p, nil
}

// PatternNames lists the built-in pattern names.
func PatternNames() []string {
	names := make([]string, 0, len(builtinPatterns))
	for name := range builtinPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
