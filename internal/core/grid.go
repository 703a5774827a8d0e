package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Grid construction errors.
var (
	ErrBadDimensions = errors.New("core: grid width and height must be positive")
	ErrOutOfBounds   = errors.New("core: cell out of bounds")
	ErrBlocked       = errors.New("core: cell is blocked")
)

// Grid is a bounded 2D lattice with static obstacles.
// The blocked set is fixed at construction and never mutated afterwards.
type Grid struct {
	Width, Height int
	blocked       map[Cell]struct{}
}

// NewGrid creates a width x height grid with the given blocked cells.
// Blocked cells outside the grid are rejected.
func NewGrid(width, height int, blocked []Cell) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	g := &Grid{
		Width:   width,
		Height:  height,
		blocked: make(map[Cell]struct{}, len(blocked)),
	}
	for _, c := range blocked {
		if !g.InBounds(c) {
			return nil, fmt.Errorf("obstacle %v: %w", c, ErrOutOfBounds)
		}
		g.blocked[c] = struct{}{}
	}
	return g, nil
}

// MustGrid is NewGrid that panics on error. Intended for fixtures.
func MustGrid(width, height int, blocked ...Cell) *Grid {
	g, err := NewGrid(width, height, blocked)
	if err != nil {
		panic(err)
	}
	return g
}

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Blocked reports whether c is an obstacle.
func (g *Grid) Blocked(c Cell) bool {
	_, ok := g.blocked[c]
	return ok
}

// IsValid reports whether c is in bounds and unblocked.
func (g *Grid) IsValid(c Cell) bool {
	return g.InBounds(c) && !g.Blocked(c)
}

// Check returns a wrapped ErrOutOfBounds or ErrBlocked when c is not valid.
func (g *Grid) Check(c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%v: %w", c, ErrOutOfBounds)
	}
	if g.Blocked(c) {
		return fmt.Errorf("%v: %w", c, ErrBlocked)
	}
	return nil
}

// Neighbors returns the valid up, right, down, left neighbours of c, in that order.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(Directions))
	for _, d := range Directions {
		n := c.Add(d)
		if g.IsValid(n) {
			out = append(out, n)
		}
	}
	return out
}

// Cells returns the number of cells, blocked or not.
func (g *Grid) Cells() int {
	return g.Width * g.Height
}

// Obstacles returns the blocked cells sorted by row then column.
func (g *Grid) Obstacles() []Cell {
	out := make([]Cell, 0, len(g.blocked))
	for c := range g.blocked {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// FreeCells returns every valid cell in row-major order (y, then x).
func (g *Grid) FreeCells() []Cell {
	out := make([]Cell, 0, g.Cells()-len(g.blocked))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if c := C(x, y); !g.Blocked(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Render draws the grid top row first. mark may return a rune for a cell;
// returning 0 falls back to '#' for obstacles and '.' otherwise.
func (g *Grid) Render(mark func(Cell) rune) string {
	var b strings.Builder
	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			c := C(x, y)
			r := rune(0)
			if mark != nil {
				r = mark(c)
			}
			if r == 0 {
				if g.Blocked(c) {
					r = '#'
				} else {
					r = '.'
				}
			}
			b.WriteRune(r)
			if x < g.Width-1 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
