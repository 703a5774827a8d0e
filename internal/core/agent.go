package core

// AgentID is a small integer agent identifier.
type AgentID int

// Agent is a start/goal pair. Agents are planned independently but share one
// reservation table during cooperative planning.
type Agent struct {
	ID    AgentID
	Start Cell
	Goal  Cell
}

// Distance returns the Manhattan distance from start to goal.
func (a Agent) Distance() int {
	return Manhattan(a.Start, a.Goal)
}

// Path is a sequence of cells indexed by time step; path[0] is the start.
// Paths are never mutated after creation.
type Path []Cell

// At returns the cell occupied at step t. Past the end of the path the agent
// holds its last cell. An empty path has no position.
func (p Path) At(t int) (Cell, bool) {
	if len(p) == 0 {
		return Cell{}, false
	}
	if t < 0 {
		return p[0], true
	}
	if t >= len(p) {
		return p[len(p)-1], true
	}
	return p[t], true
}

// Cost is the number of transitions (moves and waits).
func (p Path) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Waits counts the steps where the cell does not change.
func (p Path) Waits() int {
	n := 0
	for i := 1; i < len(p); i++ {
		if p[i] == p[i-1] {
			n++
		}
	}
	return n
}

// Last returns the final cell.
func (p Path) Last() (Cell, bool) {
	if len(p) == 0 {
		return Cell{}, false
	}
	return p[len(p)-1], true
}

// Valid reports whether consecutive cells are equal or 4-adjacent and every
// cell is valid on g.
func (p Path) Valid(g *Grid) bool {
	for i, c := range p {
		if !g.IsValid(c) {
			return false
		}
		if i > 0 && Manhattan(p[i-1], c) > 1 {
			return false
		}
	}
	return true
}
