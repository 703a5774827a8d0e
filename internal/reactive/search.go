// Package reactive implements the no-lookahead planners: agents repeatedly
// head for the nearest uncompleted target and replan whenever their path is
// consumed or invalidated. Nothing is reserved ahead of time; collisions are
// avoided only by refusing moves into occupied cells.
package reactive

import (
	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// CellSet is a set of cells.
type CellSet map[core.Cell]struct{}

// NewCellSet builds a set from cells.
func NewCellSet(cells ...core.Cell) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s CellSet) Has(c core.Cell) bool {
	_, ok := s[c]
	return ok
}

// NearestTarget runs a breadth-first search from start and returns the path
// (start inclusive) to the first target cell other than start. Cells in avoid
// are never entered. It returns nil when no target is reachable.
func NearestTarget(g *core.Grid, start core.Cell, targets, avoid CellSet) core.Path {
	parent := map[core.Cell]core.Cell{start: start}
	queue := []core.Cell{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current != start && targets.Has(current) {
			var path core.Path
			for c := current; c != start; c = parent[c] {
				path = append(path, c)
			}
			path = append(path, start)
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, n := range g.Neighbors(current) {
			if _, seen := parent[n]; seen || avoid.Has(n) {
				continue
			}
			parent[n] = current
			queue = append(queue, n)
		}
	}
	return nil
}

// ShortestPath is static A* from start to goal that never enters avoid.
// It returns nil when goal is unreachable.
func ShortestPath(g *core.Grid, start, goal core.Cell, avoid CellSet) core.Path {
	return algo.AStar(g, start, goal, avoid)
}
