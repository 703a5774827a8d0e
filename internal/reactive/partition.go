package reactive

import "github.com/RudyMontoo/10-AITASK/internal/core"

// PartitionStrips splits the grid into n vertical strips of near-equal
// width. Strip i covers x in [i*W/n, (i+1)*W/n). Blocked cells are left out.
func PartitionStrips(g *core.Grid, n int) []CellSet {
	if n <= 0 {
		return nil
	}
	zones := make([]CellSet, n)
	for i := range zones {
		zones[i] = make(CellSet)
	}
	for _, c := range g.FreeCells() {
		i := 0
		for i+1 < n && c.X >= (i+1)*g.Width/n {
			i++
		}
		zones[i][c] = struct{}{}
	}
	return zones
}

// PartitionQuadrants splits the grid at its midpoints into four zones:
// lower left, lower right, upper left, upper right.
func PartitionQuadrants(g *core.Grid) []CellSet {
	zones := make([]CellSet, 4)
	for i := range zones {
		zones[i] = make(CellSet)
	}
	midX, midY := g.Width/2, g.Height/2
	for _, c := range g.FreeCells() {
		i := 0
		if c.X >= midX {
			i++
		}
		if c.Y >= midY {
			i += 2
		}
		zones[i][c] = struct{}{}
	}
	return zones
}

// AssignNearest gives every target to the agent start with the smallest
// Manhattan distance; ties go to the lower index.
func AssignNearest(targets []core.Cell, starts []core.Cell) []CellSet {
	zones := make([]CellSet, len(starts))
	for i := range zones {
		zones[i] = make(CellSet)
	}
	if len(starts) == 0 {
		return zones
	}
	for _, t := range targets {
		best := 0
		for i := 1; i < len(starts); i++ {
			if core.Manhattan(t, starts[i]) < core.Manhattan(t, starts[best]) {
				best = i
			}
		}
		zones[best][t] = struct{}{}
	}
	return zones
}

// AssignGreedy deals targets out in rounds: in each round every agent, in
// index order, takes the remaining target nearest its start by Manhattan
// distance. Ties go to the earlier target in the list.
func AssignGreedy(targets []core.Cell, starts []core.Cell) []CellSet {
	zones := make([]CellSet, len(starts))
	for i := range zones {
		zones[i] = make(CellSet)
	}
	available := append([]core.Cell(nil), targets...)
	for len(available) > 0 && len(starts) > 0 {
		for i, s := range starts {
			if len(available) == 0 {
				break
			}
			best := 0
			for j := 1; j < len(available); j++ {
				if core.Manhattan(s, available[j]) < core.Manhattan(s, available[best]) {
					best = j
				}
			}
			zones[i][available[best]] = struct{}{}
			available = append(available[:best], available[best+1:]...)
		}
	}
	return zones
}
