// Package algo implements cooperative multi-agent path planning on grids:
// space-time A*, the reservation table and prioritized planning.
package algo

import (
	"fmt"
	"sort"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// Solver is the interface for multi-agent planners.
type Solver interface {
	// Solve plans every agent of the instance. Agents without a path are
	// listed in Solution.Stranded; only invalid instances return an error.
	Solve(inst *core.Instance) (*core.Solution, error)

	// Name returns the algorithm name.
	Name() string
}

// ConflictKind classifies a collision between two paths.
type ConflictKind int

const (
	// VertexConflict: both agents occupy the same cell at the same index,
	// within both paths' lengths.
	VertexConflict ConflictKind = iota
	// SwapConflict: the agents exchange cells between two consecutive indexes.
	SwapConflict
	// ParkedConflict: one agent has finished its path and holds its last
	// cell while the other passes through it.
	ParkedConflict
)

func (k ConflictKind) String() string {
	switch k {
	case VertexConflict:
		return "vertex"
	case SwapConflict:
		return "swap"
	case ParkedConflict:
		return "parked"
	}
	return fmt.Sprintf("ConflictKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k ConflictKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *ConflictKind) UnmarshalText(text []byte) error {
	for _, kind := range []ConflictKind{VertexConflict, SwapConflict, ParkedConflict} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown conflict kind %q", text)
}

// Conflict represents a collision between two agents.
type Conflict struct {
	Kind   ConflictKind `json:"kind"`
	Agent1 core.AgentID `json:"agent1"`
	Agent2 core.AgentID `json:"agent2"`
	Cell   core.Cell    `json:"cell"`
	Time   int          `json:"time"`
	// For swap conflicts: the cell Agent1 moves into at Time+1
	To core.Cell `json:"to"`
}

func (c Conflict) String() string {
	if c.Kind == SwapConflict {
		return fmt.Sprintf("%s agents %d/%d %v<->%v at t=%d", c.Kind, c.Agent1, c.Agent2, c.Cell, c.To, c.Time)
	}
	return fmt.Sprintf("%s agents %d/%d at %v t=%d", c.Kind, c.Agent1, c.Agent2, c.Cell, c.Time)
}

func newConflict(kind ConflictKind, a1, a2 core.AgentID, cell core.Cell, t int) Conflict {
	return Conflict{Kind: kind, Agent1: a1, Agent2: a2, Cell: cell, Time: t}
}

// sortedAgentIDs returns sorted agent IDs from paths map.
func sortedAgentIDs(paths map[core.AgentID]core.Path) []core.AgentID {
	ids := make([]core.AgentID, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// FindConflicts reports every vertex, swap and parked conflict in paths,
// ordered by time, then agent pair. The planners never consult it; it is
// a diagnostic over their output.
func FindConflicts(paths map[core.AgentID]core.Path) []Conflict {
	var conflicts []Conflict
	ids := sortedAgentIDs(paths)

	steps := 0
	for _, p := range paths {
		steps = max(steps, len(p))
	}

	for t := 0; t < steps; t++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				p1, p2 := paths[ids[i]], paths[ids[j]]
				c1, ok1 := p1.At(t)
				c2, ok2 := p2.At(t)
				if !ok1 || !ok2 {
					continue
				}

				if c1 == c2 {
					kind := VertexConflict
					if t >= len(p1) || t >= len(p2) {
						kind = ParkedConflict
					}
					conflicts = append(conflicts, newConflict(kind, ids[i], ids[j], c1, t))
					continue
				}

				n1, _ := p1.At(t + 1)
				n2, _ := p2.At(t + 1)
				if t+1 < steps && n1 == c2 && n2 == c1 {
					c := newConflict(SwapConflict, ids[i], ids[j], c1, t)
					c.To = n1
					conflicts = append(conflicts, c)
				}
			}
		}
	}

	return conflicts
}

// FindFirstConflict returns the earliest conflict in paths, or nil.
func FindFirstConflict(paths map[core.AgentID]core.Path) *Conflict {
	conflicts := FindConflicts(paths)
	if len(conflicts) == 0 {
		return nil
	}
	return &conflicts[0]
}

// CountConflicts tallies conflicts by kind.
func CountConflicts(conflicts []Conflict) map[ConflictKind]int {
	counts := make(map[ConflictKind]int)
	for _, c := range conflicts {
		counts[c.Kind]++
	}
	return counts
}
