package core

import (
	"errors"
	"fmt"
)

// Instance validation errors.
var (
	ErrNoGrid         = errors.New("core: instance has no grid")
	ErrDuplicateAgent = errors.New("core: duplicate agent id")
	ErrDuplicateStart = errors.New("core: duplicate start cell")
)

// Instance is a cooperative planning problem: one grid and its agents.
type Instance struct {
	Grid   *Grid
	Agents []Agent
}

// NewInstance creates an instance over g.
func NewInstance(g *Grid, agents ...Agent) *Instance {
	return &Instance{Grid: g, Agents: agents}
}

// Validate checks that every start and goal is a valid cell, agent ids are
// unique and no two agents share a start cell.
func (inst *Instance) Validate() error {
	if inst.Grid == nil {
		return ErrNoGrid
	}
	ids := make(map[AgentID]struct{}, len(inst.Agents))
	starts := make(map[Cell]AgentID, len(inst.Agents))
	for _, a := range inst.Agents {
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("agent %d: %w", a.ID, ErrDuplicateAgent)
		}
		ids[a.ID] = struct{}{}

		if err := inst.Grid.Check(a.Start); err != nil {
			return fmt.Errorf("agent %d start: %w", a.ID, err)
		}
		if err := inst.Grid.Check(a.Goal); err != nil {
			return fmt.Errorf("agent %d goal: %w", a.ID, err)
		}
		if other, dup := starts[a.Start]; dup {
			return fmt.Errorf("agents %d and %d at %v: %w", other, a.ID, a.Start, ErrDuplicateStart)
		}
		starts[a.Start] = a.ID
	}
	return nil
}

// AgentByID finds an agent by id.
func (inst *Instance) AgentByID(id AgentID) (Agent, bool) {
	for _, a := range inst.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}
