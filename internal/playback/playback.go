// Package playback replays a committed multi-agent plan one time step at a time.
//
// Each agent runs a small behaviour tree per step:
//
//	Selector(arrived, Sequence(hasPath, advance))
//
// so arrived agents are skipped, agents without a path stay in planning, and
// everyone else moves one cell along its path.
package playback

import (
	"errors"
	"fmt"
	"sort"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// ErrIncompletePlan is returned when a solution lacks a path for an agent.
var ErrIncompletePlan = errors.New("playback: solution has no path for agent")

// AgentView is a snapshot of one agent during playback.
type AgentView struct {
	ID    core.AgentID
	Cell  core.Cell
	Goal  core.Cell
	State core.AgentState
}

type agentRun struct {
	id    core.AgentID
	goal  core.Cell
	path  core.Path
	index int
	cell  core.Cell
	state core.AgentState
	tree  bt.Node
}

// Player steps all agents of a solution in lockstep.
type Player struct {
	agents []*agentRun
	time   int
	steps  int
}

// New builds a player from a complete solution. Every agent of inst must
// have a path in sol; planning has to finish before playback starts.
func New(inst *core.Instance, sol *core.Solution) (*Player, error) {
	p := &Player{steps: sol.Steps()}
	for _, a := range inst.Agents {
		path, ok := sol.Paths[a.ID]
		if !ok {
			return nil, fmt.Errorf("agent %d: %w", a.ID, ErrIncompletePlan)
		}
		r := &agentRun{id: a.ID, goal: a.Goal, cell: a.Start, state: core.StatePlanning}
		r.tree = bt.New(
			bt.Selector,
			bt.New(r.arrived),
			bt.New(
				bt.Sequence,
				bt.New(r.hasPath),
				bt.New(r.advance),
			),
		)
		r.install(path)
		p.agents = append(p.agents, r)
	}
	sort.Slice(p.agents, func(i, j int) bool {
		return p.agents[i].id < p.agents[j].id
	})
	return p, nil
}

// install sets the committed path. Installing a non-empty path moves the
// agent out of planning.
func (r *agentRun) install(path core.Path) {
	r.path = path
	r.index = 0
	if len(path) == 0 {
		return
	}
	r.cell = path[0]
	r.state = core.StateMoving
	if r.cell == r.goal {
		r.state = core.StateArrived
	}
}

func (r *agentRun) arrived([]bt.Node) (bt.Status, error) {
	if r.state == core.StateArrived {
		return bt.Success, nil
	}
	return bt.Failure, nil
}

func (r *agentRun) hasPath([]bt.Node) (bt.Status, error) {
	if len(r.path) == 0 {
		return bt.Failure, nil
	}
	if r.state == core.StatePlanning {
		r.state = core.StateMoving
	}
	return bt.Success, nil
}

// advance moves one index along the path. It reports Running while the
// agent is still travelling and Failure once the path is exhausted away
// from the goal.
func (r *agentRun) advance([]bt.Node) (bt.Status, error) {
	if r.index < len(r.path)-1 {
		r.index++
		r.cell = r.path[r.index]
	}
	if r.cell == r.goal {
		r.state = core.StateArrived
		return bt.Success, nil
	}
	if r.index >= len(r.path)-1 {
		return bt.Failure, nil
	}
	return bt.Running, nil
}

func (r *agentRun) finished() bool {
	return r.state == core.StateArrived || r.index >= len(r.path)-1
}

// Step advances every non-arrived agent by one time index. It returns false
// without changing anything once playback is done.
func (p *Player) Step() (bool, error) {
	if p.Done() {
		return false, nil
	}
	p.time++
	for _, r := range p.agents {
		if _, err := r.tree.Tick(); err != nil {
			return false, fmt.Errorf("agent %d: %w", r.id, err)
		}
	}
	return true, nil
}

// Done reports whether every agent has arrived or exhausted its path.
func (p *Player) Done() bool {
	for _, r := range p.agents {
		if !r.finished() {
			return false
		}
	}
	return true
}

// Reset rewinds every agent to the start of its path.
func (p *Player) Reset() {
	p.time = 0
	for _, r := range p.agents {
		r.state = core.StatePlanning
		r.install(r.path)
	}
}

// Time returns the current time index.
func (p *Player) Time() int {
	return p.time
}

// Agents returns the agents ordered by id.
func (p *Player) Agents() []AgentView {
	out := make([]AgentView, len(p.agents))
	for i, r := range p.agents {
		out[i] = AgentView{ID: r.id, Cell: r.cell, Goal: r.goal, State: r.state}
	}
	return out
}

// Arrived counts agents in the arrived state.
func (p *Player) Arrived() int {
	n := 0
	for _, r := range p.agents {
		if r.state == core.StateArrived {
			n++
		}
	}
	return n
}

// Progress returns playback progress as 0-1.
func (p *Player) Progress() float64 {
	if p.Done() {
		return 1
	}
	if p.steps <= 1 {
		return 0
	}
	return float64(p.time) / float64(p.steps-1)
}
