package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
	"github.com/RudyMontoo/10-AITASK/internal/playback"
	"github.com/RudyMontoo/10-AITASK/internal/reactive"
)

// ErrNotInitialized is returned when a simulation is stepped before Init.
var ErrNotInitialized = errors.New("sim: simulation not initialized")

// Simulation is a steppable simulation.
type Simulation interface {
	// Init prepares the first state. Cooperative simulations plan here.
	Init() error
	// Step advances one time step. It returns false once nothing is left to do.
	Step() (bool, error)
	// Done reports whether the simulation reached its end state.
	Done() bool
	// Snapshot returns the current state.
	Snapshot() Frame
	// Report adds simulation specific counters to m.
	Report(m *Metrics)
}

// Cooperative plans every agent up front, then replays the plan.
type Cooperative struct {
	inst   *core.Instance
	solver algo.Solver

	solution  *core.Solution
	player    *playback.Player
	conflicts []algo.Conflict
	planTime  time.Duration
}

// NewCooperative creates a cooperative simulation of inst.
func NewCooperative(inst *core.Instance, solver algo.Solver) *Cooperative {
	if solver == nil {
		solver = algo.NewPrioritized()
	}
	return &Cooperative{inst: inst, solver: solver}
}

// Init runs the solver. Playback starts only after every path is committed.
func (c *Cooperative) Init() error {
	start := time.Now()
	sol, err := c.solver.Solve(c.inst)
	c.planTime = time.Since(start)
	if err != nil {
		return fmt.Errorf("%s: %w", c.solver.Name(), err)
	}
	player, err := playback.New(c.inst, sol)
	if err != nil {
		return err
	}
	c.solution = sol
	c.player = player
	c.conflicts = algo.FindConflicts(sol.Paths)
	return nil
}

func (c *Cooperative) Step() (bool, error) {
	if c.player == nil {
		return false, ErrNotInitialized
	}
	return c.player.Step()
}

func (c *Cooperative) Done() bool {
	return c.player != nil && c.player.Done()
}

// Solution returns the committed plan, or nil before Init.
func (c *Cooperative) Solution() *core.Solution {
	return c.solution
}

// Conflicts returns the diagnostics of the committed plan.
func (c *Cooperative) Conflicts() []algo.Conflict {
	return c.conflicts
}

func (c *Cooperative) Snapshot() Frame {
	g := c.inst.Grid
	f := Frame{
		Width:     g.Width,
		Height:    g.Height,
		Obstacles: g.Obstacles(),
	}
	if c.player == nil {
		for _, a := range c.inst.Agents {
			f.Agents = append(f.Agents, agentFrame(a.ID, a.Start, a.Goal, core.StatePlanning))
		}
		return f
	}
	f.Step = c.player.Time()
	for _, v := range c.player.Agents() {
		f.Agents = append(f.Agents, agentFrame(v.ID, v.Cell, v.Goal, v.State))
	}
	if n := len(c.inst.Agents); n > 0 {
		f.Progress = percent(float64(c.player.Arrived()) / float64(n))
	}
	return f
}

func (c *Cooperative) Report(m *Metrics) {
	m.PlanningAttempts++
	m.TotalPlanningTimeMs += float64(c.planTime.Microseconds()) / 1000
	if c.solution == nil {
		return
	}
	m.PlanningSuccesses++
	m.Makespan = c.solution.Makespan
	m.SumOfCosts = c.solution.Cost
	m.Stranded = len(c.solution.Stranded)
	m.ConflictsDetected = len(c.conflicts)
	m.TasksTotal = len(c.inst.Agents)
	if c.player != nil {
		m.TasksCompleted = c.player.Arrived()
	}
}

// Reactive wraps a reactive world.
type Reactive struct {
	world *reactive.World
}

// NewReactive creates a simulation of w.
func NewReactive(w *reactive.World) *Reactive {
	return &Reactive{world: w}
}

func (r *Reactive) Init() error {
	return nil
}

func (r *Reactive) Step() (bool, error) {
	return r.world.Step(), nil
}

func (r *Reactive) Done() bool {
	return r.world.Done()
}

func (r *Reactive) Snapshot() Frame {
	g := r.world.Grid()
	f := Frame{
		Step:      r.world.Stats().Steps,
		Width:     g.Width,
		Height:    g.Height,
		Obstacles: g.Obstacles(),
		Targets:   r.world.Remaining(),
		Drops:     r.world.Drops(),
		Progress:  percent(r.world.Progress()),
	}
	for _, v := range r.world.Agents() {
		f.Agents = append(f.Agents, agentFrame(v.ID, v.Cell, v.Target, v.State))
	}
	return f
}

func (r *Reactive) Report(m *Metrics) {
	st := r.world.Stats()
	m.ReplanEvents = st.Replans
	m.Refusals = st.Refusals
	m.Moves = st.Moves
	total := 0
	for _, v := range r.world.Agents() {
		total += v.Completed
	}
	m.TasksCompleted = total
	m.TasksTotal = r.world.Total()
}

func agentFrame(id core.AgentID, at, goal core.Cell, state core.AgentState) AgentFrame {
	return AgentFrame{ID: id, X: at.X, Y: at.Y, GoalX: goal.X, GoalY: goal.Y, State: state.String()}
}
