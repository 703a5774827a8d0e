package algo

import (
	"log/slog"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

type planOptions struct {
	priority PriorityFunc
	horizon  int
	logger   *slog.Logger
}

// PlanOption configures Plan.
type PlanOption func(*planOptions)

// WithPriority replaces the default ByDistanceDesc planning order.
func WithPriority(fn PriorityFunc) PlanOption {
	return func(o *planOptions) {
		if fn != nil {
			o.priority = fn
		}
	}
}

// WithSearchHorizon caps every per-agent search; see WithHorizon.
func WithSearchHorizon(t int) PlanOption {
	return func(o *planOptions) { o.horizon = t }
}

// WithLogger logs one debug record per planned agent.
func WithLogger(l *slog.Logger) PlanOption {
	return func(o *planOptions) { o.logger = l }
}

// Plan computes one path per agent, in input order, such that no two agents
// occupy the same cell at the same index. Agents are planned one at a time in
// priority order; each found path is committed to the reservations before the
// next agent is searched. An agent with no path gets [start] and reserves
// nothing.
//
// Invalid input (start or goal outside the grid or blocked, duplicate ids,
// shared start cells) is rejected before any planning.
func Plan(agents []core.Agent, g *core.Grid, opts ...PlanOption) ([]core.Path, error) {
	res, err := plan(agents, g, opts...)
	if err != nil {
		return nil, err
	}
	return res.paths, nil
}

type planResult struct {
	paths        []core.Path
	order        []int
	stranded     []int
	reservations *Reservations
}

func plan(agents []core.Agent, g *core.Grid, opts ...PlanOption) (*planResult, error) {
	o := planOptions{priority: ByDistanceDesc}
	for _, opt := range opts {
		opt(&o)
	}
	if err := core.NewInstance(g, agents...).Validate(); err != nil {
		return nil, err
	}

	res := &planResult{
		paths:        make([]core.Path, len(agents)),
		order:        o.priority(agents),
		reservations: NewReservations(),
	}

	for _, i := range res.order {
		a := agents[i]
		path := SpaceTimeAStar(g, a.Start, a.Goal, res.reservations, WithHorizon(o.horizon))
		if path == nil {
			res.paths[i] = core.Path{a.Start}
			res.stranded = append(res.stranded, i)
			if o.logger != nil {
				o.logger.Debug("no path", "agent", a.ID, "start", a.Start, "goal", a.Goal)
			}
			continue
		}
		res.paths[i] = path
		res.reservations = res.reservations.Commit(path, 0)
		if o.logger != nil {
			o.logger.Debug("planned", "agent", a.ID, "len", len(path), "waits", path.Waits())
		}
	}
	return res, nil
}

// Prioritized implements cooperative prioritized planning.
type Prioritized struct {
	Priority PriorityFunc
	// PriorityName is reported by Name; empty means the default order.
	PriorityName string
	Horizon      int
	Logger       *slog.Logger
}

// NewPrioritized creates a prioritized planning solver with the default
// farthest-first order.
func NewPrioritized() *Prioritized {
	return &Prioritized{Priority: ByDistanceDesc}
}

func (p *Prioritized) Name() string {
	if p.PriorityName == "" {
		return "Prioritized"
	}
	return "Prioritized/" + p.PriorityName
}

// Solve implements prioritized planning.
func (p *Prioritized) Solve(inst *core.Instance) (*core.Solution, error) {
	opts := []PlanOption{WithPriority(p.Priority), WithSearchHorizon(p.Horizon)}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	res, err := plan(inst.Agents, inst.Grid, opts...)
	if err != nil {
		return nil, err
	}

	sol := core.NewSolution()
	for i, a := range inst.Agents {
		sol.Paths[a.ID] = res.paths[i]
	}
	for _, i := range res.order {
		sol.Order = append(sol.Order, inst.Agents[i].ID)
	}
	for _, i := range res.stranded {
		sol.Stranded = append(sol.Stranded, inst.Agents[i].ID)
	}
	sol.ComputeMetrics()
	return sol, nil
}
