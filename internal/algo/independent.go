package algo

import "github.com/RudyMontoo/10-AITASK/internal/core"

// Independent plans every agent alone, ignoring the others. It is the
// baseline that cooperative planning is measured against: its paths are
// individually optimal and usually collide.
type Independent struct {
	Horizon int
}

func (s *Independent) Name() string { return "Independent" }

// Solve implements Solver.
func (s *Independent) Solve(inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	sol := core.NewSolution()
	for _, a := range inst.Agents {
		sol.Order = append(sol.Order, a.ID)
		path := SpaceTimeAStar(inst.Grid, a.Start, a.Goal, nil, WithHorizon(s.Horizon))
		if path == nil {
			path = core.Path{a.Start}
			sol.Stranded = append(sol.Stranded, a.ID)
		}
		sol.Paths[a.ID] = path
	}
	sol.ComputeMetrics()
	return sol, nil
}
