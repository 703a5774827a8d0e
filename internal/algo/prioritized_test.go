package algo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

func TestReservationsCommitIsImmutable(t *testing.T) {
	base := NewReservations()
	one := base.Commit(core.Path{core.C(0, 0), core.C(1, 0)}, 0)
	two := one.Commit(core.Path{core.C(1, 0), core.C(1, 0)}, 1) // (1,(1,0)) already reserved

	assert.Equal(t, 0, base.Len())
	assert.Equal(t, -1, base.Horizon())
	assert.False(t, base.Reserved(0, core.C(0, 0)))

	assert.Equal(t, 2, one.Len())
	assert.Equal(t, 1, one.Horizon())
	assert.False(t, one.Reserved(2, core.C(1, 0)))

	assert.Equal(t, 3, two.Len())
	assert.Equal(t, 2, two.Horizon())
	assert.True(t, two.Reserved(0, core.C(0, 0)))
	assert.True(t, two.Reserved(2, core.C(1, 0)))

	var nilTable *Reservations
	assert.Equal(t, 1, nilTable.Commit(core.Path{core.C(0, 0)}, 0).Len())
}

func TestPriorityOrders(t *testing.T) {
	agents := []core.Agent{
		{ID: 3, Start: core.C(0, 0), Goal: core.C(1, 0)}, // 1
		{ID: 1, Start: core.C(0, 1), Goal: core.C(4, 1)}, // 4
		{ID: 2, Start: core.C(0, 2), Goal: core.C(1, 2)}, // 1
		{ID: 4, Start: core.C(0, 3), Goal: core.C(2, 3)}, // 2
	}

	tests := []struct {
		name string
		fn   PriorityFunc
		want []int
	}{
		{"distance desc", ByDistanceDesc, []int{1, 3, 0, 2}},
		{"distance asc", ByDistanceAsc, []int{0, 2, 3, 1}},
		{"id", ByIDAsc, []int{1, 2, 0, 3}},
		{"input", ByInputOrder, []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(agents))
		})
	}
}

func TestPlanCorridor(t *testing.T) {
	inst := createTestInstance()

	paths, err := Plan(inst.Agents, inst.Grid)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	a, b := paths[0], paths[1]
	assert.Len(t, a, 5, "first agent gets the unobstructed route")
	assert.Zero(t, a.Waits())
	assert.Len(t, b, 6)
	assert.Positive(t, b.Waits(), "second agent waits to let the first through")

	for i, p := range paths {
		last, _ := p.Last()
		assert.Equal(t, inst.Agents[i].Goal, last)
	}

	byID := map[core.AgentID]core.Path{1: a, 2: b}
	conflicts := FindConflicts(byID)
	// Edge swaps are not reserved, so the agents pass through each other in
	// the corridor. Only that swap is reported.
	require.Len(t, conflicts, 1)
	assert.Equal(t, SwapConflict, conflicts[0].Kind)
	assert.Equal(t, 2, conflicts[0].Time)
}

func TestPlanOpenGrid(t *testing.T) {
	g := core.MustGrid(5, 5)
	agents := []core.Agent{
		{ID: 1, Start: core.C(0, 0), Goal: core.C(4, 4)},
		{ID: 2, Start: core.C(4, 0), Goal: core.C(0, 4)},
	}

	// Both goals are 8 away, so input order decides.
	assert.Equal(t, []int{0, 1}, ByDistanceDesc(agents))

	paths, err := Plan(agents, g)
	require.NoError(t, err)

	// Up is expanded before right, so agent 1 climbs the left column.
	// Agent 2 leaves the top row early because agent 1 holds (2,4) at t=6.
	assert.Equal(t, core.Path{
		core.C(0, 0), core.C(0, 1), core.C(0, 2), core.C(0, 3), core.C(0, 4),
		core.C(1, 4), core.C(2, 4), core.C(3, 4), core.C(4, 4),
	}, paths[0])
	assert.Equal(t, core.Path{
		core.C(4, 0), core.C(4, 1), core.C(4, 2), core.C(4, 3), core.C(3, 3),
		core.C(2, 3), core.C(1, 3), core.C(1, 4), core.C(0, 4),
	}, paths[1])

	for i, p := range paths {
		assert.Len(t, p, 9)
		assert.True(t, p.Valid(g))
		last, _ := p.Last()
		assert.Equal(t, agents[i].Goal, last, "replaying the path lands on the goal")
	}

	shortest := min(len(paths[0]), len(paths[1]))
	for step := 0; step < shortest; step++ {
		assert.NotEqual(t, paths[0][step], paths[1][step], "shared cell at t=%d", step)
	}
}

func TestPlanDeterministic(t *testing.T) {
	g := core.MustGrid(8, 8, core.C(3, 3), core.C(4, 3), core.C(3, 4))
	agents := []core.Agent{
		{ID: 1, Start: core.C(0, 0), Goal: core.C(7, 7)},
		{ID: 2, Start: core.C(7, 0), Goal: core.C(0, 7)},
		{ID: 3, Start: core.C(0, 7), Goal: core.C(7, 0)},
		{ID: 4, Start: core.C(7, 7), Goal: core.C(0, 0)},
	}

	first, err := Plan(agents, g)
	require.NoError(t, err)
	second, err := Plan(agents, g)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	byID := make(map[core.AgentID]core.Path)
	for i, p := range first {
		byID[agents[i].ID] = p
	}
	for _, c := range FindConflicts(byID) {
		assert.NotEqual(t, VertexConflict, c.Kind, "%v", c)
	}
}

func TestPlanStartEqualsGoal(t *testing.T) {
	paths, err := Plan([]core.Agent{{ID: 1, Start: core.C(2, 2), Goal: core.C(2, 2)}}, core.MustGrid(3, 3))
	require.NoError(t, err)
	assert.Equal(t, []core.Path{{core.C(2, 2)}}, paths)
	assert.Zero(t, paths[0].Cost())
}

func TestPlanStranded(t *testing.T) {
	inst := core.NewInstance(core.MustGrid(3, 2, core.C(1, 0), core.C(1, 1)),
		core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(2, 0)},
		core.Agent{ID: 2, Start: core.C(2, 1), Goal: core.C(2, 0)},
	)

	sol, err := NewPrioritized().Solve(inst)
	require.NoError(t, err)
	assert.Equal(t, []core.AgentID{1}, sol.Stranded)
	assert.Equal(t, core.Path{core.C(0, 0)}, sol.Paths[1])
	assert.Equal(t, core.Path{core.C(2, 1), core.C(2, 0)}, sol.Paths[2])
	assert.Equal(t, 1, sol.Makespan)
	assert.False(t, sol.Complete())
}

func TestPlanPreconditions(t *testing.T) {
	g := core.MustGrid(3, 3, core.C(1, 1))

	tests := []struct {
		name   string
		agents []core.Agent
		want   error
	}{
		{"start out of bounds", []core.Agent{{ID: 1, Start: core.C(-1, 0), Goal: core.C(0, 0)}}, core.ErrOutOfBounds},
		{"goal blocked", []core.Agent{{ID: 1, Start: core.C(0, 0), Goal: core.C(1, 1)}}, core.ErrBlocked},
		{"duplicate id", []core.Agent{
			{ID: 1, Start: core.C(0, 0), Goal: core.C(2, 2)},
			{ID: 1, Start: core.C(2, 0), Goal: core.C(0, 2)},
		}, core.ErrDuplicateAgent},
		{"shared start", []core.Agent{
			{ID: 1, Start: core.C(0, 0), Goal: core.C(2, 2)},
			{ID: 2, Start: core.C(0, 0), Goal: core.C(0, 2)},
		}, core.ErrDuplicateStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.agents, g)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrioritizedSolutionOrder(t *testing.T) {
	inst := createTestInstance()

	sol, err := (&Prioritized{Priority: ByDistanceAsc}).Solve(inst)
	require.NoError(t, err)
	assert.Equal(t, []core.AgentID{1, 2}, sol.Order)
	assert.Equal(t, 5, sol.Makespan)
	assert.Equal(t, 9, sol.Cost)
}

func ExamplePlan() {
	g := core.MustGrid(3, 3, core.C(0, 1), core.C(2, 1))
	agents := []core.Agent{
		{ID: 1, Start: core.C(0, 0), Goal: core.C(0, 2)},
		{ID: 2, Start: core.C(2, 2), Goal: core.C(2, 0)},
	}

	paths, err := Plan(agents, g)
	if err != nil {
		fmt.Println(err)
		return
	}
	for i, p := range paths {
		fmt.Printf("agent %d: %v\n", agents[i].ID, p)
	}
	// Output:
	// agent 1: [(0,0) (1,0) (1,1) (1,2) (0,2)]
	// agent 2: [(2,2) (2,2) (1,2) (1,1) (1,0) (2,0)]
}
