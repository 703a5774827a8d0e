package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
)

func corridorInstance() *core.Instance {
	return core.NewInstance(core.MustGrid(3, 3, core.C(0, 1), core.C(2, 1)),
		core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(0, 2)},
		core.Agent{ID: 2, Start: core.C(2, 2), Goal: core.C(2, 0)},
	)
}

func TestPlayerReplaysPlan(t *testing.T) {
	inst := corridorInstance()
	sol, err := algo.NewPrioritized().Solve(inst)
	require.NoError(t, err)

	p, err := New(inst, sol)
	require.NoError(t, err)

	for _, a := range p.Agents() {
		assert.Equal(t, core.StateMoving, a.State)
	}

	steps := 0
	for {
		ok, err := p.Step()
		require.NoError(t, err)
		if !ok {
			break
		}
		steps++

		views := p.Agents()
		assert.NotEqual(t, views[0].Cell, views[1].Cell, "agents share a cell at t=%d", p.Time())
		for _, v := range views {
			want, _ := sol.Paths[v.ID].At(p.Time())
			assert.Equal(t, want, v.Cell)
		}
	}

	assert.Equal(t, sol.Makespan, steps)
	assert.Equal(t, 2, p.Arrived())
	assert.Equal(t, 1.0, p.Progress())
	for _, a := range p.Agents() {
		assert.Equal(t, core.StateArrived, a.State)
		assert.Equal(t, a.Goal, a.Cell)
	}
}

func TestArrivedAgentsAreSkipped(t *testing.T) {
	inst := core.NewInstance(core.MustGrid(4, 1),
		core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(1, 0)},
		core.Agent{ID: 2, Start: core.C(3, 0), Goal: core.C(3, 0)},
	)
	sol := core.NewSolution()
	sol.Paths[1] = core.Path{core.C(0, 0), core.C(1, 0)}
	sol.Paths[2] = core.Path{core.C(3, 0)}

	p, err := New(inst, sol)
	require.NoError(t, err)
	assert.Equal(t, core.StateArrived, p.Agents()[1].State, "start equals goal")

	ok, err := p.Step()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, core.StateArrived, p.Agents()[0].State)
	assert.Equal(t, core.C(3, 0), p.Agents()[1].Cell)

	ok, err = p.Step()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, p.Time())
}

func TestStrandedAgentHolds(t *testing.T) {
	inst := core.NewInstance(core.MustGrid(3, 1),
		core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(2, 0)},
		core.Agent{ID: 2, Start: core.C(1, 0), Goal: core.C(1, 0)},
	)
	sol := core.NewSolution()
	sol.Paths[1] = core.Path{core.C(0, 0)}
	sol.Paths[2] = core.Path{core.C(1, 0)}

	p, err := New(inst, sol)
	require.NoError(t, err)
	assert.True(t, p.Done())

	ok, err := p.Step()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, core.StateMoving, p.Agents()[0].State)
	assert.Equal(t, core.C(0, 0), p.Agents()[0].Cell)
}

func TestNewRejectsIncompletePlan(t *testing.T) {
	inst := corridorInstance()
	sol := core.NewSolution()
	sol.Paths[1] = core.Path{core.C(0, 0)}

	_, err := New(inst, sol)
	assert.ErrorIs(t, err, ErrIncompletePlan)
}

func TestEmptyPathStaysPlanning(t *testing.T) {
	inst := core.NewInstance(core.MustGrid(2, 1), core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(1, 0)})
	sol := core.NewSolution()
	sol.Paths[1] = nil

	p, err := New(inst, sol)
	require.NoError(t, err)
	assert.Equal(t, core.StatePlanning, p.Agents()[0].State)
	assert.True(t, p.Done())
}

func TestReset(t *testing.T) {
	inst := corridorInstance()
	sol, err := algo.NewPrioritized().Solve(inst)
	require.NoError(t, err)

	p, err := New(inst, sol)
	require.NoError(t, err)
	for !p.Done() {
		_, err := p.Step()
		require.NoError(t, err)
	}

	p.Reset()
	assert.Equal(t, 0, p.Time())
	assert.Equal(t, 0, p.Arrived())
	assert.Equal(t, core.C(0, 0), p.Agents()[0].Cell)
	assert.Equal(t, 0.0, p.Progress())
}
