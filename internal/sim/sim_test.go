package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
	"github.com/RudyMontoo/10-AITASK/internal/reactive"
)

func openInstance() *core.Instance {
	return core.NewInstance(core.MustGrid(5, 5),
		core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(2, 0)},
		core.Agent{ID: 2, Start: core.C(0, 4), Goal: core.C(4, 4)},
	)
}

func corridorWorld(t *testing.T) *reactive.World {
	t.Helper()
	g := core.MustGrid(5, 1)
	w, err := reactive.NewWorld(g, []core.Cell{core.C(0, 0)}, g.FreeCells())
	require.NoError(t, err)
	return w
}

func collect(frames *[]Frame) func(Frame) error {
	return func(f Frame) error {
		*frames = append(*frames, f)
		return nil
	}
}

func TestRunCooperative(t *testing.T) {
	coop := NewCooperative(openInstance(), nil)
	runner := NewRunner(Config{MaxSteps: 100}, nil)

	var frames []Frame
	m, err := runner.Run(context.Background(), coop, collect(&frames))
	require.NoError(t, err)

	require.Len(t, frames, 6, "init, four updates, complete")
	assert.Equal(t, FrameInit, frames[0].Type)
	assert.Equal(t, 5, frames[0].Width)
	assert.Equal(t, 0.0, frames[0].Progress)
	for i, f := range frames[1:5] {
		assert.Equal(t, FrameUpdate, f.Type)
		assert.Equal(t, i+1, f.Step)
		assert.Nil(t, f.Obstacles)
	}
	last := frames[5]
	assert.Equal(t, FrameComplete, last.Type)
	assert.Equal(t, 100.0, last.Progress)
	assert.Equal(t, AgentFrame{ID: 2, X: 4, Y: 4, GoalX: 4, GoalY: 4, State: "arrived"}, last.Agents[1])

	_, err = uuid.Parse(m.Run)
	assert.NoError(t, err)
	for _, f := range frames {
		assert.Equal(t, m.Run, f.Run)
	}
	assert.Equal(t, 4, m.Steps)
	assert.True(t, m.Completed)
	assert.Equal(t, 4, m.Makespan)
	assert.Equal(t, 6, m.SumOfCosts)
	assert.Equal(t, 1, m.PlanningSuccesses)
	assert.Equal(t, 0, m.ConflictsDetected)
	assert.Equal(t, 2, m.TasksCompleted)
	assert.Equal(t, []algo.Conflict(nil), coop.Conflicts())
}

func TestRunReactive(t *testing.T) {
	res, err := RunSimulation(NewReactive(corridorWorld(t)), 100)
	require.NoError(t, err)

	require.Len(t, res.Frames, 6)
	assert.Equal(t, 20.0, res.Frames[0].Progress)
	assert.Len(t, res.Frames[0].Targets, 4)
	assert.Empty(t, res.Frames[5].Targets)
	assert.Equal(t, 100.0, res.Frames[5].Progress)

	m := res.Metrics
	assert.True(t, m.Completed)
	assert.Equal(t, 4, m.Steps)
	assert.Equal(t, 4, m.Moves)
	assert.Equal(t, 4, m.ReplanEvents)
	assert.Equal(t, 5, m.TasksCompleted)
	assert.Equal(t, 5, m.TasksTotal)
}

func TestRunDelivery(t *testing.T) {
	g := core.MustGrid(5, 1)
	w, err := reactive.NewWorld(g, []core.Cell{core.C(0, 0)}, []core.Cell{core.C(2, 0)},
		reactive.WithDeliveries(map[core.Cell]core.Cell{core.C(2, 0): core.C(4, 0)}))
	require.NoError(t, err)

	res, err := RunSimulation(NewReactive(w), 100)
	require.NoError(t, err)

	require.Len(t, res.Frames, 6)
	assert.Equal(t, []core.Cell{core.C(4, 0)}, res.Frames[0].Drops)
	carrying := res.Frames[3]
	assert.Equal(t, AgentFrame{ID: 1, X: 3, Y: 0, GoalX: 4, GoalY: 0, State: "carrying"}, carrying.Agents[0])
	assert.Equal(t, []core.Cell{core.C(4, 0)}, carrying.Drops)
	assert.Equal(t, 0.0, carrying.Progress)
	assert.Empty(t, res.Frames[5].Drops)

	assert.Equal(t, 1, res.Metrics.TasksCompleted)
	assert.Equal(t, 1, res.Metrics.TasksTotal)
	assert.True(t, res.Metrics.Completed)
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	runner := NewRunner(Config{MaxSteps: 2}, nil)
	var frames []Frame
	m, err := runner.Run(context.Background(), NewReactive(corridorWorld(t)), collect(&frames))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Steps)
	assert.False(t, m.Completed)
	require.Len(t, frames, 4)
	assert.Equal(t, FrameComplete, frames[3].Type)
	assert.Equal(t, 60.0, frames[3].Progress)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(Config{Tick: time.Hour, MaxSteps: 10}, nil)
	var frames []Frame
	m, err := runner.Run(ctx, NewReactive(corridorWorld(t)), collect(&frames))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameInit, frames[0].Type)
	assert.Equal(t, 0, m.Steps)
	assert.False(t, m.Completed)
}

func TestRunnerStop(t *testing.T) {
	runner := NewRunner(Config{MaxSteps: 10}, nil)
	var frames []Frame
	_, err := runner.Run(context.Background(), NewReactive(corridorWorld(t)), func(f Frame) error {
		frames = append(frames, f)
		if f.Step == 1 {
			runner.Stop()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, frames, 2)

	// Stop without a run in progress is a no-op.
	runner.Stop()
}

func TestRunTicks(t *testing.T) {
	runner := NewRunner(Config{Tick: time.Millisecond, MaxSteps: 10}, nil)
	var frames []Frame
	m, err := runner.Run(context.Background(), NewReactive(corridorWorld(t)), collect(&frames))
	require.NoError(t, err)
	assert.Len(t, frames, 6)
	assert.True(t, m.EndTime.Sub(m.StartTime) >= 4*time.Millisecond)
}

func TestRunErrors(t *testing.T) {
	t.Run("init", func(t *testing.T) {
		inst := core.NewInstance(core.MustGrid(3, 3),
			core.Agent{ID: 1, Start: core.C(0, 0), Goal: core.C(2, 2)},
			core.Agent{ID: 2, Start: core.C(0, 0), Goal: core.C(1, 1)},
		)
		var frames []Frame
		m, err := NewRunner(DefaultConfig(), nil).Run(context.Background(), NewCooperative(inst, algo.NewPrioritized()), collect(&frames))
		assert.ErrorIs(t, err, core.ErrDuplicateStart)
		assert.Empty(t, frames)
		assert.Equal(t, 1, m.PlanningAttempts)
		assert.Equal(t, 0, m.PlanningSuccesses)
	})

	t.Run("emit", func(t *testing.T) {
		boom := errors.New("client gone")
		runner := NewRunner(Config{MaxSteps: 10}, nil)
		_, err := runner.Run(context.Background(), NewReactive(corridorWorld(t)), func(f Frame) error {
			if f.Type == FrameUpdate {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("step before init", func(t *testing.T) {
		_, err := NewCooperative(openInstance(), nil).Step()
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestCooperativeSnapshotBeforeInit(t *testing.T) {
	f := NewCooperative(openInstance(), nil).Snapshot()
	require.Len(t, f.Agents, 2)
	assert.Equal(t, "planning", f.Agents[0].State)
	assert.Equal(t, 2, f.Agents[0].GoalX)
}

func TestFrameJSON(t *testing.T) {
	f := Frame{
		Type:    FrameUpdate,
		Step:    3,
		Targets: []core.Cell{core.C(1, 2)},
		Agents:  []AgentFrame{{ID: 1, X: 0, Y: 1, GoalX: 1, GoalY: 2, State: "moving"}},
	}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "update",
		"step": 3,
		"targets": [{"x": 1, "y": 2}],
		"agents": [{"id": 1, "x": 0, "y": 1, "goal_x": 1, "goal_y": 2, "state": "moving"}],
		"progress": 0
	}`, string(b))
}

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, &Metrics{Run: "r", Steps: 7}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "r", got["run"])
	assert.Equal(t, 7.0, got["steps"])
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33.3, percent(1.0/3))
	assert.Equal(t, 66.7, percent(2.0/3))
	assert.Equal(t, 0.0, percent(0))
}
