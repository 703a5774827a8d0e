package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

func TestSpaceTimeAStar(t *testing.T) {
	tests := []struct {
		name     string
		grid     *core.Grid
		start    core.Cell
		goal     core.Cell
		reserved *Reservations
		want     core.Path
	}{
		{
			name:  "start equals goal",
			grid:  core.MustGrid(3, 3),
			start: core.C(1, 1),
			goal:  core.C(1, 1),
			want:  core.Path{core.C(1, 1)},
		},
		{
			name:  "straight line",
			grid:  core.MustGrid(5, 1),
			start: core.C(0, 0),
			goal:  core.C(4, 0),
			want:  core.Path{core.C(0, 0), core.C(1, 0), core.C(2, 0), core.C(3, 0), core.C(4, 0)},
		},
		{
			name:  "ties expand up before right",
			grid:  core.MustGrid(3, 3),
			start: core.C(0, 0),
			goal:  core.C(1, 1),
			want:  core.Path{core.C(0, 0), core.C(0, 1), core.C(1, 1)},
		},
		{
			name:     "waits for a reserved cell",
			grid:     core.MustGrid(3, 1),
			start:    core.C(0, 0),
			goal:     core.C(2, 0),
			reserved: NewReservations().Commit(core.Path{core.C(1, 0)}, 1),
			want:     core.Path{core.C(0, 0), core.C(0, 0), core.C(1, 0), core.C(2, 0)},
		},
		{
			name:     "goal reserved for a while",
			grid:     core.MustGrid(2, 1),
			start:    core.C(0, 0),
			goal:     core.C(1, 0),
			reserved: NewReservations().Commit(core.Path{core.C(1, 0), core.C(1, 0), core.C(1, 0), core.C(1, 0), core.C(1, 0)}, 1),
			want: core.Path{
				core.C(0, 0), core.C(0, 0), core.C(0, 0), core.C(0, 0), core.C(0, 0), core.C(0, 0), core.C(1, 0),
			},
		},
		{
			name:  "walled off",
			grid:  core.MustGrid(3, 1, core.C(1, 0)),
			start: core.C(0, 0),
			goal:  core.C(2, 0),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpaceTimeAStar(tt.grid, tt.start, tt.goal, tt.reserved)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpaceTimeAStarStartTime(t *testing.T) {
	g := core.MustGrid(3, 1)
	// Reserved at absolute t=4, which is step 1 of a search starting at t=3.
	res := NewReservations().Commit(core.Path{core.C(1, 0)}, 4)

	got := SpaceTimeAStar(g, core.C(0, 0), core.C(2, 0), res, WithStartTime(3))
	assert.Equal(t, core.Path{core.C(0, 0), core.C(0, 0), core.C(1, 0), core.C(2, 0)}, got)

	got = SpaceTimeAStar(g, core.C(0, 0), core.C(2, 0), res)
	assert.Equal(t, core.Path{core.C(0, 0), core.C(1, 0), core.C(2, 0)}, got)
}

func TestSpaceTimeAStarHorizon(t *testing.T) {
	g := core.MustGrid(5, 1)

	var stats SearchStats
	got := SpaceTimeAStar(g, core.C(0, 0), core.C(4, 0), nil, WithHorizon(2), WithStats(&stats))
	assert.Nil(t, got, "goal is 4 steps away, beyond the horizon")
	assert.Equal(t, 2, stats.Horizon)

	got = SpaceTimeAStar(g, core.C(0, 0), core.C(4, 0), nil, WithStats(&stats))
	require.Len(t, got, 5)
	assert.Equal(t, 5, stats.Horizon, "default horizon is width*height past t=0")
	assert.Positive(t, stats.Expanded)
}

func TestSpaceTimeAStarAvoid(t *testing.T) {
	g := core.MustGrid(3, 2)

	got := SpaceTimeAStar(g, core.C(0, 0), core.C(2, 0), nil, WithAvoid(core.C(1, 0)))
	assert.Equal(t, core.Path{core.C(0, 0), core.C(0, 1), core.C(1, 1), core.C(2, 1), core.C(2, 0)}, got)
}

func TestSearchAvoidsReservations(t *testing.T) {
	g := core.MustGrid(4, 4)
	first := Search(g, core.C(0, 0), core.C(3, 3), nil)
	require.NotNil(t, first)

	res := NewReservations().Commit(first, 0)
	second := Search(g, core.C(3, 0), core.C(0, 3), res)
	require.NotNil(t, second)

	for i, c := range second {
		assert.False(t, res.Reserved(i, c), "step %d at %v is reserved", i, c)
	}
	last, _ := second.Last()
	assert.Equal(t, core.C(0, 3), last)
}

func TestSearchDeterministic(t *testing.T) {
	g := core.MustGrid(6, 6, core.C(2, 2), core.C(3, 2), core.C(2, 3))
	res := NewReservations().Commit(core.Path{core.C(0, 1), core.C(1, 1), core.C(1, 2)}, 0)

	a := Search(g, core.C(0, 0), core.C(5, 5), res)
	b := Search(g, core.C(0, 0), core.C(5, 5), res)
	assert.Equal(t, a, b)
}

func BenchmarkSpaceTimeAStar(b *testing.B) {
	g := core.MustGrid(32, 32)
	res := NewReservations()
	for x := 0; x < 32; x++ {
		res = res.Commit(core.Path{core.C(x, 16)}, x)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SpaceTimeAStar(g, core.C(0, 0), core.C(31, 31), res)
	}
}
