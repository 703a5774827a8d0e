package algo

import (
	"container/heap"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// astarNode for priority queue.
type astarNode struct {
	state  SpaceTimeState
	g      int // Transitions so far
	f      int // g + h
	seq    int // Insertion order, breaks f ties FIFO
	parent *astarNode
	index  int // heap index
}

// astarHeap implements heap.Interface.
type astarHeap []*astarNode

func (h astarHeap) Len() int { return len(h) }
func (h astarHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h astarHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *astarHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *astarHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// SearchStats records the work done by one search.
type SearchStats struct {
	Pushed   int
	Expanded int
	Horizon  int
}

type searchOptions struct {
	startTime int
	horizon   int
	avoid     map[core.Cell]struct{}
	stats     *SearchStats
}

// SearchOption configures SpaceTimeAStar.
type SearchOption func(*searchOptions)

// WithStartTime sets the time of the start state. Reservations are checked
// against absolute time, so a path found from t0 occupies path[i] at t0+i.
func WithStartTime(t int) SearchOption {
	return func(o *searchOptions) { o.startTime = t }
}

// WithHorizon caps the time of expanded states. Zero or negative keeps the
// default of max(latest reservation, start time) + width*height.
func WithHorizon(t int) SearchOption {
	return func(o *searchOptions) { o.horizon = t }
}

// WithAvoid treats cells as blocked at every time step.
func WithAvoid(cells ...core.Cell) SearchOption {
	return func(o *searchOptions) {
		if o.avoid == nil {
			o.avoid = make(map[core.Cell]struct{}, len(cells))
		}
		for _, c := range cells {
			o.avoid[c] = struct{}{}
		}
	}
}

// WithStats collects search counters into s.
func WithStats(s *SearchStats) SearchOption {
	return func(o *searchOptions) { o.stats = s }
}

// Search finds a minimum-time path from start to goal that avoids every
// reserved state. It returns nil when no such path exists.
func Search(g *core.Grid, start, goal core.Cell, reserved *Reservations) core.Path {
	return SpaceTimeAStar(g, start, goal, reserved)
}

// SpaceTimeAStar is best-first search over (t, cell) states ordered by
// f = g + Manhattan(cell, goal). Every move and every wait costs 1.
//
// Successors of (t, c) are generated in Neighbors order followed by the wait
// action; a successor (t+1, c') is dropped when it is reserved. Equal f values
// are expanded in insertion order. The first popped state at goal ends the
// search, so the returned path satisfies len(path) == arrival-start+1.
func SpaceTimeAStar(g *core.Grid, start, goal core.Cell, reserved *Reservations, opts ...SearchOption) core.Path {
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}
	horizon := o.horizon
	if horizon <= 0 {
		horizon = max(reserved.Horizon(), o.startTime) + g.Cells()
	}
	stats := o.stats
	if stats == nil {
		stats = &SearchStats{}
	}
	*stats = SearchStats{Horizon: horizon}

	blocked := func(s SpaceTimeState) bool {
		if _, ok := o.avoid[s.Cell]; ok {
			return true
		}
		return reserved.Reserved(s.T, s.Cell)
	}

	open := &astarHeap{}
	heap.Init(open)

	// g is always t - startTime, so the first push of a state is already the
	// cheapest and states can be closed on push.
	seen := make(map[SpaceTimeState]struct{})
	seq := 0
	push := func(s SpaceTimeState, gCost int, parent *astarNode) {
		seen[s] = struct{}{}
		heap.Push(open, &astarNode{
			state:  s,
			g:      gCost,
			f:      gCost + core.Manhattan(s.Cell, goal),
			seq:    seq,
			parent: parent,
		})
		seq++
		stats.Pushed++
	}

	push(SpaceTimeState{T: o.startTime, Cell: start}, 0, nil)

	for open.Len() > 0 {
		current := heap.Pop(open).(*astarNode)

		if current.state.Cell == goal {
			return reconstructPath(current)
		}
		if current.state.T >= horizon {
			continue
		}
		stats.Expanded++

		nextT := current.state.T + 1
		for _, n := range g.Neighbors(current.state.Cell) {
			s := SpaceTimeState{T: nextT, Cell: n}
			if _, ok := seen[s]; ok || blocked(s) {
				continue
			}
			push(s, current.g+1, current)
		}

		wait := SpaceTimeState{T: nextT, Cell: current.state.Cell}
		if _, ok := seen[wait]; !ok && !blocked(wait) {
			push(wait, current.g+1, current)
		}
	}

	return nil // No path found
}

func reconstructPath(node *astarNode) core.Path {
	path := make(core.Path, node.g+1)
	for n := node; n != nil; n = n.parent {
		path[n.g] = n.state.Cell
	}
	return path
}

// AStar is plain A* over cells, for callers that ignore time. Cells in
// avoid are treated as blocked. Ties are broken FIFO as in SpaceTimeAStar.
func AStar(g *core.Grid, start, goal core.Cell, avoid map[core.Cell]struct{}) core.Path {
	open := &astarHeap{}
	heap.Init(open)

	best := map[core.Cell]int{start: 0}
	seq := 0
	heap.Push(open, &astarNode{
		state: SpaceTimeState{Cell: start},
		f:     core.Manhattan(start, goal),
	})

	for open.Len() > 0 {
		current := heap.Pop(open).(*astarNode)
		if current.g > best[current.state.Cell] {
			continue // Stale entry
		}
		if current.state.Cell == goal {
			return reconstructPath(current)
		}

		for _, n := range g.Neighbors(current.state.Cell) {
			if _, ok := avoid[n]; ok {
				continue
			}
			gCost := current.g + 1
			if old, ok := best[n]; ok && old <= gCost {
				continue
			}
			best[n] = gCost
			seq++
			heap.Push(open, &astarNode{
				state:  SpaceTimeState{T: gCost, Cell: n},
				g:      gCost,
				f:      gCost + core.Manhattan(n, goal),
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil
}
