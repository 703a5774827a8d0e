package algo

import "github.com/RudyMontoo/10-AITASK/internal/core"

// SpaceTimeState is a (time, cell) pair, the node of the space-time search.
type SpaceTimeState struct {
	T    int
	Cell core.Cell
}

// Reservations is an immutable set of reserved space-time states.
//
// Commit never modifies the receiver; it returns a new table layered on top
// of it. A plan therefore threads one table value through its agents, and
// any intermediate table can be kept and reused.
type Reservations struct {
	parent  *Reservations
	states  map[SpaceTimeState]struct{}
	size    int
	horizon int
}

// NewReservations returns an empty table.
func NewReservations() *Reservations {
	return &Reservations{horizon: -1}
}

// Commit returns a table that additionally reserves (startTime+i, path[i])
// for every index of path.
func (r *Reservations) Commit(path core.Path, startTime int) *Reservations {
	if r == nil {
		r = NewReservations()
	}
	if len(path) == 0 {
		return r
	}
	next := &Reservations{
		parent:  r,
		states:  make(map[SpaceTimeState]struct{}, len(path)),
		size:    r.size,
		horizon: r.horizon,
	}
	for i, c := range path {
		s := SpaceTimeState{T: startTime + i, Cell: c}
		if r.has(s) {
			continue
		}
		if _, dup := next.states[s]; dup {
			continue
		}
		next.states[s] = struct{}{}
		next.size++
		if s.T > next.horizon {
			next.horizon = s.T
		}
	}
	return next
}

// Reserved reports whether cell c is claimed at time t.
func (r *Reservations) Reserved(t int, c core.Cell) bool {
	return r.has(SpaceTimeState{T: t, Cell: c})
}

func (r *Reservations) has(s SpaceTimeState) bool {
	for l := r; l != nil; l = l.parent {
		if _, ok := l.states[s]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of reserved states.
func (r *Reservations) Len() int {
	if r == nil {
		return 0
	}
	return r.size
}

// Horizon returns the latest reserved time, or -1 for an empty table.
func (r *Reservations) Horizon() int {
	if r == nil {
		return -1
	}
	return r.horizon
}
