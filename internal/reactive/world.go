package reactive

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// ErrNoAgents is returned when a world is built without agents.
var ErrNoAgents = errors.New("reactive: world has no agents")

// ErrNoDrop is returned when a delivery world has a target without a drop cell.
var ErrNoDrop = errors.New("reactive: target has no drop cell")

// Mode selects how an idle agent picks its next target.
type Mode int

const (
	// ModeBFS walks to the nearest target by path length (breadth-first).
	ModeBFS Mode = iota
	// ModeManhattan picks the target with the smallest Manhattan distance
	// and walks to it with A*.
	ModeManhattan
)

func (m Mode) String() string {
	if m == ModeManhattan {
		return "astar"
	}
	return "bfs"
}

// Stats counts what happened during a run.
type Stats struct {
	Steps    int
	Moves    int
	Replans  int
	Refusals int // Moves refused because the next cell was occupied
	Ignited  int // Targets added by spreading
}

type agent struct {
	id   core.AgentID
	cell core.Cell
	path core.Path // Remaining cells, next first
	zone CellSet   // Nil means any target
	done []core.Cell

	// A loaded agent carries the target picked up at pickup to drop and
	// takes no new target until it unloads.
	loaded bool
	pickup core.Cell
	drop   core.Cell
}

func (a *agent) target() (core.Cell, bool) {
	return a.path.Last()
}

// AgentView is a snapshot of one agent.
type AgentView struct {
	ID        core.AgentID
	Cell      core.Cell
	Target    core.Cell // Equal to Cell when idle
	State     core.AgentState
	Completed int
	Loaded    bool
}

type worldOptions struct {
	mode       Mode
	zones      []CellSet
	dropZone   []core.Cell
	deliveries map[core.Cell]core.Cell
	spread     *spreading
	logger     *slog.Logger
}

type spreading struct {
	prob  float64
	every int
	rng   *rand.Rand
}

// Option configures a World.
type Option func(*worldOptions)

// WithMode sets the target selection mode. The default is ModeBFS.
func WithMode(m Mode) Option {
	return func(o *worldOptions) { o.mode = m }
}

// WithZones assigns zone i to agent i. An agent prefers targets in its zone
// and falls back to any target once its zone is done.
func WithZones(zones []CellSet) Option {
	return func(o *worldOptions) { o.zones = zones }
}

// WithDropZone turns targets into loads: an agent that reaches a target
// picks it up and carries it to the drop cell nearest the pickup (Manhattan
// distance, ties by row, then column). The target counts as completed once
// dropped.
func WithDropZone(cells ...core.Cell) Option {
	return func(o *worldOptions) { o.dropZone = cells }
}

// WithDeliveries pairs every target with its own drop cell. It takes
// precedence over WithDropZone.
func WithDeliveries(pairs map[core.Cell]core.Cell) Option {
	return func(o *worldOptions) { o.deliveries = pairs }
}

// WithSpread makes targets spread like fire. At the start of every step
// after each full interval of every steps, each uncompleted target ignites
// each free neighbour with probability prob. Completed cells never ignite
// again. Draws come from a generator seeded with seed.
func WithSpread(prob float64, every int, seed int64) Option {
	return func(o *worldOptions) {
		if every > 0 && prob > 0 {
			o.spread = &spreading{prob: prob, every: every, rng: rand.New(rand.NewSource(seed))}
		}
	}
}

// WithLogger logs completions and refusals at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *worldOptions) { o.logger = l }
}

// World is a grid with targets and reactive agents.
type World struct {
	grid    *core.Grid
	agents  []*agent
	targets CellSet
	cleared CellSet
	total   int
	mode    Mode
	stats   Stats
	stalled bool
	logger  *slog.Logger

	dropZone   []core.Cell
	deliveries map[core.Cell]core.Cell
	spread     *spreading
}

// NewWorld places agents 1..len(starts) on their start cells. Targets under a
// start cell are completed immediately.
func NewWorld(g *core.Grid, starts, targets []core.Cell, opts ...Option) (*World, error) {
	o := worldOptions{mode: ModeBFS}
	for _, opt := range opts {
		opt(&o)
	}
	if len(starts) == 0 {
		return nil, ErrNoAgents
	}

	w := &World{
		grid:       g,
		targets:    make(CellSet, len(targets)),
		cleared:    make(CellSet),
		mode:       o.mode,
		logger:     o.logger,
		dropZone:   o.dropZone,
		deliveries: o.deliveries,
		spread:     o.spread,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	for _, t := range targets {
		if err := g.Check(t); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		w.targets[t] = struct{}{}
	}
	for _, d := range w.dropZone {
		if err := g.Check(d); err != nil {
			return nil, fmt.Errorf("drop zone: %w", err)
		}
	}
	if w.deliveries != nil {
		for t := range w.targets {
			d, ok := w.deliveries[t]
			if !ok {
				return nil, fmt.Errorf("target %v: %w", t, ErrNoDrop)
			}
			if err := g.Check(d); err != nil {
				return nil, fmt.Errorf("delivery for %v: %w", t, err)
			}
		}
	}
	w.total = len(w.targets)

	occupied := make(CellSet, len(starts))
	for i, s := range starts {
		id := core.AgentID(i + 1)
		if err := g.Check(s); err != nil {
			return nil, fmt.Errorf("agent %d start: %w", id, err)
		}
		if occupied.Has(s) {
			return nil, fmt.Errorf("agent %d at %v: %w", id, s, core.ErrDuplicateStart)
		}
		occupied[s] = struct{}{}
		a := &agent{id: id, cell: s}
		if i < len(o.zones) {
			a.zone = o.zones[i]
		}
		w.agents = append(w.agents, a)
	}
	for _, a := range w.agents {
		w.complete(a)
	}
	return w, nil
}

// Grid returns the world grid.
func (w *World) Grid() *core.Grid {
	return w.grid
}

// Step spreads targets when due, plans for idle agents, then moves every
// agent one cell in id order. It returns false without changing anything
// once the world is done.
func (w *World) Step() bool {
	if w.Done() {
		return false
	}
	if sp := w.spread; sp != nil && w.stats.Steps > 0 && w.stats.Steps%sp.every == 0 {
		w.ignite()
	}
	w.stats.Steps++

	planned := 0
	for _, a := range w.agents {
		if len(a.path) == 0 && w.replan(a) {
			planned++
		}
	}

	moved, refused := 0, 0
	for _, a := range w.agents {
		if len(a.path) == 0 {
			continue
		}
		next := a.path[0]
		if w.occupiedBy(next, a.id) {
			// Hold and replan next step.
			a.path = nil
			refused++
			w.logger.Debug("move refused", "agent", a.id, "cell", next)
			continue
		}
		a.cell = next
		a.path = a.path[1:]
		moved++
		w.complete(a)
	}
	w.stats.Moves += moved
	w.stats.Refusals += refused

	if moved == 0 && planned == 0 && refused == 0 {
		w.stalled = true
	}
	return true
}

func (w *World) replan(a *agent) bool {
	avoid := make(CellSet, len(w.agents)-1)
	for _, other := range w.agents {
		if other.id != a.id {
			avoid[other.cell] = struct{}{}
		}
	}

	if a.loaded {
		if w.follow(a, ShortestPath(w.grid, a.cell, a.drop, avoid)) {
			return true
		}
		// An idle agent may hold the drop cell; try the rest of the zone.
		for _, d := range byDistance(a.cell, w.dropZone) {
			if d != a.drop && w.follow(a, ShortestPath(w.grid, a.cell, d, avoid)) {
				a.drop = d
				return true
			}
		}
		return false
	}

	candidates := w.remaining(a.zone)
	if len(candidates) == 0 {
		candidates = w.targets
	}
	if len(candidates) == 0 {
		return false
	}

	var path core.Path
	switch w.mode {
	case ModeManhattan:
		target, ok := nearestByManhattan(a.cell, candidates)
		if !ok {
			return false
		}
		path = ShortestPath(w.grid, a.cell, target, avoid)
	default:
		path = NearestTarget(w.grid, a.cell, candidates, avoid)
	}
	return w.follow(a, path)
}

// follow installs path (start inclusive) as the agent's remaining route.
func (w *World) follow(a *agent, path core.Path) bool {
	if len(path) < 2 {
		return false
	}
	a.path = path[1:]
	w.stats.Replans++
	return true
}

// nearestByManhattan breaks distance ties by row, then column.
func nearestByManhattan(from core.Cell, candidates CellSet) (core.Cell, bool) {
	var best core.Cell
	found := false
	for c := range candidates {
		if c == from {
			continue
		}
		if !found || closer(from, c, best) {
			best, found = c, true
		}
	}
	return best, found
}

// byDistance returns cells ordered by Manhattan distance from from.
func byDistance(from core.Cell, cells []core.Cell) []core.Cell {
	out := append([]core.Cell(nil), cells...)
	sort.Slice(out, func(i, j int) bool {
		return closer(from, out[i], out[j])
	})
	return out
}

func closer(from, a, b core.Cell) bool {
	da, db := core.Manhattan(from, a), core.Manhattan(from, b)
	if da != db {
		return da < db
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// remaining returns the uncompleted targets inside zone, or nil for no zone.
func (w *World) remaining(zone CellSet) CellSet {
	if zone == nil {
		return nil
	}
	out := make(CellSet)
	for c := range zone {
		if w.targets.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

func (w *World) occupiedBy(c core.Cell, self core.AgentID) bool {
	for _, a := range w.agents {
		if a.id != self && a.cell == c {
			return true
		}
	}
	return false
}

// complete handles the cell under a: a loaded agent on its drop cell
// unloads, then an unloaded agent on a target takes it. Agents that were
// heading for a taken target go back to planning. In a world with drops the
// target becomes a load and is credited on unloading.
func (w *World) complete(a *agent) {
	if a.loaded {
		if a.cell != a.drop {
			return
		}
		w.unload(a)
	}
	if !w.targets.Has(a.cell) {
		return
	}
	delete(w.targets, a.cell)
	w.cleared[a.cell] = struct{}{}

	for _, other := range w.agents {
		if t, ok := other.target(); ok && t == a.cell && !other.loaded {
			other.path = nil
		}
	}

	drop, ok := w.dropFor(a.cell)
	if !ok {
		a.done = append(a.done, a.cell)
		w.logger.Debug("target completed", "agent", a.id, "cell", a.cell)
		return
	}
	a.loaded, a.pickup, a.drop = true, a.cell, drop
	a.path = nil
	w.logger.Debug("load picked up", "agent", a.id, "cell", a.cell, "drop", drop)
	if a.cell == drop {
		w.unload(a)
	}
}

func (w *World) unload(a *agent) {
	a.loaded = false
	a.done = append(a.done, a.pickup)
	w.logger.Debug("load dropped", "agent", a.id, "pickup", a.pickup, "cell", a.cell)
}

// dropFor returns where the load taken at pickup must go, if anywhere.
func (w *World) dropFor(pickup core.Cell) (core.Cell, bool) {
	if w.deliveries != nil {
		d, ok := w.deliveries[pickup]
		return d, ok
	}
	if len(w.dropZone) == 0 {
		return core.Cell{}, false
	}
	best := w.dropZone[0]
	for _, d := range w.dropZone[1:] {
		if closer(pickup, d, best) {
			best = d
		}
	}
	return best, true
}

// ignite spreads every uncompleted target to its free neighbours. Targets
// ignited in this round do not spread until the next one. An agent standing
// on a newly ignited cell completes it at once.
func (w *World) ignite() {
	sp := w.spread
	fresh := make(CellSet)
	for _, c := range w.Remaining() {
		for _, n := range w.grid.Neighbors(c) {
			if w.targets.Has(n) || w.cleared.Has(n) || fresh.Has(n) {
				continue
			}
			if sp.rng.Float64() < sp.prob {
				fresh[n] = struct{}{}
			}
		}
	}
	if len(fresh) == 0 {
		return
	}
	for c := range fresh {
		w.targets[c] = struct{}{}
	}
	w.total += len(fresh)
	w.stats.Ignited += len(fresh)
	w.logger.Debug("targets spread", "ignited", len(fresh), "active", len(w.targets))

	for _, a := range w.agents {
		if fresh.Has(a.cell) {
			w.complete(a)
		}
	}
}

// loads counts agents carrying a load.
func (w *World) loads() int {
	n := 0
	for _, a := range w.agents {
		if a.loaded {
			n++
		}
	}
	return n
}

// Done reports whether every target is completed and every load dropped,
// or no agent can make progress.
func (w *World) Done() bool {
	return (len(w.targets) == 0 && w.loads() == 0) || w.stalled
}

// Progress returns completed/total targets as 0-1. Loads in transit are not
// completed yet.
func (w *World) Progress() float64 {
	if w.total == 0 {
		return 1
	}
	return float64(w.total-len(w.targets)-w.loads()) / float64(w.total)
}

// Total returns the number of targets the world has had, including those
// added by spreading.
func (w *World) Total() int {
	return w.total
}

// Stats returns the run counters.
func (w *World) Stats() Stats {
	return w.stats
}

// Remaining returns the uncompleted targets sorted by row, then column.
func (w *World) Remaining() []core.Cell {
	return sortCells(w.targets)
}

// Drops returns the drop cells still in use, sorted by row, then column:
// the whole drop zone, or the delivery cells of pending and carried loads.
func (w *World) Drops() []core.Cell {
	set := NewCellSet(w.dropZone...)
	if w.deliveries != nil {
		for t := range w.targets {
			if d, ok := w.deliveries[t]; ok {
				set[d] = struct{}{}
			}
		}
		for _, a := range w.agents {
			if a.loaded {
				set[a.drop] = struct{}{}
			}
		}
	}
	return sortCells(set)
}

func sortCells(set CellSet) []core.Cell {
	out := make([]core.Cell, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Agents returns the agents ordered by id.
func (w *World) Agents() []AgentView {
	out := make([]AgentView, len(w.agents))
	for i, a := range w.agents {
		v := AgentView{ID: a.id, Cell: a.cell, Target: a.cell, State: core.StatePlanning, Completed: len(a.done), Loaded: a.loaded}
		if t, ok := a.target(); ok {
			v.Target = t
			v.State = core.StateMoving
		}
		if a.loaded {
			v.Target = a.drop
			v.State = core.StateCarrying
		}
		if w.Done() {
			v.State = core.StateArrived
		}
		out[i] = v
	}
	return out
}
