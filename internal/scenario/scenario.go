// Package scenario describes simulation setups: the grid, its obstacles, the
// agents and their targets. Scenarios are loaded from TOML files or taken
// from the builtin catalogue, and built into a cooperative planning instance
// or a reactive world.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
	"github.com/RudyMontoo/10-AITASK/internal/reactive"
	"github.com/RudyMontoo/10-AITASK/internal/sim"
)

// Scenario errors.
var (
	ErrUnknownKind     = errors.New("scenario: unknown kind")
	ErrUnknownZones    = errors.New("scenario: unknown zone policy")
	ErrUnknownPlanner  = errors.New("scenario: unknown planner")
	ErrUnknownPriority = errors.New("scenario: unknown priority")
	ErrNoAgents        = errors.New("scenario: no agents")
	ErrNotEnoughCells  = errors.New("scenario: not enough free cells for random placement")
	ErrNotCooperative  = errors.New("scenario: not a path planning scenario")
	ErrNotReactive     = errors.New("scenario: not a reactive scenario")
	ErrDuplicateName   = errors.New("scenario: duplicate name")
	ErrNoDropZones     = errors.New("scenario: warehouse without drop zones")
	ErrNoPackages      = errors.New("scenario: delivery without packages")
	ErrDuplicatePickup = errors.New("scenario: duplicate pickup cell")
	ErrBadSpread       = errors.New("scenario: spread probability outside [0, 1]")
)

// Kind names the simulation family.
type Kind string

const (
	KindPath        Kind = "path"        // Cooperative space-time planning
	KindCleaning    Kind = "cleaning"    // Dirty cells split by proximity
	KindExploration Kind = "exploration" // Every free cell, strip zones
	KindRescue      Kind = "rescue"      // Victims in a walled maze, strip zones
	KindCollection  Kind = "collection"  // Shared resource pool
	KindPainting    Kind = "painting"    // Every free cell, quadrant zones

	KindWarehouse    Kind = "warehouse"    // Items carried to the nearest drop zone
	KindDelivery     Kind = "delivery"     // Packages carried from pickup to delivery
	KindFirefighting Kind = "firefighting" // Fires spread between steps
)

// Firefighting defaults.
const (
	DefaultSpreadProb  = 0.3
	DefaultSpreadEvery = 5
)

// Cooperative reports whether the kind is planned up front.
func (k Kind) Cooperative() bool {
	return k == KindPath
}

// Point is an [x, y] pair as written in scenario files.
type Point [2]int

// Cell converts p to a grid cell.
func (p Point) Cell() core.Cell {
	return core.C(p[0], p[1])
}

// AgentSpec is one agent of a scenario. Goal is ignored by reactive kinds.
type AgentSpec struct {
	ID    int   `toml:"id"`
	Start Point `toml:"start"`
	Goal  Point `toml:"goal"`
}

// PackageSpec is one delivery: the load waits at Pickup and goes to Delivery.
type PackageSpec struct {
	Pickup   Point `toml:"pickup"`
	Delivery Point `toml:"delivery"`
}

// Scenario is a simulation setup.
type Scenario struct {
	Name   string `toml:"name"`
	Title  string `toml:"title,omitempty"`
	Kind   Kind   `toml:"kind"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Seed   int64  `toml:"seed,omitempty"`

	Obstacles []Point `toml:"obstacles,omitempty"`
	// Obstacles placed at random, never on an agent start or goal.
	RandomObstacles int `toml:"random_obstacles,omitempty"`
	// Border width kept clear of random obstacles and targets.
	Margin int `toml:"margin,omitempty"`

	Agents        []AgentSpec `toml:"agents"`
	Targets       []Point     `toml:"targets,omitempty"`
	RandomTargets int         `toml:"random_targets,omitempty"`

	// Warehouse drop cells.
	DropZones []Point `toml:"drop_zones,omitempty"`
	// Delivery packages; random ones get distinct pickup and delivery cells.
	Packages       []PackageSpec `toml:"packages,omitempty"`
	RandomPackages int           `toml:"random_packages,omitempty"`
	// Firefighting: chance that a fire ignites each neighbour, and the
	// number of steps between spreads. Zero picks the defaults.
	SpreadProb  float64 `toml:"spread_prob,omitempty"`
	SpreadEvery int     `toml:"spread_every,omitempty"`

	// none, strips, quadrants or nearest; empty picks the kind's default.
	Zones string `toml:"zones,omitempty"`
	// bfs or astar; empty picks the kind's default.
	Planner  string `toml:"planner,omitempty"`
	Priority string `toml:"priority,omitempty"`
	MaxSteps int    `toml:"max_steps,omitempty"`
	TickMS   int    `toml:"tick_ms,omitempty"`

	Path string `toml:"-"`
}

// Load reads one scenario file.
func Load(path string) (*Scenario, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %s: %w", path, err)
	}
	s, err := Parse(string(bytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes and validates a scenario from TOML text.
func Parse(text string) (*Scenario, error) {
	var s Scenario
	md, err := toml.Decode(text, &s)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode scenario: unknown keys %v", undecoded)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDir reads every *.toml file in dir, sorted by name.
func LoadDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	out := make([]*Scenario, 0, len(matches))
	for _, m := range matches {
		s, err := Load(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Encode writes s as TOML.
func (s *Scenario) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Validate checks the fields that do not need the grid to be built.
func (s *Scenario) Validate() error {
	switch s.Kind {
	case KindPath, KindCleaning, KindExploration, KindRescue, KindCollection, KindPainting,
		KindWarehouse, KindDelivery, KindFirefighting:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", core.ErrBadDimensions, s.Width, s.Height)
	}
	if len(s.Agents) == 0 {
		return ErrNoAgents
	}
	switch s.Kind {
	case KindWarehouse:
		if len(s.DropZones) == 0 {
			return ErrNoDropZones
		}
	case KindDelivery:
		if len(s.Packages) == 0 && s.RandomPackages <= 0 {
			return ErrNoPackages
		}
		seen := make(map[Point]bool, len(s.Packages))
		for _, p := range s.Packages {
			if seen[p.Pickup] {
				return fmt.Errorf("%w: %v", ErrDuplicatePickup, p.Pickup)
			}
			seen[p.Pickup] = true
		}
	case KindFirefighting:
		if s.SpreadProb < 0 || s.SpreadProb > 1 {
			return fmt.Errorf("%w: %v", ErrBadSpread, s.SpreadProb)
		}
	}
	switch s.zones() {
	case "none", "strips", "quadrants", "nearest", "greedy":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownZones, s.Zones)
	}
	switch s.planner() {
	case "bfs", "astar":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPlanner, s.Planner)
	}
	if s.Priority != "" {
		if _, ok := algo.Priorities[s.Priority]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPriority, s.Priority)
		}
	}
	return nil
}

func (s *Scenario) zones() string {
	if s.Zones != "" {
		return s.Zones
	}
	switch s.Kind {
	case KindCleaning:
		return "nearest"
	case KindExploration, KindRescue, KindFirefighting:
		return "strips"
	case KindDelivery:
		return "greedy"
	case KindPainting:
		return "quadrants"
	}
	return "none"
}

func (s *Scenario) planner() string {
	if s.Planner != "" {
		return s.Planner
	}
	switch s.Kind {
	case KindCleaning, KindCollection, KindWarehouse, KindDelivery:
		return "astar"
	}
	return "bfs"
}

// spread returns the firefighting spread settings, with defaults applied.
func (s *Scenario) spread() (prob float64, every int) {
	prob, every = s.SpreadProb, s.SpreadEvery
	if prob == 0 {
		prob = DefaultSpreadProb
	}
	if every <= 0 {
		every = DefaultSpreadEvery
	}
	return prob, every
}

// Layout is a built scenario: the grid, the agents and the targets.
type Layout struct {
	Grid    *core.Grid
	Agents  []core.Agent
	Targets []core.Cell

	Drops      []core.Cell             // Warehouse drop zone
	Deliveries map[core.Cell]core.Cell // Pickup to delivery cell
}

// Layout places obstacles and targets. Random placement uses a generator
// seeded with s.Seed, so a scenario always builds the same layout.
func (s *Scenario) Layout() (*Layout, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(s.Seed))

	agents := make([]core.Agent, len(s.Agents))
	reserved := make(map[core.Cell]struct{}, 2*len(s.Agents))
	for i, a := range s.Agents {
		id := a.ID
		if id == 0 {
			id = i + 1
		}
		agents[i] = core.Agent{ID: core.AgentID(id), Start: a.Start.Cell(), Goal: a.Goal.Cell()}
		if !s.Kind.Cooperative() {
			agents[i].Goal = agents[i].Start
		}
		reserved[agents[i].Start] = struct{}{}
		reserved[agents[i].Goal] = struct{}{}
	}
	for _, p := range s.DropZones {
		reserved[p.Cell()] = struct{}{}
	}
	for _, p := range s.Packages {
		reserved[p.Pickup.Cell()] = struct{}{}
		reserved[p.Delivery.Cell()] = struct{}{}
	}

	blocked := make(map[core.Cell]struct{}, len(s.Obstacles)+s.RandomObstacles)
	for _, p := range s.Obstacles {
		blocked[p.Cell()] = struct{}{}
	}
	extra, err := s.sample(rng, s.RandomObstacles, func(c core.Cell) bool {
		_, r := reserved[c]
		_, b := blocked[c]
		return !r && !b
	})
	if err != nil {
		return nil, fmt.Errorf("obstacles: %w", err)
	}
	cells := make([]core.Cell, 0, len(blocked)+len(extra))
	for c := range blocked {
		cells = append(cells, c)
	}
	cells = append(cells, extra...)

	g, err := core.NewGrid(s.Width, s.Height, cells)
	if err != nil {
		return nil, err
	}

	l := &Layout{Grid: g, Agents: agents}
	if s.Kind.Cooperative() {
		return l, nil
	}
	if s.Kind == KindDelivery {
		if err := s.packages(rng, l, reserved); err != nil {
			return nil, err
		}
		return l, nil
	}
	for _, p := range s.DropZones {
		l.Drops = append(l.Drops, p.Cell())
	}

	for _, p := range s.Targets {
		l.Targets = append(l.Targets, p.Cell())
	}
	switch {
	case s.RandomTargets > 0:
		taken := make(map[core.Cell]struct{}, len(l.Targets))
		for _, c := range l.Targets {
			taken[c] = struct{}{}
		}
		random, err := s.sample(rng, s.RandomTargets, func(c core.Cell) bool {
			_, r := reserved[c]
			_, t := taken[c]
			return !r && !t && !g.Blocked(c)
		})
		if err != nil {
			return nil, fmt.Errorf("targets: %w", err)
		}
		l.Targets = append(l.Targets, random...)
	case len(l.Targets) == 0:
		l.Targets = g.FreeCells()
	}
	return l, nil
}

// packages fills the targets and deliveries of a delivery layout.
func (s *Scenario) packages(rng *rand.Rand, l *Layout, reserved map[core.Cell]struct{}) error {
	l.Deliveries = make(map[core.Cell]core.Cell, len(s.Packages)+s.RandomPackages)
	for _, p := range s.Packages {
		l.Targets = append(l.Targets, p.Pickup.Cell())
		l.Deliveries[p.Pickup.Cell()] = p.Delivery.Cell()
	}
	random, err := s.sample(rng, 2*s.RandomPackages, func(c core.Cell) bool {
		_, r := reserved[c]
		return !r && !l.Grid.Blocked(c)
	})
	if err != nil {
		return fmt.Errorf("packages: %w", err)
	}
	for i := 0; i < len(random); i += 2 {
		l.Targets = append(l.Targets, random[i])
		l.Deliveries[random[i]] = random[i+1]
	}
	return nil
}

// sample draws n distinct cells inside the margin that satisfy ok.
func (s *Scenario) sample(rng *rand.Rand, n int, ok func(core.Cell) bool) ([]core.Cell, error) {
	if n <= 0 {
		return nil, nil
	}
	var pool []core.Cell
	for y := s.Margin; y < s.Height-s.Margin; y++ {
		for x := s.Margin; x < s.Width-s.Margin; x++ {
			if c := core.C(x, y); ok(c) {
				pool = append(pool, c)
			}
		}
	}
	if len(pool) < n {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughCells, n, len(pool))
	}
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:n], nil
}

// Instance builds the cooperative planning instance of a path scenario.
func (s *Scenario) Instance() (*core.Instance, error) {
	if !s.Kind.Cooperative() {
		return nil, fmt.Errorf("%s: %w", s.Name, ErrNotCooperative)
	}
	l, err := s.Layout()
	if err != nil {
		return nil, err
	}
	inst := core.NewInstance(l.Grid, l.Agents...)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// PriorityFunc returns the planning order named by the scenario.
func (s *Scenario) PriorityFunc() algo.PriorityFunc {
	if fn, ok := algo.Priorities[s.Priority]; ok {
		return fn
	}
	return algo.ByDistanceDesc
}

// Solver returns the cooperative solver configured by the scenario.
func (s *Scenario) Solver(logger *slog.Logger) *algo.Prioritized {
	return &algo.Prioritized{
		Priority:     s.PriorityFunc(),
		PriorityName: s.Priority,
		Logger:       logger,
	}
}

// Simulation builds the runnable simulation of the scenario.
func (s *Scenario) Simulation(logger *slog.Logger) (sim.Simulation, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("task", s.Name)
	if s.Kind.Cooperative() {
		inst, err := s.Instance()
		if err != nil {
			return nil, err
		}
		return sim.NewCooperative(inst, s.Solver(logger)), nil
	}
	w, err := s.World(reactive.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return sim.NewReactive(w), nil
}

// RunnerConfig applies the scenario's step limit and tick to base.
func (s *Scenario) RunnerConfig(base sim.Config) sim.Config {
	if s.MaxSteps > 0 {
		base.MaxSteps = s.MaxSteps
	}
	if s.TickMS > 0 {
		base.Tick = time.Duration(s.TickMS) * time.Millisecond
	}
	return base
}

// World builds the reactive world of a non-path scenario.
func (s *Scenario) World(opts ...reactive.Option) (*reactive.World, error) {
	if s.Kind.Cooperative() {
		return nil, fmt.Errorf("%s: %w", s.Name, ErrNotReactive)
	}
	l, err := s.Layout()
	if err != nil {
		return nil, err
	}

	starts := make([]core.Cell, len(l.Agents))
	for i, a := range l.Agents {
		starts[i] = a.Start
	}

	var zones []reactive.CellSet
	switch s.zones() {
	case "strips":
		zones = reactive.PartitionStrips(l.Grid, len(starts))
	case "quadrants":
		zones = reactive.PartitionQuadrants(l.Grid)
	case "nearest":
		zones = reactive.AssignNearest(l.Targets, starts)
	case "greedy":
		zones = reactive.AssignGreedy(l.Targets, starts)
	}

	mode := reactive.ModeBFS
	if s.planner() == "astar" {
		mode = reactive.ModeManhattan
	}

	base := []reactive.Option{reactive.WithMode(mode), reactive.WithZones(zones)}
	switch s.Kind {
	case KindWarehouse:
		base = append(base, reactive.WithDropZone(l.Drops...))
	case KindDelivery:
		base = append(base, reactive.WithDeliveries(l.Deliveries))
	case KindFirefighting:
		prob, every := s.spread()
		base = append(base, reactive.WithSpread(prob, every, s.Seed))
	}
	opts = append(base, opts...)
	return reactive.NewWorld(l.Grid, starts, l.Targets, opts...)
}
