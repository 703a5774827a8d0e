package scenario

import (
	"fmt"
	"sort"
)

func corners(n, inset int) []AgentSpec {
	lo, hi := inset, n-1-inset
	return []AgentSpec{
		{ID: 1, Start: Point{lo, lo}, Goal: Point{hi, hi}},
		{ID: 2, Start: Point{hi, lo}, Goal: Point{lo, hi}},
		{ID: 3, Start: Point{lo, hi}, Goal: Point{hi, lo}},
		{ID: 4, Start: Point{hi, hi}, Goal: Point{lo, lo}},
	}
}

// Builtin returns the builtin scenarios, one per original simulation.
func Builtin() []*Scenario {
	return []*Scenario{
		{
			Name: "task2", Title: "Cleaning Simulation", Kind: KindCleaning,
			Width: 10, Height: 10, Seed: 2,
			Agents:        []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{9, 9}}},
			RandomTargets: 20,
			MaxSteps:      300,
		},
		{
			Name: "task3", Title: "Path Planning (A*)", Kind: KindPath,
			Width: 12, Height: 12,
			Obstacles: []Point{
				{5, 3}, {5, 4}, {5, 5}, {5, 6}, {5, 7},
				{7, 5}, {7, 6}, {7, 7}, {7, 8}, {7, 9},
			},
			Agents: []AgentSpec{
				{ID: 1, Start: Point{1, 1}, Goal: Point{10, 10}},
				{ID: 2, Start: Point{10, 1}, Goal: Point{1, 10}},
			},
			MaxSteps: 100,
		},
		{
			Name: "task3-server", Title: "Path Planning (server grid)", Kind: KindPath,
			Width: 15, Height: 15, Seed: 3,
			RandomObstacles: 30,
			Agents:          corners(15, 1),
			MaxSteps:        50,
		},
		{
			Name: "task4", Title: "Warehouse Pickup", Kind: KindWarehouse,
			Width: 12, Height: 12, Seed: 4,
			Margin:        2,
			Agents:        []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{11, 11}}},
			DropZones:     []Point{{0, 0}, {11, 11}},
			RandomTargets: 10,
			MaxSteps:      400,
		},
		{
			Name: "task5", Title: "Rescue Bots", Kind: KindRescue,
			Width: 14, Height: 14, Seed: 5,
			RandomObstacles: 29, // 15% of the interior
			Margin:          1,
			Agents:          []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{13, 13}}},
			RandomTargets:   10,
			MaxSteps:        400,
		},
		{
			Name: "task6", Title: "Drone Delivery", Kind: KindDelivery,
			Width: 14, Height: 14, Seed: 6,
			Agents:         []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{13, 13}}},
			RandomPackages: 8,
			MaxSteps:       500,
		},
		{
			Name: "task7", Title: "Grid Painting", Kind: KindPainting,
			Width: 12, Height: 12,
			Agents: []AgentSpec{
				{ID: 1, Start: Point{0, 0}},
				{ID: 2, Start: Point{11, 0}},
				{ID: 3, Start: Point{0, 11}},
				{ID: 4, Start: Point{11, 11}},
			},
			MaxSteps: 300,
		},
		{
			Name: "task8", Title: "Resource Collection", Kind: KindCollection,
			Width: 12, Height: 12, Seed: 8,
			Margin:        1,
			Agents:        []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{11, 11}}},
			RandomTargets: 15,
			MaxSteps:      300,
		},
		{
			Name: "task9", Title: "Firefighters", Kind: KindFirefighting,
			Width: 12, Height: 12, Seed: 9,
			Margin:        2,
			Agents:        []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{11, 11}}},
			RandomTargets: 8,
			SpreadProb:    DefaultSpreadProb,
			SpreadEvery:   DefaultSpreadEvery,
			MaxSteps:      300,
		},
		{
			Name: "task10", Title: "Map Exploration", Kind: KindExploration,
			Width: 15, Height: 15, Seed: 10,
			RandomObstacles: 20,
			Agents:          []AgentSpec{{ID: 1, Start: Point{0, 0}}, {ID: 2, Start: Point{14, 14}}},
			MaxSteps:        500,
		},
	}
}

// Catalogue is an ordered set of scenarios addressed by name.
type Catalogue struct {
	order  []string
	byName map[string]*Scenario
}

// NewCatalogue builds a catalogue from scenarios. Names must be unique.
func NewCatalogue(scenarios ...*Scenario) (*Catalogue, error) {
	c := &Catalogue{byName: make(map[string]*Scenario, len(scenarios))}
	for _, s := range scenarios {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends s.
func (c *Catalogue) Add(s *Scenario) error {
	if _, dup := c.byName[s.Name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	c.byName[s.Name] = s
	c.order = append(c.order, s.Name)
	return nil
}

// Get returns the scenario called name.
func (c *Catalogue) Get(name string) (*Scenario, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// All returns the scenarios in insertion order.
func (c *Catalogue) All() []*Scenario {
	out := make([]*Scenario, len(c.order))
	for i, name := range c.order {
		out[i] = c.byName[name]
	}
	return out
}

// Names returns the sorted scenario names.
func (c *Catalogue) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// Default returns the builtin catalogue, extended with the scenarios found
// in dir when dir is not empty.
func Default(dir string) (*Catalogue, error) {
	c, err := NewCatalogue(Builtin()...)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}
	extra, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, s := range extra {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}
