// Package core defines the domain model shared by the planners and simulations:
// grid cells, the bounded grid, agents, paths and solutions.
package core

import "fmt"

// Cell is a grid coordinate. It is a comparable value and can be used as a map key.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// C is shorthand for Cell{X: x, Y: y}.
func C(x, y int) Cell {
	return Cell{X: x, Y: y}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add returns c translated by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Manhattan returns |x1-x2| + |y1-y2|.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction offsets in neighbour order: up, right, down, left.
// Search tie-breaking depends on this order, so it must not change.
var Directions = [4]Cell{
	{X: 0, Y: 1},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
}

// AgentState is the playback lifecycle of an agent.
type AgentState int

const (
	StatePlanning AgentState = iota // No path installed yet
	StateMoving                     // Following a committed path
	StateArrived                    // At goal; terminal
	StateCarrying                   // Reactive agent taking a load to its drop cell
)

func (s AgentState) String() string {
	return [...]string{"planning", "moving", "arrived", "carrying"}[s]
}
