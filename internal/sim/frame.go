package sim

import (
	"math"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// FrameType tags a streamed frame.
type FrameType string

const (
	FrameInit     FrameType = "init"
	FrameUpdate   FrameType = "update"
	FrameComplete FrameType = "complete"
	FrameStopped  FrameType = "stopped"
	FrameError    FrameType = "error"
)

// AgentFrame is one agent in a frame.
type AgentFrame struct {
	ID    core.AgentID `json:"id"`
	X     int          `json:"x"`
	Y     int          `json:"y"`
	GoalX int          `json:"goal_x"`
	GoalY int          `json:"goal_y"`
	State string       `json:"state"`
}

// Frame is the state of a simulation at one step, as sent to clients.
type Frame struct {
	Type      FrameType    `json:"type"`
	Run       string       `json:"run,omitempty"`
	Task      string       `json:"task,omitempty"`
	Step      int          `json:"step"`
	Width     int          `json:"width,omitempty"`
	Height    int          `json:"height,omitempty"`
	Obstacles []core.Cell  `json:"obstacles,omitempty"`
	Targets   []core.Cell  `json:"targets,omitempty"`
	Drops     []core.Cell  `json:"drops,omitempty"` // Cells loads are carried to
	Agents    []AgentFrame `json:"agents,omitempty"`
	Progress  float64      `json:"progress"` // Percent, one decimal
	Message   string       `json:"message,omitempty"`
}

// percent converts a 0-1 ratio to a percentage rounded to one decimal.
func percent(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}
