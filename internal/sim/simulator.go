// Package sim runs grid simulations step by step and streams their state as
// frames. A Runner paces any Simulation with a ticker, collects metrics and
// stops on context cancellation.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures a Runner.
type Config struct {
	// Delay between steps. Zero runs as fast as possible.
	Tick time.Duration

	// Step limit per run.
	MaxSteps int
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		Tick:     200 * time.Millisecond,
		MaxSteps: 500,
	}
}

// Metrics collects the counters of one run.
type Metrics struct {
	Run       string    `json:"run"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Steps     int       `json:"steps"`
	Completed bool      `json:"completed"`
	Progress  float64   `json:"progress"`

	// Planning
	PlanningAttempts    int     `json:"planning_attempts"`
	PlanningSuccesses   int     `json:"planning_successes"`
	TotalPlanningTimeMs float64 `json:"total_planning_time_ms"`
	Makespan            int     `json:"makespan"`
	SumOfCosts          int     `json:"sum_of_costs"`
	Stranded            int     `json:"stranded"`
	ConflictsDetected   int     `json:"conflicts_detected"`

	// Reactive
	ReplanEvents int `json:"replan_events"`
	Refusals     int `json:"refusals"`
	Moves        int `json:"moves"`

	// Tasks
	TasksCompleted int `json:"tasks_completed"`
	TasksTotal     int `json:"tasks_total"`
}

// Runner drives simulations. A Runner may be reused; Metrics reports the
// latest run.
type Runner struct {
	mu sync.Mutex

	config  Config
	logger  *slog.Logger
	metrics Metrics

	cancel context.CancelFunc
}

// NewRunner creates a runner. A nil logger uses slog.Default().
func NewRunner(config Config, logger *slog.Logger) *Runner {
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultConfig().MaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{config: config, logger: logger}
}

// Run initialises s and steps it until it finishes, MaxSteps is reached or
// ctx is done. It emits an init frame, one update frame per step and a
// complete frame. On cancellation no complete frame is sent and ctx.Err()
// is returned. An emit error also ends the run.
func (r *Runner) Run(ctx context.Context, s Simulation, emit func(Frame) error) (*Metrics, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := uuid.NewString()
	r.mu.Lock()
	r.cancel = cancel
	r.metrics = Metrics{Run: run, StartTime: time.Now()}
	r.mu.Unlock()

	logger := r.logger.With("run", run)
	logger.Info("simulation started", "max_steps", r.config.MaxSteps, "tick", r.config.Tick)

	if err := s.Init(); err != nil {
		r.finish(s)
		return r.Metrics(), fmt.Errorf("init: %w", err)
	}

	frame := s.Snapshot()
	frame.Type = FrameInit
	frame.Run = run
	if err := emit(frame); err != nil {
		r.finish(s)
		return r.Metrics(), err
	}

	var tick <-chan time.Time
	if r.config.Tick > 0 {
		ticker := time.NewTicker(r.config.Tick)
		defer ticker.Stop()
		tick = ticker.C
	}

	for steps := 0; steps < r.config.MaxSteps; {
		if tick != nil {
			select {
			case <-ctx.Done():
				r.finish(s)
				logger.Info("simulation cancelled", "steps", steps)
				return r.Metrics(), ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			r.finish(s)
			return r.Metrics(), err
		}

		more, err := s.Step()
		if err != nil {
			r.finish(s)
			return r.Metrics(), fmt.Errorf("step %d: %w", steps+1, err)
		}
		if !more {
			break
		}
		steps++
		r.mu.Lock()
		r.metrics.Steps = steps
		r.mu.Unlock()

		frame := s.Snapshot()
		frame.Type = FrameUpdate
		frame.Run = run
		frame.Step = steps
		frame.Obstacles = nil
		if err := emit(frame); err != nil {
			r.finish(s)
			return r.Metrics(), err
		}
	}

	m := r.finish(s)
	frame = s.Snapshot()
	frame.Type = FrameComplete
	frame.Run = run
	frame.Step = m.Steps
	frame.Obstacles = nil
	if err := emit(frame); err != nil {
		return m, err
	}

	logger.Info("simulation finished",
		"steps", m.Steps,
		"completed", m.Completed,
		"progress", m.Progress,
	)
	return m, nil
}

// finish records the final state and returns a copy of the metrics.
func (r *Runner) finish(s Simulation) *Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.EndTime = time.Now()
	r.metrics.Completed = s.Done()
	r.metrics.Progress = s.Snapshot().Progress
	s.Report(&r.metrics)
	r.cancel = nil
	m := r.metrics
	return &m
}

// Stop cancels the run in progress, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Metrics returns a copy of the current metrics.
func (r *Runner) Metrics() *Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.metrics
	return &m
}

// WriteMetrics writes m as indented JSON.
func WriteMetrics(w io.Writer, m *Metrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// ExportMetrics writes m to a JSON file.
func ExportMetrics(path string, m *Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteMetrics(f, m)
}

// Result is the outcome of a headless run.
type Result struct {
	Metrics *Metrics
	Frames  []Frame
}

// RunSimulation runs s to the end without pacing and keeps every frame.
func RunSimulation(s Simulation, maxSteps int) (*Result, error) {
	runner := NewRunner(Config{MaxSteps: maxSteps}, nil)
	var frames []Frame
	m, err := runner.Run(context.Background(), s, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Metrics: m, Frames: frames}, nil
}
