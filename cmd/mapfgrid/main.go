// Command mapfgrid plans and runs a grid scenario from the console.
//
// Path planning scenarios print the planning order, each agent's space-time
// path, the detected conflicts and the final positions. Reactive scenarios
// run to completion and print their counters.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/RudyMontoo/10-AITASK/internal/config"
	"github.com/RudyMontoo/10-AITASK/internal/core"
	"github.com/RudyMontoo/10-AITASK/internal/scenario"
	"github.com/RudyMontoo/10-AITASK/internal/sim"
)

type options struct {
	scenario string
	file     string
	priority string
	steps    bool
	list     bool
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.scenario, "scenario", "task3", "builtin scenario name")
	flag.StringVar(&opts.file, "file", "", "TOML scenario file (overrides -scenario)")
	flag.StringVar(&opts.priority, "priority", "", "planning order: distance-desc, distance-asc, id or input")
	flag.BoolVar(&opts.steps, "steps", false, "print the grid after every step")
	flag.BoolVar(&opts.list, "list", false, "list builtin scenarios and exit")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flag.Parse()

	if err := run(os.Stdout, opts); err != nil {
		fmt.Fprintln(os.Stderr, "mapfgrid:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, opts options) error {
	logger, err := config.NewLogger(opts.logLevel, os.Stderr)
	if err != nil {
		return err
	}

	if opts.list {
		for _, s := range scenario.Builtin() {
			fmt.Fprintf(w, "%-14s %-12s %s\n", s.Name, s.Kind, s.Title)
		}
		return nil
	}

	s, err := load(opts)
	if err != nil {
		return err
	}
	if opts.priority != "" {
		s.Priority = opts.priority
		if err := s.Validate(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "=== %s (%s, %dx%d, %d agents) ===\n", s.Name, s.Kind, s.Width, s.Height, len(s.Agents))

	simulation, err := s.Simulation(logger)
	if err != nil {
		return err
	}
	runner := sim.NewRunner(s.RunnerConfig(sim.Config{}), logger)

	// Only the init frame carries obstacles.
	var obstacles []core.Cell
	var last sim.Frame
	m, err := runner.Run(context.Background(), simulation, func(f sim.Frame) error {
		if f.Obstacles != nil {
			obstacles = f.Obstacles
		}
		f.Obstacles = obstacles
		last = f

		if f.Type == sim.FrameInit {
			if coop, ok := simulation.(*sim.Cooperative); ok {
				printPlan(w, coop)
			}
		}
		if opts.steps && f.Type == sim.FrameUpdate {
			fmt.Fprintf(w, "\n--- step %d (%.1f%%) ---\n", f.Step, f.Progress)
			fmt.Fprint(w, render(f))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n--- final (step %d) ---\n", m.Steps)
	fmt.Fprint(w, render(last))
	printMetrics(w, m)
	return nil
}

func load(opts options) (*scenario.Scenario, error) {
	if opts.file != "" {
		return scenario.Load(opts.file)
	}
	c, err := scenario.NewCatalogue(scenario.Builtin()...)
	if err != nil {
		return nil, err
	}
	s, ok := c.Get(opts.scenario)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (have %s)", opts.scenario, strings.Join(c.Names(), ", "))
	}
	return s, nil
}

func printPlan(w io.Writer, coop *sim.Cooperative) {
	sol := coop.Solution()
	fmt.Fprintf(w, "Planning order: %v\n", sol.Order)
	for _, id := range sol.Order {
		path := sol.Paths[id]
		fmt.Fprintf(w, "  agent %d: cost=%d waits=%d %v\n", id, path.Cost(), path.Waits(), []core.Cell(path))
	}
	if len(sol.Stranded) > 0 {
		fmt.Fprintf(w, "Stranded: %v\n", sol.Stranded)
	}

	conflicts := coop.Conflicts()
	if len(conflicts) == 0 {
		fmt.Fprintln(w, "Conflicts: none")
		return
	}
	fmt.Fprintf(w, "Conflicts: %d\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(w, "  %v\n", c)
	}
}

func printMetrics(w io.Writer, m *sim.Metrics) {
	fmt.Fprintf(w, "Completed=%v Progress=%.1f%% Steps=%d", m.Completed, m.Progress, m.Steps)
	if m.PlanningAttempts > 0 {
		planning := time.Duration(m.TotalPlanningTimeMs * float64(time.Millisecond))
		fmt.Fprintf(w, " Makespan=%d Cost=%d Conflicts=%d Planning=%v", m.Makespan, m.SumOfCosts, m.ConflictsDetected, planning)
	} else {
		fmt.Fprintf(w, " Moves=%d Replans=%d Refusals=%d Tasks=%d/%d", m.Moves, m.ReplanEvents, m.Refusals, m.TasksCompleted, m.TasksTotal)
	}
	fmt.Fprintln(w)
}

// render draws a frame: agent ids (last digit), '*' for open targets, 'D'
// for drop cells.
func render(f sim.Frame) string {
	g, err := core.NewGrid(f.Width, f.Height, f.Obstacles)
	if err != nil {
		return ""
	}
	marks := make(map[core.Cell]rune, len(f.Agents)+len(f.Targets)+len(f.Drops))
	for _, d := range f.Drops {
		marks[d] = 'D'
	}
	for _, t := range f.Targets {
		marks[t] = '*'
	}
	for _, a := range f.Agents {
		marks[core.C(a.X, a.Y)] = rune('0' + int(a.ID)%10)
	}
	return g.Render(func(c core.Cell) rune { return marks[c] })
}
