// Package main runs every solver on the path planning scenarios and
// collects metrics.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
	"github.com/RudyMontoo/10-AITASK/internal/scenario"
)

// BenchmarkResult stores results from a single solver run.
type BenchmarkResult struct {
	Timestamp       string
	CommitHash      string
	GoVersion       string
	OS              string
	Arch            string
	Scenario        string
	NumAgents       int
	GridSize        string
	Solver          string
	RuntimeMs       float64
	Success         bool // Every agent reached its goal
	Stranded        int
	Makespan        int
	SumOfCosts      int
	Waits           int
	VertexConflicts int
	SwapConflicts   int
	ParkedConflicts int
}

// SolverMetrics holds per-solver aggregated metrics.
type SolverMetrics struct {
	Name           string
	TotalRuns      int
	Successes      int
	TotalRuntimeMs float64
	TotalMakespan  int
	TotalCost      int
	CollisionFree  int
}

// solvers returns Prioritized with each planning order, then the
// Independent baseline.
func solvers() []algo.Solver {
	names := make([]string, 0, len(algo.Priorities))
	for name := range algo.Priorities {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]algo.Solver, 0, len(names)+1)
	for _, name := range names {
		out = append(out, &algo.Prioritized{Priority: algo.Priorities[name], PriorityName: name})
	}
	return append(out, &algo.Independent{})
}

func getGitCommit() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

// loadScenarios returns the path planning scenarios of dir, plus the
// builtin ones when builtin is set.
func loadScenarios(dir string, builtin bool) ([]*scenario.Scenario, error) {
	var all []*scenario.Scenario
	if builtin {
		all = append(all, scenario.Builtin()...)
	}
	if dir != "" {
		loaded, err := scenario.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, loaded...)
	}

	var out []*scenario.Scenario
	for _, s := range all {
		if s.Kind.Cooperative() {
			out = append(out, s)
		}
	}
	return out, nil
}

func runSolver(inst *core.Instance, name string, solver algo.Solver, commit string) (*BenchmarkResult, error) {
	result := &BenchmarkResult{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		CommitHash: commit,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Scenario:   name,
		NumAgents:  len(inst.Agents),
		GridSize:   fmt.Sprintf("%dx%d", inst.Grid.Width, inst.Grid.Height),
		Solver:     solver.Name(),
	}

	start := time.Now()
	sol, err := solver.Solve(inst)
	result.RuntimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", solver.Name(), name, err)
	}

	result.Success = sol.Complete()
	result.Stranded = len(sol.Stranded)
	result.Makespan = sol.Makespan
	result.SumOfCosts = sol.Cost
	for _, p := range sol.Paths {
		result.Waits += p.Waits()
	}
	for _, c := range algo.FindConflicts(sol.Paths) {
		switch c.Kind {
		case algo.VertexConflict:
			result.VertexConflicts++
		case algo.SwapConflict:
			result.SwapConflicts++
		case algo.ParkedConflict:
			result.ParkedConflicts++
		}
	}
	return result, nil
}

func writeCSV(w io.Writer, results []*BenchmarkResult) error {
	writer := csv.NewWriter(w)

	header := []string{
		"timestamp", "commit_hash", "go_version", "os", "arch",
		"scenario", "num_agents", "grid_size", "solver",
		"runtime_ms", "success", "stranded", "makespan", "sum_of_costs", "waits",
		"vertex_conflicts", "swap_conflicts", "parked_conflicts",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch,
			r.Scenario, strconv.Itoa(r.NumAgents), r.GridSize, r.Solver,
			fmt.Sprintf("%.3f", r.RuntimeMs), strconv.FormatBool(r.Success),
			strconv.Itoa(r.Stranded), strconv.Itoa(r.Makespan), strconv.Itoa(r.SumOfCosts),
			strconv.Itoa(r.Waits), strconv.Itoa(r.VertexConflicts),
			strconv.Itoa(r.SwapConflicts), strconv.Itoa(r.ParkedConflicts),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func summarize(results []*BenchmarkResult) []*SolverMetrics {
	metrics := make(map[string]*SolverMetrics)
	for _, r := range results {
		m, ok := metrics[r.Solver]
		if !ok {
			m = &SolverMetrics{Name: r.Solver}
			metrics[r.Solver] = m
		}
		m.TotalRuns++
		m.TotalRuntimeMs += r.RuntimeMs
		if r.VertexConflicts == 0 {
			m.CollisionFree++
		}
		if r.Success {
			m.Successes++
			m.TotalMakespan += r.Makespan
			m.TotalCost += r.SumOfCosts
		}
	}

	out := make([]*SolverMetrics, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func printSummary(w io.Writer, results []*BenchmarkResult) {
	fmt.Fprintln(w, "\n=== BENCHMARK SUMMARY ===")
	fmt.Fprintf(w, "%-28s %6s %8s %12s %11s %9s %13s\n",
		"Solver", "Runs", "Success", "Avg Time(ms)", "AvgMakespan", "AvgCost", "CollisionFree")
	fmt.Fprintln(w, strings.Repeat("-", 93))

	for _, m := range summarize(results) {
		avgTime := m.TotalRuntimeMs / float64(m.TotalRuns)
		avgMakespan, avgCost := 0.0, 0.0
		if m.Successes > 0 {
			avgMakespan = float64(m.TotalMakespan) / float64(m.Successes)
			avgCost = float64(m.TotalCost) / float64(m.Successes)
		}
		fmt.Fprintf(w, "%-28s %6d %8d %12.2f %11.2f %9.2f %13d\n",
			m.Name, m.TotalRuns, m.Successes, avgTime, avgMakespan, avgCost, m.CollisionFree)
	}
}

func main() {
	inputDir := flag.String("input", "", "Directory containing TOML scenarios")
	builtin := flag.Bool("builtin", true, "Include the builtin path planning scenarios")
	outputFile := flag.String("output", "evidence/benchmark_results.csv", "Output CSV file")
	solverFilter := flag.String("solver", "", "Run only solvers whose name contains one of these (comma-separated)")
	agentFilter := flag.Int("agents", 0, "Run only scenarios with this many agents (0 = all)")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	scenarios, err := loadScenarios(*inputDir, *builtin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenarios: %v\n", err)
		os.Exit(1)
	}
	if len(scenarios) == 0 {
		fmt.Fprintln(os.Stderr, "No path planning scenarios found")
		fmt.Fprintln(os.Stderr, "Run gen_scenarios first: go run ./tools/gen_scenarios -scaling -output scenarios")
		os.Exit(1)
	}

	activeSolvers := solvers()
	if *solverFilter != "" {
		var filtered []algo.Solver
		for _, s := range activeSolvers {
			for _, f := range strings.Split(*solverFilter, ",") {
				if strings.Contains(s.Name(), f) {
					filtered = append(filtered, s)
					break
				}
			}
		}
		activeSolvers = filtered
	}

	commit := getGitCommit()
	var results []*BenchmarkResult
	totalRuns := len(scenarios) * len(activeSolvers)
	currentRun := 0

	fmt.Printf("Running benchmarks: %d scenarios x %d solvers = %d runs\n\n",
		len(scenarios), len(activeSolvers), totalRuns)

	for _, s := range scenarios {
		if *agentFilter > 0 && len(s.Agents) != *agentFilter {
			continue
		}
		inst, err := s.Instance()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building %s: %v\n", s.Name, err)
			continue
		}

		for _, solver := range activeSolvers {
			currentRun++
			if *verbose {
				fmt.Printf("[%d/%d] %s / %s ... ", currentRun, totalRuns, s.Name, solver.Name())
			} else {
				fmt.Printf("\r[%d/%d] Running...", currentRun, totalRuns)
			}

			result, err := runSolver(inst, s.Name, solver, commit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
				continue
			}
			results = append(results, result)

			if *verbose {
				fmt.Printf("success=%t (%.2fms, makespan=%d, vertex conflicts=%d)\n",
					result.Success, result.RuntimeMs, result.Makespan, result.VertexConflicts)
			}
		}
	}
	fmt.Println()

	file, err := os.Create(*outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	if err := writeCSV(file, results); err != nil {
		file.Close()
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	file.Close()
	fmt.Printf("Results written to: %s\n", *outputFile)

	printSummary(os.Stdout, results)
}
