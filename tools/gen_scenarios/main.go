// Package main generates deterministic TOML scenarios for benchmarks.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/RudyMontoo/10-AITASK/internal/scenario"
)

// Params defines one generated scenario.
type Params struct {
	Seed            int64
	Kind            scenario.Kind
	Agents          int
	Width           int
	Height          int
	ObstacleDensity float64 // Fraction of cells blocked at random
	Targets         int     // Reactive kinds only; packages for delivery
}

func (p Params) name() string {
	return fmt.Sprintf("%s_a%d_%dx%d_s%d", p.Kind, p.Agents, p.Width, p.Height, p.Seed)
}

// generate builds a scenario with distinct random starts and, for path
// scenarios, distinct random goals.
func generate(p Params) (*scenario.Scenario, error) {
	cells := p.Width * p.Height
	if p.Agents <= 0 || 2*p.Agents > cells {
		return nil, fmt.Errorf("%d agents do not fit a %dx%d grid", p.Agents, p.Width, p.Height)
	}
	rng := rand.New(rand.NewSource(p.Seed))
	perm := rng.Perm(cells)

	s := &scenario.Scenario{
		Name:            p.name(),
		Title:           fmt.Sprintf("Generated %s, %d agents", p.Kind, p.Agents),
		Kind:            p.Kind,
		Width:           p.Width,
		Height:          p.Height,
		Seed:            p.Seed,
		RandomObstacles: int(p.ObstacleDensity * float64(cells)),
	}
	point := func(i int) scenario.Point {
		return scenario.Point{i % p.Width, i / p.Width}
	}
	for i := 0; i < p.Agents; i++ {
		a := scenario.AgentSpec{ID: i + 1, Start: point(perm[i])}
		if p.Kind.Cooperative() {
			a.Goal = point(perm[p.Agents+i])
		}
		s.Agents = append(s.Agents, a)
	}
	switch {
	case p.Kind == scenario.KindDelivery:
		s.RandomPackages = p.Targets
	case p.Kind == scenario.KindWarehouse:
		// Agents start on the drop zone.
		for _, a := range s.Agents {
			s.DropZones = append(s.DropZones, a.Start)
		}
		s.RandomTargets = p.Targets
	case !p.Kind.Cooperative():
		s.RandomTargets = p.Targets
	}

	// Building the layout checks there is room for the random placements.
	if _, err := s.Layout(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return s, nil
}

func write(dir string, s *scenario.Scenario) (string, error) {
	filename := filepath.Join(dir, s.Name+".toml")
	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return "", err
	}
	return filename, f.Close()
}

func main() {
	seed := flag.Int64("seed", 42, "Random seed for deterministic generation")
	kind := flag.String("kind", "path", "Scenario kind")
	numAgents := flag.Int("agents", 8, "Number of agents")
	width := flag.Int("width", 12, "Grid width")
	height := flag.Int("height", 12, "Grid height")
	density := flag.Float64("obstacles", 0.1, "Obstacle density (0-1)")
	targets := flag.Int("targets", 20, "Random targets for reactive kinds")
	outputDir := flag.String("output", "scenarios", "Output directory")
	scalingMode := flag.Bool("scaling", false, "Generate scaling scenarios (2, 4, 8, 16, 32, 64 agents)")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	base := Params{
		Seed:            *seed,
		Kind:            scenario.Kind(*kind),
		Agents:          *numAgents,
		Width:           *width,
		Height:          *height,
		ObstacleDensity: *density,
		Targets:         *targets,
	}

	var params []Params
	if *scalingMode {
		for _, size := range []int{2, 4, 8, 16, 32, 64} {
			// Grid side grows with the square root of the agent count.
			side := max(10, int(math.Ceil(math.Sqrt(float64(size))*4)))
			p := base
			p.Agents, p.Width, p.Height = size, side, side
			p.Targets = 2 * size
			params = append(params, p)
		}
	} else {
		params = append(params, base)
	}

	failed := false
	for _, p := range params {
		s, err := generate(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating scenario: %v\n", err)
			failed = true
			continue
		}
		filename, err := write(*outputDir, s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing scenario %s: %v\n", s.Name, err)
			failed = true
			continue
		}
		fmt.Printf("Generated: %s (%d agents, %dx%d grid, %d obstacles)\n",
			filename, len(s.Agents), s.Width, s.Height, s.RandomObstacles)
	}
	if failed {
		os.Exit(1)
	}
}
