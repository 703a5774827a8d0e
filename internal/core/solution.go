package core

// Solution is the output of one planning pass.
type Solution struct {
	Paths    map[AgentID]Path
	Order    []AgentID // Planning (priority) order
	Stranded []AgentID // Agents for which no path was found; they hold their start
	Makespan int       // Longest path cost
	Cost     int       // Sum of path costs
}

// NewSolution creates an empty solution.
func NewSolution() *Solution {
	return &Solution{
		Paths: make(map[AgentID]Path),
	}
}

// ComputeMetrics fills Makespan and Cost from Paths.
func (s *Solution) ComputeMetrics() {
	s.Makespan, s.Cost = 0, 0
	for _, p := range s.Paths {
		c := p.Cost()
		s.Cost += c
		if c > s.Makespan {
			s.Makespan = c
		}
	}
}

// Complete reports whether every agent got a path to its goal.
func (s *Solution) Complete() bool {
	return len(s.Stranded) == 0
}

// Steps is the number of playback steps needed to replay every path.
func (s *Solution) Steps() int {
	n := 0
	for _, p := range s.Paths {
		if len(p) > n {
			n = len(p)
		}
	}
	return n
}
