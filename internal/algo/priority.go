package algo

import (
	"sort"

	"github.com/RudyMontoo/10-AITASK/internal/core"
)

// PriorityFunc orders agents for sequential planning. It returns indexes into
// agents, highest priority first, and must not modify agents.
type PriorityFunc func(agents []core.Agent) []int

// ByDistanceDesc plans agents with the farthest goals first. Equal distances
// keep input order. This is a heuristic, not an optimality guarantee.
func ByDistanceDesc(agents []core.Agent) []int {
	return stableOrder(agents, func(a, b core.Agent) bool {
		return a.Distance() > b.Distance()
	})
}

// ByDistanceAsc plans agents with the nearest goals first.
func ByDistanceAsc(agents []core.Agent) []int {
	return stableOrder(agents, func(a, b core.Agent) bool {
		return a.Distance() < b.Distance()
	})
}

// ByIDAsc plans agents in ascending id order.
func ByIDAsc(agents []core.Agent) []int {
	return stableOrder(agents, func(a, b core.Agent) bool {
		return a.ID < b.ID
	})
}

// ByInputOrder plans agents in the order given.
func ByInputOrder(agents []core.Agent) []int {
	return stableOrder(agents, func(core.Agent, core.Agent) bool { return false })
}

// Priorities maps policy names to priority functions.
var Priorities = map[string]PriorityFunc{
	"distance-desc": ByDistanceDesc,
	"distance-asc":  ByDistanceAsc,
	"id":            ByIDAsc,
	"input":         ByInputOrder,
}

func stableOrder(agents []core.Agent, less func(a, b core.Agent) bool) []int {
	order := make([]int, len(agents))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return less(agents[order[i]], agents[order[j]])
	})
	return order
}
