package planner

import (
	"fmt"
	"sort"
)

// Canonical policy names. They key every metrics map and report.
const (
	PolicyLRU      = "LRU"
	PolicyLFU      = "LFU"
	PolicyKnapsack = "Greedy Knapsack"
	PolicySGD      = "SGD-Based"
)

// DefaultPolicyOrder is the order policies are run and reported in.
var DefaultPolicyOrder = []string{PolicyLRU, PolicyLFU, PolicyKnapsack, PolicySGD}

// ValidPolicies is the set of recognized policy names.
// Shared by Config.Validate() and NewPolicy() to avoid duplication.
var ValidPolicies = map[string]bool{PolicyLRU: true, PolicyLFU: true, PolicyKnapsack: true, PolicySGD: true}

// Policy selects the resources to cache for a trace under a capacity budget.
// Implementations are stateless across calls: identical inputs yield identical output
// and concurrent calls are safe.
type Policy interface {
	Name() string
	Select(tr *Trace, capacity Capacity) Selection
}

// NewPolicy creates a policy by canonical name.
// opt and seed configure the SGD-based optimizer and are ignored by the greedy policies.
// Panics on unrecognized names; validate with ValidPolicies first.
func NewPolicy(name string, opt OptimizerConfig, seed int64) Policy {
	if !ValidPolicies[name] {
		panic(fmt.Sprintf("unknown cache policy %q", name))
	}
	switch name {
	case PolicyLRU:
		return &LRU{}
	case PolicyLFU:
		return &LFU{}
	case PolicyKnapsack:
		return &Knapsack{}
	case PolicySGD:
		return NewSGDPolicy(opt, seed)
	default:
		panic(fmt.Sprintf("unhandled cache policy %q", name))
	}
}

// greedyFill walks records in the given order and admits each one whose size still
// fits. Records that do not fit are skipped and never reconsidered.
func greedyFill(order []ResourceRecord, capacity Capacity) (Selection, float64) {
	ids := make([]string, 0, len(order))
	used := 0.0
	for _, r := range order {
		if used+r.SizeKB <= capacity.KB() {
			ids = append(ids, r.ID)
			used += r.SizeKB
		}
	}
	return NewSelection(ids...), used
}

// rankBy returns a copy of records stably sorted by key descending.
// Ties keep trace order.
func rankBy(records []ResourceRecord, key func(ResourceRecord) float64) []ResourceRecord {
	ranked := make([]ResourceRecord, len(records))
	copy(ranked, records)
	keys := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		keys[r.ID] = key(r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return keys[ranked[i].ID] > keys[ranked[j].ID]
	})
	return ranked
}
