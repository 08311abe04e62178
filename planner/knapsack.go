package planner

import "math"

// Knapsack admits resources by value density, (frequency/size)·(1/latency + 1).
// The latency factor is a bonus that favours expensive-to-miss resources rather than
// a pure efficiency ratio.
//
// This is the fractional-knapsack greedy order applied to the 0/1 problem: it is a
// heuristic and carries no optimality guarantee.
type Knapsack struct{}

// Name implements Policy.
func (p *Knapsack) Name() string { return PolicyKnapsack }

// Select implements Policy.
func (p *Knapsack) Select(tr *Trace, capacity Capacity) Selection {
	sel, _ := greedyFill(rankBy(tr.Records(), KnapsackScore), capacity)
	return sel
}

// KnapsackScore returns the value-density score of r.
// A zero latency makes the bonus unbounded: the score is +Inf for a requested
// resource and 0 for one that was never requested.
func KnapsackScore(r ResourceRecord) float64 {
	if r.Frequency == 0 {
		return 0
	}
	density := float64(r.Frequency) / r.SizeKB
	if r.LatencySec == 0 {
		return math.Inf(1)
	}
	return density * (1/r.LatencySec + 1)
}
