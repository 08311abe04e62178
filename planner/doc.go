// Package planner decides which resources of an observed access trace should be
// held in a fixed-capacity cache, and scores competing decision policies against
// the same trace.
//
// # Reading Guide
//
// Start with these files:
//   - resource.go: ResourceRecord and Trace, the immutable input of every round
//   - policy.go: the Policy interface and the shared greedy fill
//   - optimizer.go: the SGD-based probabilistic optimizer and its retry fold
//   - round.go: one evaluation round (capacity, all policies, metrics, post-conditions)
//
// # Policies
//
// Four policies are registered by canonical name (see ValidPolicies):
//   - "LRU": recency-ordered admission queue replayed in arrival order
//   - "LFU": frequency-ordered greedy admission
//   - "Greedy Knapsack": value-density greedy admission
//   - "SGD-Based": gradient ascent over inclusion probabilities, projected and discretized
//
// Every policy is a pure function of (Trace, Capacity). Policies share no mutable
// state and may be invoked concurrently.
//
// Sub-packages build on this one:
//   - planner/workload/: trace loaders and the synthetic request generator
//   - planner/experiment/: multi-round runner
//   - planner/report/: aggregation, text tables and exports
package planner
