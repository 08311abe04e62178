package planner

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// usageTolerance absorbs float summation order differences in the post-condition check.
const usageTolerance = 1e-9

// RoundResult bundles every output of one evaluation round.
type RoundResult struct {
	CapacityKB     float64
	Order          []string // policy names in run order
	Selections     map[string]Selection
	Metrics        map[string]MetricsRecord
	OptimizerTable []ProbabilityRow // nil unless the SGD-based policy ran
	Attempts       []AttemptSummary // nil unless the SGD-based policy ran
	Warnings       []Warning
}

// EvaluateRound computes the capacity for tr, runs every configured policy against it
// and scores each selection with Evaluate.
//
// An invalid config or trace fails before any policy runs. Post-condition violations and
// optimizer non-convergence are reported as Warnings, never as errors.
// seed fixes the optimizer's initial state for this round.
func EvaluateRound(tr *Trace, cfg *Config, seed int64) (*RoundResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}
	capacity, err := ComputeCapacity(tr, cfg.CapacityFraction)
	if err != nil {
		return nil, err
	}

	res := &RoundResult{
		CapacityKB: capacity.KB(),
		Order:      make([]string, 0, len(cfg.Policies)),
		Selections: make(map[string]Selection, len(cfg.Policies)),
		Metrics:    make(map[string]MetricsRecord, len(cfg.Policies)),
	}
	for _, name := range cfg.Policies {
		policy := NewPolicy(name, cfg.Optimizer, seed)

		var sel Selection
		if sgd, ok := policy.(*SGDPolicy); ok {
			out := sgd.Optimize(tr, capacity)
			sel = out.Selection
			res.OptimizerTable = out.Table
			res.Attempts = out.Attempts
			if !out.Converged {
				res.addWarning(&NonConvergenceWarning{
					PolicyName:  name,
					Attempts:    len(out.Attempts),
					BestUsageKB: out.UsageKB,
					CapacityKB:  capacity.KB(),
					Margin:      cfg.Optimizer.Margin,
				})
			}
		} else {
			sel = policy.Select(tr, capacity)
		}

		res.addWarning(checkCapacity(name, sel, tr, capacity))

		m := Evaluate(tr, sel, capacity)
		logrus.Debugf("%s: %d resources, hit rate %s%%, latency reduction %s%%, usage %.2f/%.2f KB",
			name, sel.Len(), m.HitRatePct, m.LatencyReductionPct, m.CacheUsageKB, m.CapacityKB)
		res.Order = append(res.Order, name)
		res.Selections[name] = sel
		res.Metrics[name] = m
	}
	return res, nil
}

// checkCapacity is the post-condition every selection must meet. It returns a
// *CapacityExceededWarning when sel uses more than capacity, otherwise nil.
func checkCapacity(name string, sel Selection, tr *Trace, capacity Capacity) Warning {
	usage := sel.UsageKB(tr)
	if usage <= capacity.KB()*(1+usageTolerance) {
		return nil
	}
	return &CapacityExceededWarning{PolicyName: name, UsageKB: usage, CapacityKB: capacity.KB()}
}

// addWarning logs w and attaches it to the result. A nil w is ignored.
func (r *RoundResult) addWarning(w Warning) {
	if w == nil {
		return
	}
	logrus.Warnf("%v", w)
	r.Warnings = append(r.Warnings, w)
}
