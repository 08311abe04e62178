package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRound_ScenarioA(t *testing.T) {
	tr := scenarioTrace(t)

	res, err := EvaluateRound(tr, DefaultConfig(), 42)
	require.NoError(t, err)

	assert.InDelta(t, 7.0, res.CapacityKB, 1e-12)
	assert.Equal(t, DefaultPolicyOrder, res.Order)
	assert.Equal(t, []string{"C"}, res.Selections[PolicyLFU].IDs())
	assert.InDelta(t, 62.5, res.Metrics[PolicyLFU].HitRatePct.Value, 1e-9)
	assert.Len(t, res.OptimizerTable, 3)
	assert.NotEmpty(t, res.Attempts)
	for _, name := range res.Order {
		assert.LessOrEqual(t, res.Metrics[name].CacheUsageKB, res.CapacityKB, name)
		assert.Equal(t, res.CapacityKB, res.Metrics[name].CapacityKB)
	}
	for _, w := range res.Warnings {
		_, exceeded := w.(*CapacityExceededWarning)
		assert.False(t, exceeded, "unexpected warning %v", w)
	}
}

func TestEvaluateRound_EmptyTrace_FailsBeforePolicies(t *testing.T) {
	res, err := EvaluateRound(nil, DefaultConfig(), 1)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTrace))
}

func TestEvaluateRound_NonConvergenceIsAWarning(t *testing.T) {
	// GIVEN a capacity no resource fits into
	tr, err := NewTrace([]ResourceRecord{
		{ID: "x", SizeKB: 10, Frequency: 4, LatencySec: 0.1},
		{ID: "y", SizeKB: 20, Frequency: 8, LatencySec: 0.3},
	}, nil)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.CapacityFraction = 0.3
	cfg.Policies = []string{PolicySGD}

	// WHEN evaluated
	res, err := EvaluateRound(tr, cfg, 1)

	// THEN the round still succeeds and carries a non-convergence warning
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	var nc *NonConvergenceWarning
	require.True(t, errors.As(res.Warnings[0], &nc))
	assert.Equal(t, PolicySGD, nc.Policy())
	assert.Equal(t, cfg.Optimizer.MaxRetries, nc.Attempts)
	assert.Contains(t, nc.Error(), "SGD-Based")
	assert.Equal(t, 0.0, res.Metrics[PolicySGD].CacheUsageKB)
}

func TestEvaluateRound_SubsetOfPolicies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policies = []string{PolicyKnapsack, PolicyLRU}

	res, err := EvaluateRound(scenarioTrace(t), cfg, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{PolicyKnapsack, PolicyLRU}, res.Order)
	assert.Len(t, res.Metrics, 2)
	assert.Nil(t, res.OptimizerTable)
}

func TestWarnings_Messages(t *testing.T) {
	w := &CapacityExceededWarning{PolicyName: PolicyLRU, UsageKB: 12, CapacityKB: 10}
	assert.Equal(t, "LRU: selection uses 12.00 KB, exceeding capacity 10.00 KB", w.Error())
	assert.Equal(t, PolicyLRU, w.Policy())

	e := &InvalidTraceError{ResourceID: "a", Reason: "duplicate resource id"}
	assert.Equal(t, `invalid trace: resource "a": duplicate resource id`, e.Error())
}

func TestCheckCapacity(t *testing.T) {
	tr := scenarioTrace(t)

	tests := []struct {
		name     string
		sel      Selection
		capacity Capacity
		exceeded bool
	}{
		{"within capacity", NewSelection("C"), 7, false},
		{"exactly at capacity", NewSelection("A", "C"), 15, false},
		{"inside summation tolerance", NewSelection("A", "C"), Capacity(15 * (1 - 1e-12)), false},
		{"beyond tolerance", NewSelection("A", "C"), Capacity(15 * (1 - 1e-6)), true},
		{"over capacity", NewSelection("A", "B", "C"), 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := checkCapacity(PolicyLRU, tt.sel, tr, tt.capacity)
			if !tt.exceeded {
				assert.Nil(t, w)
				return
			}
			var ce *CapacityExceededWarning
			require.True(t, errors.As(w, &ce))
			assert.Equal(t, PolicyLRU, ce.Policy())
			assert.Equal(t, tt.sel.UsageKB(tr), ce.UsageKB)
			assert.Equal(t, tt.capacity.KB(), ce.CapacityKB)
		})
	}
}

func TestRoundResult_AddWarning(t *testing.T) {
	// GIVEN a selection larger than the cache
	tr := scenarioTrace(t)
	res := &RoundResult{}

	// WHEN the post-condition runs for a good and a bad selection
	res.addWarning(checkCapacity(PolicyLFU, NewSelection("C"), tr, 7))
	res.addWarning(checkCapacity(PolicyKnapsack, NewSelection("A", "C"), tr, 7))

	// THEN only the violation is attached to the round
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, PolicyKnapsack, res.Warnings[0].Policy())
	assert.Contains(t, res.Warnings[0].Error(), "15.00 KB")
}

func TestEvaluateRound_InvalidConfigFailsBeforePolicies(t *testing.T) {
	// GIVEN a hand-built config that skipped DefaultOptimizerConfig
	cfg := &Config{CapacityFraction: 0.5, Policies: []string{PolicySGD}}

	// WHEN evaluated
	res, err := EvaluateRound(scenarioTrace(t), cfg, 1)

	// THEN it is rejected instead of reaching the optimizer
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "max_retries")
}
