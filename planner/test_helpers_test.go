package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// scenarioTrace is the three-resource trace used by the end-to-end scenarios.
func scenarioTrace(t *testing.T) *Trace {
	t.Helper()
	tr, err := NewTrace([]ResourceRecord{
		{ID: "A", SizeKB: 10, Frequency: 5, LatencySec: 0.1},
		{ID: "B", SizeKB: 20, Frequency: 1, LatencySec: 0.05},
		{ID: "C", SizeKB: 5, Frequency: 10, LatencySec: 0.2},
	}, nil)
	require.NoError(t, err)
	return tr
}

// uniformTrace returns n resources of equal size with distinct frequencies and latencies.
func uniformTrace(t *testing.T, n int, size float64) *Trace {
	t.Helper()
	records := make([]ResourceRecord, n)
	for i := range records {
		records[i] = ResourceRecord{
			ID:         fmt.Sprintf("r%02d", i),
			SizeKB:     size,
			Frequency:  int64((i*7)%n + 1),
			LatencySec: 0.05 * float64((i*3)%n+1),
		}
	}
	tr, err := NewTrace(records, nil)
	require.NoError(t, err)
	return tr
}

// mixedTrace returns n resources with varied sizes, frequencies and latencies.
func mixedTrace(t *testing.T, n int) *Trace {
	t.Helper()
	records := make([]ResourceRecord, n)
	for i := range records {
		records[i] = ResourceRecord{
			ID:         fmt.Sprintf("m%02d", i),
			SizeKB:     float64((i*37)%50 + 5),
			Frequency:  int64((i*13)%29 + 1),
			LatencySec: float64((i*11)%10+1) / 20,
		}
	}
	tr, err := NewTrace(records, nil)
	require.NoError(t, err)
	return tr
}

func allPolicies(seed int64) []Policy {
	policies := make([]Policy, 0, len(DefaultPolicyOrder))
	for _, name := range DefaultPolicyOrder {
		policies = append(policies, NewPolicy(name, DefaultOptimizerConfig(), seed))
	}
	return policies
}
