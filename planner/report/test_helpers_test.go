package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

func testTrace(t *testing.T) *planner.Trace {
	t.Helper()
	tr, err := planner.NewTrace([]planner.ResourceRecord{
		{ID: "A", SizeKB: 10, Frequency: 5, LatencySec: 0.1},
		{ID: "B", SizeKB: 20, Frequency: 1, LatencySec: 0.05},
		{ID: "C", SizeKB: 5, Frequency: 10, LatencySec: 0.2},
	}, nil)
	require.NoError(t, err)
	return tr
}

// testRound builds a round result by hand so expectations do not depend on the policies.
func testRound(capacity, lruHitRate float64) *planner.RoundResult {
	return &planner.RoundResult{
		CapacityKB: capacity,
		Order:      []string{planner.PolicyLRU, planner.PolicyLFU},
		Selections: map[string]planner.Selection{
			planner.PolicyLRU: planner.NewSelection("A"),
			planner.PolicyLFU: planner.NewSelection("C"),
		},
		Metrics: map[string]planner.MetricsRecord{
			planner.PolicyLRU: {
				HitRatePct:          planner.Defined(lruHitRate),
				LatencyReductionPct: planner.Defined(80),
				CacheUsageKB:        10,
				CapacityKB:          capacity,
			},
			planner.PolicyLFU: {
				HitRatePct:          planner.Defined(62.5),
				LatencyReductionPct: planner.Undefined,
				CacheUsageKB:        5,
				CapacityKB:          capacity,
			},
		},
	}
}
