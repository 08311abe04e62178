package planner

import (
	"encoding/json"
	"strconv"
)

// Percentage is a metric that may be undefined, e.g. a hit rate over a trace with no requests.
type Percentage struct {
	Value float64
	Valid bool
}

// Defined wraps v as a valid Percentage.
func Defined(v float64) Percentage { return Percentage{Value: v, Valid: true} }

// Undefined is the explicit marker for a metric whose denominator is zero.
var Undefined = Percentage{}

// String renders the value with two decimals, or "n/a".
func (p Percentage) String() string {
	if !p.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON encodes an undefined Percentage as null.
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// MetricsRecord scores one selection against a trace.
type MetricsRecord struct {
	HitRatePct          Percentage `json:"hit_rate_pct"`
	LatencyReductionPct Percentage `json:"latency_reduction_pct"`
	CacheUsageKB        float64    `json:"cache_usage_kb"`
	CapacityKB          float64    `json:"capacity_kb"`
}

// Evaluate scores sel against tr. Every policy is scored with this one function.
//
// Hit rate is the share of request frequency served by selected resources.
// Latency reduction is (L_total − L_cached)/L_total where L is Σ latency·frequency;
// it measures latency-weighted load, not literal time saved. Either metric is
// Undefined when its denominator is zero. Ids missing from tr are ignored.
func Evaluate(tr *Trace, sel Selection, capacity Capacity) MetricsRecord {
	var (
		hits          int64
		cachedLatency float64
		usage         float64
	)
	for _, id := range sel.IDs() {
		r, ok := tr.Lookup(id)
		if !ok {
			continue
		}
		hits += r.Frequency
		cachedLatency += r.LatencySec * float64(r.Frequency)
		usage += r.SizeKB
	}

	m := MetricsRecord{
		HitRatePct:          Undefined,
		LatencyReductionPct: Undefined,
		CacheUsageKB:        usage,
		CapacityKB:          capacity.KB(),
	}
	if total := tr.TotalFrequency(); total > 0 {
		m.HitRatePct = Defined(float64(hits) / float64(total) * 100)
	}
	if total := tr.TotalWeightedLatency(); total > 0 {
		m.LatencyReductionPct = Defined((total - cachedLatency) / total * 100)
	}
	return m
}
