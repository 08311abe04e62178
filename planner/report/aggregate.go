// Package report renders round results as text tables, JSON documents and
// Prometheus textfiles, and aggregates metrics across experiment rounds.
package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

// Distribution captures a statistical summary of a metric across rounds.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input. StdDev is the sample
// standard deviation, 0 for a single value.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	d := Distribution{
		Mean:  values[0],
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Count: len(values),
	}
	if len(values) > 1 {
		d.Mean, d.StdDev = stat.MeanStdDev(values, nil)
	}
	return d
}

// MethodSummary aggregates one policy's metrics across rounds.
// A round whose percentage is undefined is left out of that distribution.
type MethodSummary struct {
	Policy           string       `json:"policy"`
	HitRate          Distribution `json:"hit_rate_pct"`
	LatencyReduction Distribution `json:"latency_reduction_pct"`
	UsageKB          Distribution `json:"cache_usage_kb"`
}

// Summary aggregates the rounds of an experiment.
type Summary struct {
	Rounds     int             `json:"rounds"`
	CapacityKB Distribution    `json:"capacity_kb"`
	Methods    []MethodSummary `json:"methods"`
	Warnings   map[string]int  `json:"warnings,omitempty"` // per policy
}

// Summarize aggregates round results. Methods keep the order in which they first
// appear. Nil results are skipped.
func Summarize(results []*planner.RoundResult) *Summary {
	type samples struct {
		hitRate, latency, usage []float64
	}
	var (
		order    []string
		capacity []float64
	)
	perMethod := make(map[string]*samples)
	s := &Summary{}

	for _, res := range results {
		if res == nil {
			continue
		}
		s.Rounds++
		capacity = append(capacity, res.CapacityKB)
		for _, name := range res.Order {
			acc, ok := perMethod[name]
			if !ok {
				acc = &samples{}
				perMethod[name] = acc
				order = append(order, name)
			}
			m := res.Metrics[name]
			if m.HitRatePct.Valid {
				acc.hitRate = append(acc.hitRate, m.HitRatePct.Value)
			}
			if m.LatencyReductionPct.Valid {
				acc.latency = append(acc.latency, m.LatencyReductionPct.Value)
			}
			acc.usage = append(acc.usage, m.CacheUsageKB)
		}
		for _, w := range res.Warnings {
			if s.Warnings == nil {
				s.Warnings = make(map[string]int)
			}
			s.Warnings[w.Policy()]++
		}
	}

	s.CapacityKB = NewDistribution(capacity)
	s.Methods = make([]MethodSummary, 0, len(order))
	for _, name := range order {
		acc := perMethod[name]
		s.Methods = append(s.Methods, MethodSummary{
			Policy:           name,
			HitRate:          NewDistribution(acc.hitRate),
			LatencyReduction: NewDistribution(acc.latency),
			UsageKB:          NewDistribution(acc.usage),
		})
	}
	return s
}
