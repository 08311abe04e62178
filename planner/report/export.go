package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

// MethodResult is one policy's entry in a RoundDocument.
type MethodResult struct {
	Policy string `json:"policy"`
	planner.MetricsRecord
	Cached []string `json:"cached"`
}

// RoundDocument is the JSON layout of a single round's results.
type RoundDocument struct {
	CapacityKB        float64                  `json:"capacity_kb"`
	Methods           []MethodResult           `json:"methods"`
	OptimizerTable    []planner.ProbabilityRow `json:"optimizer_table,omitempty"`
	OptimizerAttempts []planner.AttemptSummary `json:"optimizer_attempts,omitempty"`
	Warnings          []string                 `json:"warnings,omitempty"`
}

// NewRoundDocument converts a round result into its JSON layout.
func NewRoundDocument(res *planner.RoundResult) *RoundDocument {
	doc := &RoundDocument{
		CapacityKB:        res.CapacityKB,
		Methods:           make([]MethodResult, 0, len(res.Order)),
		OptimizerTable:    res.OptimizerTable,
		OptimizerAttempts: res.Attempts,
	}
	for _, name := range res.Order {
		cached := res.Selections[name].IDs()
		if cached == nil {
			cached = []string{}
		}
		doc.Methods = append(doc.Methods, MethodResult{
			Policy:        name,
			MetricsRecord: res.Metrics[name],
			Cached:        cached,
		})
	}
	for _, w := range res.Warnings {
		doc.Warnings = append(doc.Warnings, w.Error())
	}
	return doc
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing results to %s: %w", path, err)
	}
	return nil
}

const metricsNamespace = "cache_planner"

// Stat label values. A single round is exported with StatValue; an experiment
// summary with the four aggregate stats.
const (
	StatValue  = "value"
	StatMean   = "mean"
	StatStdDev = "stddev"
	StatMin    = "min"
	StatMax    = "max"
)

// Exporter collects per-policy gauges in a private registry for textfile export.
type Exporter struct {
	registry         *prometheus.Registry
	hitRate          *prometheus.GaugeVec
	latencyReduction *prometheus.GaugeVec
	usage            *prometheus.GaugeVec
	capacity         *prometheus.GaugeVec
	warnings         *prometheus.CounterVec
	rounds           prometheus.Gauge
}

// NewExporter creates an Exporter with all gauges registered.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		hitRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "hit_rate_percent",
				Help:      "Share of request frequency served by cached resources",
			},
			[]string{"policy", "stat"},
		),
		latencyReduction: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "latency_reduction_percent",
				Help:      "Latency-weighted load reduction of the selection",
			},
			[]string{"policy", "stat"},
		),
		usage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "cache_usage_kilobytes",
				Help:      "Total size of the selected resources in KB",
			},
			[]string{"policy", "stat"},
		),
		capacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "capacity_kilobytes",
				Help:      "Cache capacity in KB",
			},
			[]string{"stat"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "warnings_total",
				Help:      "Warnings reported by policy",
			},
			[]string{"policy"},
		),
		rounds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "rounds",
				Help:      "Number of evaluated rounds",
			},
		),
	}
	e.registry.MustRegister(e.hitRate, e.latencyReduction, e.usage, e.capacity, e.warnings, e.rounds)
	return e
}

// ObserveRound exports the metrics of a single round. Undefined percentages are
// not exported.
func (e *Exporter) ObserveRound(res *planner.RoundResult) {
	e.rounds.Set(1)
	e.capacity.WithLabelValues(StatValue).Set(res.CapacityKB)
	for _, name := range res.Order {
		m := res.Metrics[name]
		if m.HitRatePct.Valid {
			e.hitRate.WithLabelValues(name, StatValue).Set(m.HitRatePct.Value)
		}
		if m.LatencyReductionPct.Valid {
			e.latencyReduction.WithLabelValues(name, StatValue).Set(m.LatencyReductionPct.Value)
		}
		e.usage.WithLabelValues(name, StatValue).Set(m.CacheUsageKB)
		e.warnings.WithLabelValues(name)
	}
	for _, w := range res.Warnings {
		e.warnings.WithLabelValues(w.Policy()).Inc()
	}
}

// ObserveSummary exports the aggregated metrics of an experiment.
func (e *Exporter) ObserveSummary(s *Summary) {
	e.rounds.Set(float64(s.Rounds))
	setDistribution(e.capacity, nil, s.CapacityKB)
	for _, m := range s.Methods {
		setDistribution(e.hitRate, []string{m.Policy}, m.HitRate)
		setDistribution(e.latencyReduction, []string{m.Policy}, m.LatencyReduction)
		setDistribution(e.usage, []string{m.Policy}, m.UsageKB)
		e.warnings.WithLabelValues(m.Policy).Add(float64(s.Warnings[m.Policy]))
	}
}

func setDistribution(vec *prometheus.GaugeVec, labels []string, d Distribution) {
	if d.Count == 0 {
		return
	}
	for _, stat := range []struct {
		name  string
		value float64
	}{
		{StatMean, d.Mean},
		{StatStdDev, d.StdDev},
		{StatMin, d.Min},
		{StatMax, d.Max},
	} {
		values := append(append([]string{}, labels...), stat.name)
		vec.WithLabelValues(values...).Set(stat.value)
	}
}

// WriteTextfile writes every collected metric to path in the Prometheus text
// format, for pickup by the node exporter textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
