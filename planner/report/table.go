package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// formatKB renders a size in KB with thousands separators and two decimals.
func formatKB(kb float64) string {
	return humanize.CommafWithDigits(kb, 2) + " KB"
}

// WriteRound prints the capacity and the per-policy metrics of one round.
func WriteRound(w io.Writer, res *planner.RoundResult) error {
	if _, err := fmt.Fprintf(w, "Cache capacity: %s\n\n", formatKB(res.CapacityKB)); err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "Method\tHit Rate (%)\tLatency Reduction (%)\tCache Usage\tResources")
	for _, name := range res.Order {
		m := res.Metrics[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			name, m.HitRatePct, m.LatencyReductionPct, formatKB(m.CacheUsageKB), res.Selections[name].Len())
	}
	return tw.Flush()
}

// WriteOptimizerTable prints the optimizer's per-resource probabilities and decisions.
func WriteOptimizerTable(w io.Writer, rows []planner.ProbabilityRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Resource\tCache Probability\tCached")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.4f\t%t\n", r.ResourceID, r.CacheProb, r.Cached)
	}
	return tw.Flush()
}

// WriteBreakdown lists, for every policy, the cached resources with their size and
// request count, in selection order.
func WriteBreakdown(w io.Writer, tr *planner.Trace, res *planner.RoundResult) error {
	for i, name := range res.Order {
		sel := res.Selections[name]
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: %d resources, %s\n", name, sel.Len(), formatKB(sel.UsageKB(tr))); err != nil {
			return err
		}
		tw := newTable(w)
		for _, id := range sel.IDs() {
			r, ok := tr.Lookup(id)
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s requests\n", r.ID, formatKB(r.SizeKB), humanize.Comma(r.Frequency))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary prints mean, standard deviation and range of every metric per policy.
func WriteSummary(w io.Writer, s *Summary) error {
	if _, err := fmt.Fprintf(w, "Rounds: %d, mean capacity: %s\n\n", s.Rounds, formatKB(s.CapacityKB.Mean)); err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "Method\tMetric\tMean\tStdDev\tMin\tMax\tRounds")
	for _, m := range s.Methods {
		writeDistributionRow(tw, m.Policy, "Hit Rate (%)", m.HitRate)
		writeDistributionRow(tw, m.Policy, "Latency Reduction (%)", m.LatencyReduction)
		writeDistributionRow(tw, m.Policy, "Cache Usage (KB)", m.UsageKB)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, m := range s.Methods {
		if n := s.Warnings[m.Policy]; n > 0 {
			if _, err := fmt.Fprintf(w, "%s: %d warnings\n", m.Policy, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDistributionRow(w io.Writer, policy, metric string, d Distribution) {
	if d.Count == 0 {
		fmt.Fprintf(w, "%s\t%s\tn/a\tn/a\tn/a\tn/a\t0\n", policy, metric)
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n", policy, metric, d.Mean, d.StdDev, d.Min, d.Max, d.Count)
}
