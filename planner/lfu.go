package planner

// LFU admits the most frequently requested resources first.
// Ties keep trace order.
type LFU struct{}

// Name implements Policy.
func (p *LFU) Name() string { return PolicyLFU }

// Select implements Policy.
func (p *LFU) Select(tr *Trace, capacity Capacity) Selection {
	ranked := rankBy(tr.Records(), func(r ResourceRecord) float64 {
		return float64(r.Frequency)
	})
	sel, _ := greedyFill(ranked, capacity)
	return sel
}
