package planner

import (
	"fmt"
	"math"
)

// ResourceRecord describes one cacheable resource observed in a trace.
type ResourceRecord struct {
	ID         string  // unique within a trace
	SizeKB     float64 // positive
	Frequency  int64   // observed request count
	LatencySec float64 // cost of a cache miss
}

// Trace is the read-only input of one evaluation round.
// Record order is the arrival order used by LRU when no access sequence is present.
type Trace struct {
	records  []ResourceRecord
	accesses []string
	index    map[string]int
}

// NewTrace validates records and builds a Trace.
// accesses is an optional arrival-ordered sequence of resource ids; every id must
// refer to a record. Returns *InvalidTraceError on any violation.
func NewTrace(records []ResourceRecord, accesses []string) (*Trace, error) {
	if len(records) == 0 {
		return nil, &InvalidTraceError{Reason: "trace is empty"}
	}
	index := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, &InvalidTraceError{Reason: fmt.Sprintf("record %d has an empty id", i)}
		}
		if _, dup := index[r.ID]; dup {
			return nil, &InvalidTraceError{ResourceID: r.ID, Reason: "duplicate resource id"}
		}
		if math.IsNaN(r.SizeKB) || math.IsInf(r.SizeKB, 0) || r.SizeKB <= 0 {
			return nil, &InvalidTraceError{ResourceID: r.ID, Reason: fmt.Sprintf("size must be positive and finite, got %v", r.SizeKB)}
		}
		if r.Frequency < 0 {
			return nil, &InvalidTraceError{ResourceID: r.ID, Reason: fmt.Sprintf("frequency must be non-negative, got %d", r.Frequency)}
		}
		if math.IsNaN(r.LatencySec) || math.IsInf(r.LatencySec, 0) || r.LatencySec < 0 {
			return nil, &InvalidTraceError{ResourceID: r.ID, Reason: fmt.Sprintf("latency must be non-negative and finite, got %v", r.LatencySec)}
		}
		index[r.ID] = i
	}
	for i, id := range accesses {
		if _, ok := index[id]; !ok {
			return nil, &InvalidTraceError{ResourceID: id, Reason: fmt.Sprintf("access %d refers to an unknown resource", i)}
		}
	}

	tr := &Trace{
		records: make([]ResourceRecord, len(records)),
		index:   index,
	}
	copy(tr.records, records)
	if len(accesses) > 0 {
		tr.accesses = make([]string, len(accesses))
		copy(tr.accesses, accesses)
	}
	return tr, nil
}

// Len returns the number of resources in the trace.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the records in trace order.
func (t *Trace) Records() []ResourceRecord {
	if t == nil {
		return nil
	}
	out := make([]ResourceRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Accesses returns a copy of the access sequence, or nil if the trace has none.
func (t *Trace) Accesses() []string {
	if t == nil || len(t.accesses) == 0 {
		return nil
	}
	out := make([]string, len(t.accesses))
	copy(out, t.accesses)
	return out
}

// Lookup returns the record with the given id.
func (t *Trace) Lookup(id string) (ResourceRecord, bool) {
	if t == nil {
		return ResourceRecord{}, false
	}
	i, ok := t.index[id]
	if !ok {
		return ResourceRecord{}, false
	}
	return t.records[i], true
}

// TotalSizeKB returns Σ size over all records.
func (t *Trace) TotalSizeKB() float64 {
	total := 0.0
	if t == nil {
		return total
	}
	for _, r := range t.records {
		total += r.SizeKB
	}
	return total
}

// TotalFrequency returns Σ frequency over all records.
func (t *Trace) TotalFrequency() int64 {
	var total int64
	if t == nil {
		return total
	}
	for _, r := range t.records {
		total += r.Frequency
	}
	return total
}

// TotalWeightedLatency returns Σ latency·frequency over all records.
func (t *Trace) TotalWeightedLatency() float64 {
	total := 0.0
	if t == nil {
		return total
	}
	for _, r := range t.records {
		total += r.LatencySec * float64(r.Frequency)
	}
	return total
}
