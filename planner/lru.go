package planner

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/sirupsen/logrus"
)

// LRU replays arrivals through a recency-ordered admission queue.
// When the trace carries an access sequence it is replayed; otherwise each record
// arrives once in trace order, so recency is the record's position.
type LRU struct{}

// Name implements Policy.
func (p *LRU) Name() string { return PolicyLRU }

// Select implements Policy. The returned ids run from least to most recently used.
func (p *LRU) Select(tr *Trace, capacity Capacity) Selection {
	arrivals := tr.Accesses()
	if arrivals == nil {
		for _, r := range tr.Records() {
			arrivals = append(arrivals, r.ID)
		}
	}
	if len(arrivals) == 0 {
		return NewSelection()
	}

	// Sized by resource count so the list itself never evicts; eviction is by KB below.
	recency, err := simplelru.NewLRU[string, float64](tr.Len()+1, nil)
	if err != nil {
		panic(err) // unreachable: size is always positive
	}
	used := 0.0
	for _, id := range arrivals {
		r, _ := tr.Lookup(id)
		if recency.Contains(id) {
			recency.Get(id) // promote to most recent
			continue
		}
		if used+r.SizeKB > capacity.KB() {
			continue
		}
		recency.Add(id, r.SizeKB)
		used += r.SizeKB
		for used > capacity.KB() {
			victim, size, ok := recency.RemoveOldest()
			if !ok {
				break
			}
			logrus.Debugf("LRU: evicting %s (%.2f KB)", victim, size)
			used -= size
		}
	}
	return NewSelection(recency.Keys()...)
}
