package planner

// Selection is an ordered set of resource ids chosen for the cache.
// The zero value is an empty selection. A Selection is immutable once built.
type Selection struct {
	ids []string
	set map[string]struct{}
}

// NewSelection builds a Selection from ids, dropping duplicates but keeping first-seen order.
func NewSelection(ids ...string) Selection {
	s := Selection{
		ids: make([]string, 0, len(ids)),
		set: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, ok := s.set[id]; ok {
			continue
		}
		s.set[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// IDs returns a copy of the selected ids in admission order.
func (s Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected resources.
func (s Selection) Len() int { return len(s.ids) }

// Contains reports whether id is selected.
func (s Selection) Contains(id string) bool {
	_, ok := s.set[id]
	return ok
}

// UsageKB returns Σ size over the selected resources found in tr.
func (s Selection) UsageKB(tr *Trace) float64 {
	used := 0.0
	for _, id := range s.ids {
		if r, ok := tr.Lookup(id); ok {
			used += r.SizeKB
		}
	}
	return used
}
