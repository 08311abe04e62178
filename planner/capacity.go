package planner

import (
	"fmt"
	"math"
)

// Capacity is a cache size budget in KB.
type Capacity float64

// KB returns the budget as a plain float.
func (c Capacity) KB() float64 { return float64(c) }

// ComputeCapacity derives the budget for a trace as fraction × Σ size.
// fraction must lie in (0, 1]. An empty trace yields *InvalidTraceError, since a zero
// total makes the capacity and every ratio metric undefined.
func ComputeCapacity(tr *Trace, fraction float64) (Capacity, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		return 0, fmt.Errorf("capacity fraction must be in (0, 1], got %v", fraction)
	}
	if tr.Len() == 0 {
		return 0, &InvalidTraceError{Reason: "trace is empty"}
	}
	total := tr.TotalSizeKB()
	if total <= 0 {
		return 0, &InvalidTraceError{Reason: "total resource size is zero"}
	}
	return Capacity(fraction * total), nil
}
