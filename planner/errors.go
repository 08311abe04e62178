package planner

import (
	"errors"
	"fmt"
)

// ErrInvalidTrace matches every *InvalidTraceError via errors.Is.
var ErrInvalidTrace = errors.New("invalid trace")

// InvalidTraceError reports a trace that cannot be evaluated: empty, or holding a
// record with a non-positive size, negative frequency or latency, or a duplicate id.
// It is fatal for the round and is never retried.
type InvalidTraceError struct {
	ResourceID string // empty when the problem is not tied to one record
	Reason     string
}

func (e *InvalidTraceError) Error() string {
	if e.ResourceID == "" {
		return fmt.Sprintf("invalid trace: %s", e.Reason)
	}
	return fmt.Sprintf("invalid trace: resource %q: %s", e.ResourceID, e.Reason)
}

// Is reports whether target is ErrInvalidTrace.
func (e *InvalidTraceError) Is(target error) bool {
	return target == ErrInvalidTrace
}

// Warning is a non-fatal condition attached to a round result.
type Warning interface {
	error
	// Policy returns the canonical name of the policy that raised the warning.
	Policy() string
}

// CapacityExceededWarning reports a discrete selection whose total size exceeds
// the capacity budget after cleanup. The greedy guards make this unreachable; it is
// checked as a post-condition so a regression is reported instead of accepted.
type CapacityExceededWarning struct {
	PolicyName string
	UsageKB    float64
	CapacityKB float64
}

func (w *CapacityExceededWarning) Error() string {
	return fmt.Sprintf("%s: selection uses %.2f KB, exceeding capacity %.2f KB", w.PolicyName, w.UsageKB, w.CapacityKB)
}

// Policy implements Warning.
func (w *CapacityExceededWarning) Policy() string { return w.PolicyName }

// NonConvergenceWarning reports that the optimizer exhausted its retries without
// landing inside the target margin. The best-effort selection is still returned.
type NonConvergenceWarning struct {
	PolicyName  string
	Attempts    int
	BestUsageKB float64
	CapacityKB  float64
	Margin      float64
}

func (w *NonConvergenceWarning) Error() string {
	return fmt.Sprintf("%s: no attempt reached [%.2f, %.2f] KB after %d attempts (best %.2f KB)",
		w.PolicyName, w.CapacityKB*(1-w.Margin), w.CapacityKB, w.Attempts, w.BestUsageKB)
}

// Policy implements Warning.
func (w *NonConvergenceWarning) Policy() string { return w.PolicyName }
