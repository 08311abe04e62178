package planner

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrace_InvalidRecords_ReturnInvalidTraceError(t *testing.T) {
	tests := []struct {
		name     string
		records  []ResourceRecord
		accesses []string
	}{
		{"empty", nil, nil},
		{"empty id", []ResourceRecord{{ID: "", SizeKB: 1}}, nil},
		{"zero size", []ResourceRecord{{ID: "a", SizeKB: 0}}, nil},
		{"negative size", []ResourceRecord{{ID: "a", SizeKB: -3}}, nil},
		{"NaN size", []ResourceRecord{{ID: "a", SizeKB: math.NaN()}}, nil},
		{"negative frequency", []ResourceRecord{{ID: "a", SizeKB: 1, Frequency: -1}}, nil},
		{"negative latency", []ResourceRecord{{ID: "a", SizeKB: 1, LatencySec: -0.1}}, nil},
		{"infinite latency", []ResourceRecord{{ID: "a", SizeKB: 1, LatencySec: math.Inf(1)}}, nil},
		{"duplicate id", []ResourceRecord{{ID: "a", SizeKB: 1}, {ID: "a", SizeKB: 2}}, nil},
		{"unknown access", []ResourceRecord{{ID: "a", SizeKB: 1}}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTrace(tt.records, tt.accesses)
			assert.Nil(t, tr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTrace), "error %v must match ErrInvalidTrace", err)
			var ite *InvalidTraceError
			assert.True(t, errors.As(err, &ite))
		})
	}
}

func TestNewTrace_CopiesInput(t *testing.T) {
	// GIVEN a record slice used to build a trace
	records := []ResourceRecord{{ID: "a", SizeKB: 1, Frequency: 2, LatencySec: 0.1}}
	tr, err := NewTrace(records, []string{"a"})
	require.NoError(t, err)

	// WHEN the caller mutates the original slice and the returned copies
	records[0].SizeKB = 99
	tr.Records()[0].SizeKB = 42
	tr.Accesses()[0] = "zzz"

	// THEN the trace is unaffected
	r, ok := tr.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, r.SizeKB)
	assert.Equal(t, []string{"a"}, tr.Accesses())
}

func TestTrace_Aggregates(t *testing.T) {
	tr := scenarioTrace(t)
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, 35.0, tr.TotalSizeKB())
	assert.Equal(t, int64(16), tr.TotalFrequency())
	assert.InDelta(t, 2.55, tr.TotalWeightedLatency(), 1e-12)
	assert.Nil(t, tr.Accesses())

	_, ok := tr.Lookup("missing")
	assert.False(t, ok)
}

func TestTrace_NilIsEmpty(t *testing.T) {
	var tr *Trace
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, tr.Records())
	assert.Equal(t, 0.0, tr.TotalSizeKB())
	assert.Equal(t, int64(0), tr.TotalFrequency())
}

func TestSelection_DedupAndUsage(t *testing.T) {
	tr := scenarioTrace(t)
	sel := NewSelection("C", "A", "C", "unknown")

	assert.Equal(t, []string{"C", "A", "unknown"}, sel.IDs())
	assert.Equal(t, 3, sel.Len())
	assert.True(t, sel.Contains("A"))
	assert.False(t, sel.Contains("B"))
	assert.Equal(t, 15.0, sel.UsageKB(tr), "unknown ids contribute no size")

	var zero Selection
	assert.Equal(t, 0, zero.Len())
	assert.False(t, zero.Contains("A"))
	assert.Equal(t, 0.0, zero.UsageKB(tr))
}
