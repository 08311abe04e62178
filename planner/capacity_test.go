package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCapacity_FractionOfTotalSize(t *testing.T) {
	tr := scenarioTrace(t)

	capacity, err := ComputeCapacity(tr, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, capacity.KB(), 1e-12)

	capacity, err = ComputeCapacity(tr, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, capacity.KB(), 1e-12, "capacity is not truncated to whole KB")
}

func TestComputeCapacity_EmptyTrace_ReturnsInvalidTraceError(t *testing.T) {
	_, err := ComputeCapacity(nil, 0.2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTrace))
}

func TestComputeCapacity_InvalidFraction_ReturnsError(t *testing.T) {
	tr := scenarioTrace(t)
	for _, f := range []float64{0, -0.1, 1.5} {
		_, err := ComputeCapacity(tr, f)
		assert.Error(t, err, "fraction %v", f)
		assert.False(t, errors.Is(err, ErrInvalidTrace), "a bad fraction is a config error, not a trace error")
	}
}
