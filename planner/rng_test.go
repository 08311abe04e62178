package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// Same key+name produces same sequence
	rng1 := NewPartitionedRNG(NewRunKey(42))
	rng2 := NewPartitionedRNG(NewRunKey(42))

	for i := 0; i < 3; i++ {
		assert.Equal(t, rng1.ForSubsystem(SubsystemOptimizer).Float64(), rng2.ForSubsystem(SubsystemOptimizer).Float64())
	}
}

func TestPartitionedRNG_WorkloadUsesMasterSeed(t *testing.T) {
	p := NewPartitionedRNG(NewRunKey(99))
	assert.Equal(t, int64(99), p.DeriveSeed(SubsystemWorkload))
	assert.NotEqual(t, int64(99), p.DeriveSeed(SubsystemOptimizer))
}

func TestPartitionedRNG_RoundsAreIsolated(t *testing.T) {
	p := NewPartitionedRNG(NewRunKey(7))
	seen := make(map[int64]bool)
	for n := 0; n < 50; n++ {
		seed := p.DeriveSeed(SubsystemRound(n))
		assert.False(t, seen[seed], "round %d reuses a seed", n)
		seen[seed] = true
	}
}

func TestPartitionedRNG_CachesInstances(t *testing.T) {
	p := NewPartitionedRNG(NewRunKey(1))
	assert.Same(t, p.ForSubsystem(SubsystemOptimizer), p.ForSubsystem(SubsystemOptimizer))
}
