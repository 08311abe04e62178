package planner

import (
	"fmt"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// RunKey uniquely identifies a reproducible run.
// Two runs with the same RunKey and identical configuration MUST produce
// identical selections and metrics.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

const (
	// SubsystemWorkload is the RNG subsystem for synthetic request generation.
	// Uses the master seed directly so --seed alone reproduces a generated trace.
	SubsystemWorkload = "workload"

	// SubsystemOptimizer is the RNG subsystem for the optimizer's initial latent scores.
	SubsystemOptimizer = "optimizer"
)

// SubsystemRound returns the subsystem name for evaluation round n.
func SubsystemRound(n int) string {
	return fmt.Sprintf("round_%d", n)
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - SubsystemWorkload: the master seed
//   - every other subsystem: masterSeed XOR xxhash64(subsystemName)
//
// Thread-safety: NOT thread-safe. Each goroutine derives its own.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same name always returns the same *rand.Rand instance. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.DeriveSeed(name)))
	p.subsystems[name] = rng
	return rng
}

// DeriveSeed returns the seed ForSubsystem would use for name.
func (p *PartitionedRNG) DeriveSeed(name string) int64 {
	if name == SubsystemWorkload {
		return int64(p.key)
	}
	return int64(p.key) ^ int64(xxhash.Sum64String(name))
}
