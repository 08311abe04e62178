// Package experiment repeats round evaluation over freshly generated traces and
// aggregates the per-policy metrics across rounds.
package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/report"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/workload"
)

// Config controls an experiment.
type Config struct {
	Rounds      int            // number of generated traces
	Parallelism int            // rounds evaluated concurrently
	Workload    *workload.Spec // request generation for every round
}

// DefaultConfig returns 100 rounds of the default workload, four at a time.
func DefaultConfig() *Config {
	return &Config{
		Rounds:      100,
		Parallelism: 4,
		Workload:    workload.DefaultSpec(),
	}
}

// Validate checks the experiment settings and the workload spec.
func (c *Config) Validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	if c.Workload == nil {
		return fmt.Errorf("workload spec is required")
	}
	if err := c.Workload.Validate(); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	return nil
}

// Round is the outcome of one experiment round.
type Round struct {
	Index  int
	Seed   int64
	Trace  *planner.Trace
	Result *planner.RoundResult
}

// Result holds every round, ordered by index, and their aggregate.
type Result struct {
	Rounds  []Round
	Summary *report.Summary
}

// Run evaluates cfg.Rounds independent rounds. Round i generates its trace and seeds
// its optimizer from a seed derived from seed and i, so results do not depend on
// Parallelism or scheduling. The first failing round cancels the rest.
func Run(ctx context.Context, cfg *Config, plannerCfg *planner.Config, seed int64) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := plannerCfg.Validate(); err != nil {
		return nil, err
	}

	master := planner.NewPartitionedRNG(planner.NewRunKey(seed))
	seeds := make([]int64, cfg.Rounds)
	for i := range seeds {
		seeds[i] = master.DeriveSeed(planner.SubsystemRound(i))
	}

	p := pool.NewWithResults[Round]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(cfg.Parallelism)
	for i, roundSeed := range seeds {
		i, roundSeed := i, roundSeed
		p.Go(func(ctx context.Context) (Round, error) {
			if err := ctx.Err(); err != nil {
				return Round{}, err
			}
			return runRound(cfg.Workload, plannerCfg, i, roundSeed)
		})
	}
	rounds, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(rounds, func(a, b int) bool { return rounds[a].Index < rounds[b].Index })

	results := make([]*planner.RoundResult, len(rounds))
	for i, r := range rounds {
		results[i] = r.Result
	}
	summary := report.Summarize(results)
	logrus.Infof("Experiment complete: %d rounds, %d policies", summary.Rounds, len(summary.Methods))
	return &Result{Rounds: rounds, Summary: summary}, nil
}

func runRound(spec *workload.Spec, plannerCfg *planner.Config, index int, seed int64) (Round, error) {
	rng := planner.NewPartitionedRNG(planner.NewRunKey(seed))
	tr, err := workload.Generate(spec, rng.ForSubsystem(planner.SubsystemWorkload))
	if err != nil {
		return Round{}, fmt.Errorf("round %d: %w", index, err)
	}
	res, err := planner.EvaluateRound(tr, plannerCfg, seed)
	if err != nil {
		return Round{}, fmt.Errorf("round %d: %w", index, err)
	}
	logrus.Debugf("Round %d: %d resources, capacity %.2f KB, %d warnings",
		index, tr.Len(), res.CapacityKB, len(res.Warnings))
	return Round{Index: index, Seed: seed, Trace: tr, Result: res}, nil
}
