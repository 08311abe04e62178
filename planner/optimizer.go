package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// OptimizerConfig holds the SGD-based optimizer hyperparameters.
// Loadable from the `optimizer:` block of a planner config file.
type OptimizerConfig struct {
	MaxRetries      int     `yaml:"max_retries"`
	SGDIterations   int     `yaml:"sgd_iterations"`
	LearningRate    float64 `yaml:"learning_rate"`
	MinLearningRate float64 `yaml:"min_learning_rate"`
	MaxLearningRate float64 `yaml:"max_learning_rate"`
	AdaptFactor     float64 `yaml:"adapt_factor"` // multiplicative step for learning rate and penalty
	Margin          float64 `yaml:"margin"`       // target band is [capacity·(1-Margin), capacity]
	ThetaClip       float64 `yaml:"theta_clip"`

	// Penalty is the initial capacity penalty λ. Zero selects Σ frequency / Σ size.
	Penalty    float64 `yaml:"penalty"`
	MinPenalty float64 `yaml:"min_penalty"`
	MaxPenalty float64 `yaml:"max_penalty"`

	// LatencyWeight adds LatencyWeight·frequency·latency to each gradient.
	// Zero keeps the pure frequency-minus-penalty gradient.
	LatencyWeight float64 `yaml:"latency_weight"`

	InitProbMin float64 `yaml:"init_prob_min"`
	InitProbMax float64 `yaml:"init_prob_max"`

	// NormalizeInputs min-max scales frequency and latency into [0,1] before the
	// gradient is formed. Sizes and the evaluator always see raw values.
	NormalizeInputs bool `yaml:"normalize_inputs"`
}

// DefaultOptimizerConfig returns the hyperparameters used when a config file leaves
// the optimizer block out.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		MaxRetries:      10,
		SGDIterations:   500,
		LearningRate:    0.01,
		MinLearningRate: 1e-4,
		MaxLearningRate: 1.0,
		AdaptFactor:     1.5,
		Margin:          0.1,
		ThetaClip:       10,
		MinPenalty:      1e-6,
		MaxPenalty:      1e6,
		InitProbMin:     0.2,
		InitProbMax:     0.8,
	}
}

// Validate checks hyperparameter ranges.
func (c OptimizerConfig) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.SGDIterations < 1 {
		return fmt.Errorf("sgd_iterations must be at least 1, got %d", c.SGDIterations)
	}
	if err := validateFinitePositive("min_learning_rate", c.MinLearningRate); err != nil {
		return err
	}
	if c.MaxLearningRate < c.MinLearningRate || math.IsInf(c.MaxLearningRate, 0) {
		return fmt.Errorf("max_learning_rate must be finite and >= min_learning_rate, got %v", c.MaxLearningRate)
	}
	if c.LearningRate < c.MinLearningRate || c.LearningRate > c.MaxLearningRate {
		return fmt.Errorf("learning_rate must be in [%v, %v], got %v", c.MinLearningRate, c.MaxLearningRate, c.LearningRate)
	}
	if math.IsNaN(c.AdaptFactor) || c.AdaptFactor <= 1 {
		return fmt.Errorf("adapt_factor must be greater than 1, got %v", c.AdaptFactor)
	}
	if math.IsNaN(c.Margin) || c.Margin < 0 || c.Margin >= 1 {
		return fmt.Errorf("margin must be in [0, 1), got %v", c.Margin)
	}
	if err := validateFinitePositive("theta_clip", c.ThetaClip); err != nil {
		return err
	}
	if err := validateFinitePositive("min_penalty", c.MinPenalty); err != nil {
		return err
	}
	if c.MaxPenalty < c.MinPenalty || math.IsInf(c.MaxPenalty, 0) {
		return fmt.Errorf("max_penalty must be finite and >= min_penalty, got %v", c.MaxPenalty)
	}
	if math.IsNaN(c.Penalty) || c.Penalty < 0 {
		return fmt.Errorf("penalty must be non-negative (0 = auto), got %v", c.Penalty)
	}
	if math.IsNaN(c.LatencyWeight) || math.IsInf(c.LatencyWeight, 0) || c.LatencyWeight < 0 {
		return fmt.Errorf("latency_weight must be non-negative and finite, got %v", c.LatencyWeight)
	}
	if !(c.InitProbMin > 0 && c.InitProbMin <= c.InitProbMax && c.InitProbMax < 1) {
		return fmt.Errorf("init probabilities must satisfy 0 < init_prob_min <= init_prob_max < 1, got [%v, %v]",
			c.InitProbMin, c.InitProbMax)
	}
	return nil
}

// ProbabilityRow is one line of the optimizer's output table.
type ProbabilityRow struct {
	ResourceID string  `json:"resource"`
	CacheProb  float64 `json:"cache_prob"`
	Cached     bool    `json:"cached"`
}

// AttemptSummary records the outcome of one retry attempt.
type AttemptSummary struct {
	Attempt      int     `json:"attempt"`
	LearningRate float64 `json:"learning_rate"`
	Penalty      float64 `json:"penalty"`
	UsageKB      float64 `json:"usage_kb"`
	Feasible     bool    `json:"feasible"` // usage <= capacity
	InBand       bool    `json:"in_band"`  // usage within [capacity·(1-margin), capacity]
}

// OptimizerResult is the discretized outcome of an optimizer run.
type OptimizerResult struct {
	Selection   Selection
	Table       []ProbabilityRow // trace order
	Attempts    []AttemptSummary
	BestAttempt int  // index into Attempts of the attempt the selection came from
	Converged   bool // false signals non-convergence: no attempt landed in the band
	UsageKB     float64
}

// Optimizer maximizes Σ f·p − λ·Σ size·p over inclusion probabilities p = sigmoid(θ)
// by gradient ascent, then projects and discretizes the probabilities into a selection.
// A single fixed learning rate does not reliably land inside the capacity margin, so
// attempts are retried with an adapted learning rate and penalty until one does.
type Optimizer struct {
	cfg  OptimizerConfig
	seed int64
}

// NewOptimizer creates an Optimizer. The seed fixes the initial latent scores, so
// repeated runs over the same inputs are identical.
func NewOptimizer(cfg OptimizerConfig, seed int64) *Optimizer {
	return &Optimizer{cfg: cfg, seed: seed}
}

// optimizerRun is the mutable tuning state of one run. It is threaded by value from
// attempt to attempt.
type optimizerRun struct {
	learningRate float64
	penalty      float64
}

// attemptOutcome is what one attempt produces; the retry loop folds over these.
type attemptOutcome struct {
	summary   AttemptSummary
	probs     []float64
	grad      []float64
	selection Selection
}

// gradientInputs are the per-resource vectors the gradient is formed from.
type gradientInputs struct {
	freq    []float64
	latency []float64
	size    []float64
}

// Optimize runs the adaptive retry loop over tr under capacity.
func (o *Optimizer) Optimize(tr *Trace, capacity Capacity) OptimizerResult {
	records := tr.Records()
	if len(records) == 0 {
		return OptimizerResult{Selection: NewSelection(), Converged: true}
	}
	in := o.gradientInputs(records)
	theta0 := o.initialTheta(len(records))
	run := optimizerRun{
		learningRate: o.cfg.LearningRate,
		penalty:      o.initialPenalty(in),
	}

	var (
		attempts  []AttemptSummary
		best      *attemptOutcome
		last      attemptOutcome
		converged bool
	)
	// At least one attempt runs even when the config was never validated.
	for i := 0; i < max(o.cfg.MaxRetries, 1); i++ {
		out := o.attempt(i, run, theta0, records, in, capacity)
		attempts = append(attempts, out.summary)
		logrus.Debugf("SGD attempt %d: lr=%.5f penalty=%.5f usage=%.2f/%.2f KB in_band=%v",
			i, run.learningRate, run.penalty, out.summary.UsageKB, capacity.KB(), out.summary.InBand)
		best = preferAttempt(best, &out)
		last = out
		if out.summary.InBand {
			converged = true
			break
		}
		run = o.adapt(run, out.summary.UsageKB, capacity)
	}

	chosen := *best
	if !chosen.summary.Feasible {
		sel, used := discretize(records, last.probs, last.grad, capacity)
		chosen = last
		chosen.selection = sel
		chosen.summary.UsageKB = used
	}

	table := make([]ProbabilityRow, len(records))
	for i, r := range records {
		table[i] = ProbabilityRow{
			ResourceID: r.ID,
			CacheProb:  chosen.probs[i],
			Cached:     chosen.selection.Contains(r.ID),
		}
	}
	return OptimizerResult{
		Selection:   chosen.selection,
		Table:       table,
		Attempts:    attempts,
		BestAttempt: chosen.summary.Attempt,
		Converged:   converged,
		UsageKB:     chosen.summary.UsageKB,
	}
}

// attempt is one pass of ascent, projection and discretization. It depends only on
// its arguments; every attempt restarts from theta0.
func (o *Optimizer) attempt(idx int, run optimizerRun, theta0 []float64, records []ResourceRecord, in gradientInputs, capacity Capacity) attemptOutcome {
	n := len(records)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = in.freq[i] + o.cfg.LatencyWeight*in.freq[i]*in.latency[i] - run.penalty*in.size[i]
	}

	theta := make([]float64, n)
	copy(theta, theta0)
	for step := 0; step < o.cfg.SGDIterations; step++ {
		floats.AddScaled(theta, run.learningRate, grad)
		for i, v := range theta {
			theta[i] = math.Max(-o.cfg.ThetaClip, math.Min(o.cfg.ThetaClip, v))
		}
	}
	// The gradient does not depend on p, so p is materialized once after the ascent.
	probs := make([]float64, n)
	for i, v := range theta {
		probs[i] = sigmoid(v)
	}

	if expected := floats.Dot(in.size, probs); expected > capacity.KB() {
		floats.Scale(capacity.KB()/expected, probs)
	}

	sel, used := discretize(records, probs, grad, capacity)
	feasible := used <= capacity.KB()
	return attemptOutcome{
		summary: AttemptSummary{
			Attempt:      idx,
			LearningRate: run.learningRate,
			Penalty:      run.penalty,
			UsageKB:      used,
			Feasible:     feasible,
			InBand:       feasible && used >= capacity.KB()*(1-o.cfg.Margin),
		},
		probs:     probs,
		grad:      grad,
		selection: sel,
	}
}

// adapt returns the tuning state for the next attempt. Under-filled attempts raise the
// learning rate and relax the penalty; over-filled ones do the opposite.
func (o *Optimizer) adapt(run optimizerRun, usage float64, capacity Capacity) optimizerRun {
	f := o.cfg.AdaptFactor
	switch {
	case usage < capacity.KB()*(1-o.cfg.Margin):
		run.learningRate *= f
		run.penalty /= f
	case usage > capacity.KB():
		run.learningRate /= f
		run.penalty *= f
	}
	run.learningRate = clamp(run.learningRate, o.cfg.MinLearningRate, o.cfg.MaxLearningRate)
	run.penalty = clamp(run.penalty, o.cfg.MinPenalty, o.cfg.MaxPenalty)
	return run
}

// preferAttempt keeps the better of two attempts: feasible beats infeasible, then
// higher usage wins, and the earlier attempt wins ties.
func preferAttempt(best, candidate *attemptOutcome) *attemptOutcome {
	if best == nil {
		return candidate
	}
	if candidate.summary.Feasible != best.summary.Feasible {
		if candidate.summary.Feasible {
			return candidate
		}
		return best
	}
	if candidate.summary.UsageKB > best.summary.UsageKB {
		return candidate
	}
	return best
}

// discretize ranks resources by probability and greedily fills the cache.
// Clipping saturates every strongly positive θ at the same probability, so equal
// probabilities are ordered by gradient, and only then by trace order.
func discretize(records []ResourceRecord, probs, grad []float64, capacity Capacity) (Selection, float64) {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if probs[i] != probs[j] {
			return probs[i] > probs[j]
		}
		return grad[i] > grad[j]
	})
	ranked := make([]ResourceRecord, len(order))
	for i, idx := range order {
		ranked[i] = records[idx]
	}
	return greedyFill(ranked, capacity)
}

func (o *Optimizer) gradientInputs(records []ResourceRecord) gradientInputs {
	in := gradientInputs{
		freq:    make([]float64, len(records)),
		latency: make([]float64, len(records)),
		size:    make([]float64, len(records)),
	}
	for i, r := range records {
		in.freq[i] = float64(r.Frequency)
		in.latency[i] = r.LatencySec
		in.size[i] = r.SizeKB
	}
	if o.cfg.NormalizeInputs {
		minMaxScale(in.freq)
		minMaxScale(in.latency)
	}
	return in
}

func (o *Optimizer) initialPenalty(in gradientInputs) float64 {
	if o.cfg.Penalty > 0 {
		return o.cfg.Penalty
	}
	totalSize := floats.Sum(in.size)
	if totalSize == 0 {
		return o.cfg.MinPenalty
	}
	return clamp(floats.Sum(in.freq)/totalSize, o.cfg.MinPenalty, o.cfg.MaxPenalty)
}

// initialTheta draws p ~ U(InitProbMin, InitProbMax) per resource and maps it to logit space.
func (o *Optimizer) initialTheta(n int) []float64 {
	rng := NewPartitionedRNG(NewRunKey(o.seed)).ForSubsystem(SubsystemOptimizer)
	theta := make([]float64, n)
	span := o.cfg.InitProbMax - o.cfg.InitProbMin
	for i := range theta {
		p := o.cfg.InitProbMin + span*rng.Float64()
		theta[i] = math.Log(p / (1 - p))
	}
	return theta
}

// minMaxScale rescales xs into [0,1] in place. A constant vector becomes all zeros.
func minMaxScale(xs []float64) {
	if len(xs) == 0 {
		return
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if hi == lo {
		for i := range xs {
			xs[i] = 0
		}
		return
	}
	floats.AddConst(-lo, xs)
	floats.Scale(1/(hi-lo), xs)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

// SGDPolicy adapts the Optimizer to the Policy interface.
type SGDPolicy struct {
	opt *Optimizer
}

// NewSGDPolicy creates an SGD-based policy with its own optimizer.
func NewSGDPolicy(cfg OptimizerConfig, seed int64) *SGDPolicy {
	return &SGDPolicy{opt: NewOptimizer(cfg, seed)}
}

// Name implements Policy.
func (p *SGDPolicy) Name() string { return PolicySGD }

// Select implements Policy.
func (p *SGDPolicy) Select(tr *Trace, capacity Capacity) Selection {
	return p.opt.Optimize(tr, capacity).Selection
}

// Optimize exposes the full optimizer result, including the probability table.
func (p *SGDPolicy) Optimize(tr *Trace, capacity Capacity) OptimizerResult {
	return p.opt.Optimize(tr, capacity)
}
