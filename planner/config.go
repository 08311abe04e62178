package planner

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCapacityFraction is the share of total trace size granted to the cache.
const DefaultCapacityFraction = 0.2

// Config holds the planner configuration, loadable from a YAML file.
// Fields left out of the file keep their DefaultConfig values.
type Config struct {
	CapacityFraction float64         `yaml:"capacity_fraction"`
	Policies         []string        `yaml:"policies"`
	Optimizer        OptimizerConfig `yaml:"optimizer"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	policies := make([]string, len(DefaultPolicyOrder))
	copy(policies, DefaultPolicyOrder)
	return &Config{
		CapacityFraction: DefaultCapacityFraction,
		Policies:         policies,
		Optimizer:        DefaultOptimizerConfig(),
	}
}

// LoadConfig reads and parses a YAML planner configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading planner config: %w", err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing planner config: %w", err)
	}
	return cfg, nil
}

// Validate checks the capacity fraction, policy names and optimizer hyperparameters.
func (c *Config) Validate() error {
	if math.IsNaN(c.CapacityFraction) || c.CapacityFraction <= 0 || c.CapacityFraction > 1 {
		return fmt.Errorf("capacity_fraction must be in (0, 1], got %v", c.CapacityFraction)
	}
	if len(c.Policies) == 0 {
		return fmt.Errorf("at least one policy is required")
	}
	seen := make(map[string]bool, len(c.Policies))
	for _, name := range c.Policies {
		if !ValidPolicies[name] {
			return fmt.Errorf("unknown policy %q; valid: %q, %q, %q, %q", name, PolicyLRU, PolicyLFU, PolicyKnapsack, PolicySGD)
		}
		if seen[name] {
			return fmt.Errorf("policy %q listed twice", name)
		}
		seen[name] = true
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}
