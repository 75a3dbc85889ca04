package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Defaults contains system-wide pipeline defaults. Values are used when the
// inbound request does not specify its own.
type Defaults struct {
	// LLM provider used when the request names none.
	LLMProvider string `yaml:"llm_provider,omitempty"`

	// Per-stage wall-clock budgets. The hosting transport enforces an
	// overall turn ceiling on top of these.
	ClassificationTimeout Duration `yaml:"classification_timeout,omitempty"`
	AgentTimeout          Duration `yaml:"agent_timeout,omitempty"`
	ExecutionTimeout      Duration `yaml:"execution_timeout,omitempty"`
	SynthesisTimeout      Duration `yaml:"synthesis_timeout,omitempty"`

	// Catalog search result cap.
	MaxTickerMatches int `yaml:"max_ticker_matches,omitempty"`

	// Portfolio shaping: positions below MinPortfolioWeight (percent) are
	// dropped; at most MaxPortfolioPositions survive, heaviest first.
	MinPortfolioWeight    float64 `yaml:"min_portfolio_weight,omitempty"`
	MaxPortfolioPositions int     `yaml:"max_portfolio_positions,omitempty"`

	// Concurrent candidate-query executions per turn.
	MaxConcurrentQueries int `yaml:"max_concurrent_queries,omitempty"`
}

// builtinDefaults are merged under user configuration so a minimal YAML
// file still yields a complete Defaults.
var builtinDefaults = Defaults{
	LLMProvider:           "default",
	ClassificationTimeout: Duration(20 * time.Second),
	AgentTimeout:          Duration(30 * time.Second),
	ExecutionTimeout:      Duration(20 * time.Second),
	SynthesisTimeout:      Duration(60 * time.Second),
	MaxTickerMatches:      50,
	MinPortfolioWeight:    0.5,
	MaxPortfolioPositions: 20,
	MaxConcurrentQueries:  8,
}
