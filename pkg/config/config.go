// Package config loads and validates the service configuration: LLM
// providers, per-stage pipeline budgets, and the external service
// boundaries (brokerage, market data). Configuration comes from a YAML
// file in a config directory plus environment variables expanded with
// {{.VAR}} template syntax.
package config

import (
	"fmt"
	"log/slog"
)

// Config is the fully-loaded, validated service configuration.
type Config struct {
	LLMProviders map[string]*LLMProviderConfig `yaml:"llm_providers"`
	Defaults     Defaults                      `yaml:"defaults"`
	Brokerage    ServiceConfig                 `yaml:"brokerage"`
	MarketData   ServiceConfig                 `yaml:"market_data"`

	providerRegistry *LLMProviderRegistry
}

// ServiceConfig describes one external HTTP service boundary.
type ServiceConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg.providerRegistry = NewLLMProviderRegistry(cfg.LLMProviders)

	log.Info("Configuration initialized successfully",
		"llm_providers", len(cfg.LLMProviders))
	return cfg, nil
}

// Providers returns the LLM provider registry.
func (c *Config) Providers() *LLMProviderRegistry {
	return c.providerRegistry
}

// validate performs fail-fast validation, providers first since everything
// downstream depends on them.
func (c *Config) validate() error {
	if len(c.LLMProviders) == 0 {
		return ErrNoLLMProviders
	}
	for name, p := range c.LLMProviders {
		if p == nil || p.Model == "" {
			return fmt.Errorf("%w: provider %q has no model", ErrInvalidProvider, name)
		}
	}
	if _, ok := c.LLMProviders[c.Defaults.LLMProvider]; !ok {
		return fmt.Errorf("%w: default provider %q is not defined",
			ErrInvalidProvider, c.Defaults.LLMProvider)
	}
	if c.Defaults.MaxTickerMatches <= 0 {
		return fmt.Errorf("defaults.max_ticker_matches must be positive, got %d",
			c.Defaults.MaxTickerMatches)
	}
	if c.Defaults.MaxPortfolioPositions <= 0 {
		return fmt.Errorf("defaults.max_portfolio_positions must be positive, got %d",
			c.Defaults.MaxPortfolioPositions)
	}
	return nil
}
