package config

import (
	"fmt"
	"sync"
)

// LLMProviderConfig defines one language-model provider.
type LLMProviderConfig struct {
	// Model name sent to the provider (required).
	Model string `yaml:"model"`

	// API key, normally injected via {{.SOME_ENV}} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// Custom endpoint base URL for OpenAI-compatible gateways.
	BaseURL string `yaml:"base_url,omitempty"`

	Temperature *float32 `yaml:"temperature,omitempty"`
	MaxTokens   *int32   `yaml:"max_tokens,omitempty"`
}

// LLMProviderRegistry stores provider configurations with thread-safe access.
type LLMProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]*LLMProviderConfig
}

// NewLLMProviderRegistry creates a registry over its own copy of the map.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves a provider configuration by name.
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// Names returns all registered provider names.
func (r *LLMProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
