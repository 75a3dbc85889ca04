package config

import "errors"

// Sentinel errors for configuration lookups and validation.
var (
	ErrLLMProviderNotFound = errors.New("LLM provider not found")
	ErrNoLLMProviders      = errors.New("no LLM providers configured")
	ErrInvalidProvider     = errors.New("invalid LLM provider configuration")
)
