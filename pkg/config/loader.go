package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// configFileName is the single YAML file read from the config directory.
const configFileName = "marketmind.yaml"

// load reads the YAML file, expands environment variables, and merges
// built-in defaults under whatever the user specified.
func load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	expanded := ExpandEnv(data)

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// User values win; built-ins fill the gaps.
	if err := mergo.Merge(&cfg.Defaults, builtinDefaults); err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}

	return &cfg, nil
}
