package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the ErrorCode checker configuration
type Config struct {
	ExcludePaths      []string `yaml:"exclude_paths"`
	ForbiddenPatterns []string `yaml:"forbidden_patterns"`
	SharedPrefixes    []string `yaml:"shared_prefixes"` // code prefixes any package may declare
	CheckForbidden    bool     `yaml:"check_forbidden"`
	CheckPrefixes     bool     `yaml:"check_prefixes"`
	ExitOnUnused      bool     `yaml:"exit_on_unused"`
	ExitOnDuplicate   bool     `yaml:"exit_on_duplicate"`
	ExitOnPrefix      bool     `yaml:"exit_on_prefix"`
	ExitOnForbidden   bool     `yaml:"exit_on_forbidden"`
	Verbose           bool     `yaml:"verbose"`
}

// loadConfig loads configuration from file or uses defaults
func loadConfig(configPath string) (*Config, error) {
	config := &Config{
		ExcludePaths:      []string{"_examples/", "testdata/", "scripts/", "vendor/", ".git/", "data/"},
		ForbiddenPatterns: []string{`fmt\.Errorf`, `errors\.New\("`},
		SharedPrefixes:    []string{"common"},
		CheckForbidden:    true,
		CheckPrefixes:     true,
		ExitOnUnused:      true,
		ExitOnDuplicate:   true,
		ExitOnPrefix:      false,
		ExitOnForbidden:   false,
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}
