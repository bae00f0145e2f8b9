// Package config loads the tool configuration: an optional YAML file layered
// over built-in defaults. Command line flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for a developer machine. The authority outlives leaves so rotation
// is driven by leaves expiring, not the root.
const (
	DefaultAuthorityName         = "localca development CA"
	DefaultAuthorityValidityDays = 3650
	DefaultValidityDays          = 825
	DefaultMinRunDays            = 7
)

// Config holds the tool settings.
type Config struct {
	// Dir is the certificate directory.
	Dir string `yaml:"dir"`

	// AuthorityName is the common name of the root certificate.
	AuthorityName string `yaml:"authority_name"`

	// AuthorityValidityDays is how long a freshly generated root is valid.
	AuthorityValidityDays int `yaml:"authority_validity_days"`

	// ValidityDays is how long issued leaf certificates are valid.
	ValidityDays int `yaml:"validity_days"`

	// MinRunDays is the minimum remaining validity required to reuse cached
	// material.
	MinRunDays int `yaml:"min_run_days"`
}

// Default returns the built-in configuration.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	return Config{
		Dir:                   filepath.Join(home, ".localca", "certs"),
		AuthorityName:         DefaultAuthorityName,
		AuthorityValidityDays: DefaultAuthorityValidityDays,
		ValidityDays:          DefaultValidityDays,
		MinRunDays:            DefaultMinRunDays,
	}, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "localca", "config.yaml"), nil
}

// Load reads the config file at path, layered over defaults. An empty path
// uses the default location; a missing file is not an error and yields the
// defaults.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	explicit := path != ""
	if !explicit {
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
