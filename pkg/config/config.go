// Package config provides configuration management for crucible.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/crucible/config.toml)
//  3. Project config (.crucible/config.toml or crucible.toml)
//  4. Environment variables (CRUCIBLE_*)
//  5. CLI flags (highest priority)
package config

import (
	"fmt"

	"github.com/crucible-build/crucible/pkg/util"
)

// Config is the main configuration struct for crucible.
type Config struct {
	// Store configures the fingerprint store.
	Store StoreConfig `toml:"store"`

	// Fingerprint configures how file targets are fingerprinted.
	Fingerprint FingerprintConfig `toml:"fingerprint"`

	// Vars is the variable mapping substituted into `{name}` placeholders
	// during target resolution. Values must be constant scalars.
	Vars map[string]any `toml:"vars"`
}

// StoreConfig holds fingerprint store settings.
type StoreConfig struct {
	// Path is the location of the store database, relative to the
	// project root unless absolute.
	Path string `toml:"path"`
}

// FingerprintConfig holds fingerprinting settings.
type FingerprintConfig struct {
	// Strategy is "stat" (metadata only, fast) or "stat+content"
	// (metadata plus full content digest, catches everything).
	Strategy string `toml:"strategy"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: ".crucible/fingerprints.db",
		},
		Fingerprint: FingerprintConfig{
			Strategy: "stat+content",
		},
		Vars: map[string]any{},
	}
}

// Merge applies non-zero fields of other on top of c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Fingerprint.Strategy != "" {
		c.Fingerprint.Strategy = other.Fingerprint.Strategy
	}
	for name, value := range other.Vars {
		if c.Vars == nil {
			c.Vars = map[string]any{}
		}
		c.Vars[name] = value
	}
}

// Validate checks that the configuration is usable: a known fingerprint
// strategy and scalar-only vars.
func (c *Config) Validate() error {
	switch c.Fingerprint.Strategy {
	case "stat", "stat+content":
	default:
		return fmt.Errorf("invalid fingerprint strategy %q (want \"stat\" or \"stat+content\")",
			c.Fingerprint.Strategy)
	}
	// Sorted so the first reported offender is deterministic.
	for _, name := range util.SortedKeys(c.Vars) {
		switch c.Vars[name].(type) {
		case string, bool, int, int64, float64:
		default:
			return fmt.Errorf("var %q must be a constant scalar, got %T", name, c.Vars[name])
		}
	}
	return nil
}
