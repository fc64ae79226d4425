package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "crucible.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".crucible"

// GlobalConfigDir is the name of the global config directory inside the
// user's config directory.
const GlobalConfigDir = "crucible"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/crucible/config.toml)
//  3. Project config (.crucible/config.toml or crucible.toml)
//  4. Environment variables (CRUCIBLE_*)
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting the project search from dir.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}
	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}
	applyEnvironmentVariables(cfg)

	return cfg
}

// ProjectRoot finds the project root by walking up from dir to the first
// directory holding a config file or workspace marker. Falls back to dir.
func ProjectRoot(dir string) string {
	current := dir
	for {
		if hasConfigFile(current) || isWorkspaceRoot(current) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

func loadGlobalConfig() *Config {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return loadConfigFile(filepath.Join(configDir, GlobalConfigDir, "config.toml"))
}

// loadProjectConfigFrom looks for project configuration starting from the
// given directory, walking up to the workspace root.
func loadProjectConfigFrom(dir string) *Config {
	current := dir
	for {
		if cfg := loadConfigFile(filepath.Join(current, ConfigDirName, "config.toml")); cfg != nil {
			return cfg
		}
		if cfg := loadConfigFile(filepath.Join(current, ConfigFileName)); cfg != nil {
			return cfg
		}

		if isWorkspaceRoot(current) {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return nil
}

func hasConfigFile(dir string) bool {
	for _, p := range []string{filepath.Join(dir, ConfigDirName, "config.toml"), filepath.Join(dir, ConfigFileName)} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// isWorkspaceRoot checks if the directory is a workspace root.
func isWorkspaceRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// loadConfigFile loads a configuration from a TOML file.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil
	}
	return &cfg
}

// applyEnvironmentVariables applies CRUCIBLE_* environment variables.
func applyEnvironmentVariables(cfg *Config) {
	if path := os.Getenv("CRUCIBLE_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if strategy := os.Getenv("CRUCIBLE_FINGERPRINT_STRATEGY"); strategy != "" {
		cfg.Fingerprint.Strategy = strategy
	}
}
