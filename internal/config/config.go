// Package config loads and validates ccm configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ccm-go/ccm/pkg/bytecode"
)

// Config holds all configuration for ccm.
type Config struct {
	// ExitPatterns are the module.method call patterns treated as forced
	// process termination during decoding, in addition to return/raise.
	ExitPatterns []bytecode.ExitPattern `yaml:"exit_patterns"`

	// WarnThreshold is the generalized McCabe value above which the CLI
	// flags a routine. 0 disables the warning.
	WarnThreshold int `yaml:"warn_threshold" env:"CCM_WARN_THRESHOLD"`

	// JSONOutput selects JSON instead of human-readable CLI output.
	JSONOutput bool `yaml:"json_output" env:"CCM_JSON_OUTPUT"`

	// CachePath is where the report cache is persisted. Empty disables
	// persistence.
	CachePath string `yaml:"cache_path" env:"CCM_CACHE_PATH"`

	// CacheSize is the maximum number of cached reports.
	CacheSize int `yaml:"cache_size" env:"CCM_CACHE_SIZE"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"CCM_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ExitPatterns:  append([]bytecode.ExitPattern(nil), bytecode.DefaultExitPatterns...),
		WarnThreshold: 10,
		JSONOutput:    false,
		CachePath:     "",
		CacheSize:     256,
		Verbose:       false,
	}
}

// globalConfigFilePath returns the global config file path (~/.ccm/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ccm/config.yaml"
	}
	return filepath.Join(home, ".ccm", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.ccm/config.yaml)
func projectConfigFilePath() string {
	return ".ccm/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.ccm/config.yaml)
// 3. Global config (~/.ccm/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalPath, err)
		}
	}

	projectPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path, creating
// parent directories if needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies CCM_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CCM_WARN_THRESHOLD"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			cfg.WarnThreshold = i
		}
	}
	if v := os.Getenv("CCM_JSON_OUTPUT"); v != "" {
		cfg.JSONOutput = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("CCM_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("CCM_CACHE_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("CCM_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields.
func (c *Config) Validate() error {
	if c.WarnThreshold < 0 {
		return fmt.Errorf("warn_threshold must be non-negative")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	for _, p := range c.ExitPatterns {
		if p.Module == "" || p.Method == "" {
			return fmt.Errorf("exit pattern must have both module and method (got %q.%q)", p.Module, p.Method)
		}
	}
	return nil
}
