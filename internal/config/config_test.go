package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ccm-go/ccm/pkg/bytecode"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"WarnThreshold", cfg.WarnThreshold, 10},
		{"JSONOutput", cfg.JSONOutput, false},
		{"CachePath", cfg.CachePath, ""},
		{"CacheSize", cfg.CacheSize, 256},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if len(cfg.ExitPatterns) != 1 || cfg.ExitPatterns[0].Module != "sys" || cfg.ExitPatterns[0].Method != "exit" {
		t.Errorf("ExitPatterns = %v, want sys.exit", cfg.ExitPatterns)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.WarnThreshold = -1 },
			wantErr: true,
		},
		{
			name:    "zero cache size",
			mutate:  func(c *Config) { c.CacheSize = 0 },
			wantErr: true,
		},
		{
			name: "exit pattern without method",
			mutate: func(c *Config) {
				c.ExitPatterns = append(c.ExitPatterns, bytecode.ExitPattern{Module: "os"})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `warn_threshold: 20
json_output: true
cache_size: 64
exit_patterns:
  - module: sys
    method: exit
  - module: os
    method: _exit
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.WarnThreshold != 20 {
		t.Errorf("WarnThreshold = %d, want 20", cfg.WarnThreshold)
	}
	if !cfg.JSONOutput {
		t.Error("JSONOutput = false, want true")
	}
	if cfg.CacheSize != 64 {
		t.Errorf("CacheSize = %d, want 64", cfg.CacheSize)
	}
	if len(cfg.ExitPatterns) != 2 || cfg.ExitPatterns[1].Method != "_exit" {
		t.Errorf("ExitPatterns = %v", cfg.ExitPatterns)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("LoadFromFile() on a missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("warn_threshold: [not an int"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("LoadFromFile() on invalid YAML should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("warn_threshold: 20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CCM_WARN_THRESHOLD", "5")
	t.Setenv("CCM_JSON_OUTPUT", "true")
	t.Setenv("CCM_CACHE_PATH", "/tmp/ccm-reports.msgpack")
	t.Setenv("CCM_CACHE_SIZE", "32")
	t.Setenv("CCM_VERBOSE", "1")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.WarnThreshold != 5 {
		t.Errorf("WarnThreshold = %d, want env override 5", cfg.WarnThreshold)
	}
	if !cfg.JSONOutput {
		t.Error("JSONOutput should be overridden to true")
	}
	if cfg.CachePath != "/tmp/ccm-reports.msgpack" {
		t.Errorf("CachePath = %q", cfg.CachePath)
	}
	if cfg.CacheSize != 32 {
		t.Errorf("CacheSize = %d, want 32", cfg.CacheSize)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be overridden to true")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.WarnThreshold = 15
	cfg.CachePath = "reports.msgpack"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.WarnThreshold != 15 || loaded.CachePath != "reports.msgpack" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
