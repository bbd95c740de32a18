// Package doctor verifies that a ccm installation is usable: configuration
// files, the report cache, and the analysis pipeline itself.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccm-go/ccm/internal/config"
	"github.com/ccm-go/ccm/pkg/bytecode"
	"github.com/ccm-go/ccm/pkg/cache"
	"github.com/ccm-go/ccm/pkg/cfg"
	"github.com/ccm-go/ccm/pkg/complexity"
)

// Status of one check.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// CheckStatus is the outcome of a single diagnostic.
type CheckStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result contains the full diagnostic output for display.
type Result struct {
	ConfigPath  string        `json:"config_path,omitempty"`
	ConfigScope string        `json:"config_scope,omitempty"` // "global" or "project"
	Checks      []CheckStatus `json:"checks"`
}

// HasError reports whether any check failed outright.
func (r *Result) HasError() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return true
		}
	}
	return false
}

// Check runs every diagnostic against the given configuration.
func Check(conf *config.Config) (*Result, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &Result{}
	result.ConfigPath, result.ConfigScope = effectiveConfigFile()

	result.Checks = append(result.Checks, checkConfig(conf))
	result.Checks = append(result.Checks, checkExitPatterns(conf))
	result.Checks = append(result.Checks, checkCache(conf))
	result.Checks = append(result.Checks, checkPipeline(conf))
	return result, nil
}

// effectiveConfigFile locates the config file in use, project before global.
func effectiveConfigFile() (string, string) {
	project := filepath.Join(".ccm", "config.yaml")
	if fileExists(project) {
		return project, "project"
	}
	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, ".ccm", "config.yaml")
		if fileExists(global) {
			return global, "global"
		}
	}
	return "", ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func checkConfig(conf *config.Config) CheckStatus {
	c := CheckStatus{Name: "configuration"}
	if err := conf.Validate(); err != nil {
		c.Status = StatusError
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("warn threshold %d, cache size %d", conf.WarnThreshold, conf.CacheSize)
	return c
}

func checkExitPatterns(conf *config.Config) CheckStatus {
	c := CheckStatus{Name: "exit patterns"}
	if len(conf.ExitPatterns) == 0 {
		c.Status = StatusWarning
		c.Detail = "no exit-call patterns configured; only return/raise mark exits"
		return c
	}
	names := make([]string, len(conf.ExitPatterns))
	for i, p := range conf.ExitPatterns {
		names[i] = p.Module + "." + p.Method
	}
	c.Status = StatusOK
	c.Detail = strings.Join(names, ", ")
	return c
}

func checkCache(conf *config.Config) CheckStatus {
	c := CheckStatus{Name: "report cache"}
	if conf.CachePath == "" {
		c.Status = StatusOK
		c.Detail = "persistence disabled"
		return c
	}
	if !fileExists(conf.CachePath) {
		c.Status = StatusOK
		c.Detail = fmt.Sprintf("%s not created yet", conf.CachePath)
		return c
	}

	reports := cache.New(cache.Options{MaxSize: conf.CacheSize})
	if err := cache.LoadFromFile(reports, conf.CachePath); err != nil {
		c.Status = StatusWarning
		c.Detail = fmt.Sprintf("%s is unreadable and will be rebuilt: %v", conf.CachePath, err)
		return c
	}
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("%d cached reports in %s", reports.Len(), conf.CachePath)
	return c
}

// checkPipeline decodes a known two-instruction routine and verifies the
// complexity baseline end to end.
func checkPipeline(conf *config.Config) CheckStatus {
	c := CheckStatus{Name: "analysis pipeline"}

	co := &bytecode.CodeObject{
		Name:      "selftest",
		Code:      []byte{byte(bytecode.LoadConst), 0, byte(bytecode.ReturnValue), 0},
		Consts:    []any{nil},
		FirstLine: 1,
	}
	bc, err := bytecode.Decode(co, bytecode.DecodeOptions{ExitPatterns: conf.ExitPatterns})
	if err != nil {
		c.Status = StatusError
		c.Detail = fmt.Sprintf("decoding failed: %v", err)
		return c
	}

	mc, err := complexity.McCabe(cfg.Build(bc))
	if err != nil || mc != 1 {
		c.Status = StatusError
		c.Detail = fmt.Sprintf("straight-line complexity = %d, %v; want 1", mc, err)
		return c
	}
	c.Status = StatusOK
	c.Detail = "decode, graph and metrics agree on the baseline"
	return c
}
