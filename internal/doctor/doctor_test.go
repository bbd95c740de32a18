package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ccm-go/ccm/internal/config"
	"github.com/ccm-go/ccm/pkg/bytecode"
)

func statusOf(t *testing.T, result *Result, name string) CheckStatus {
	t.Helper()
	for _, c := range result.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %v", name, result.Checks)
	return CheckStatus{}
}

func TestCheckHealthyDefaults(t *testing.T) {
	result, err := Check(config.DefaultConfig())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if result.HasError() {
		t.Errorf("default config should be healthy: %+v", result.Checks)
	}
	for _, name := range []string{"configuration", "exit patterns", "report cache", "analysis pipeline"} {
		if got := statusOf(t, result, name); got.Status != StatusOK {
			t.Errorf("%s = %s (%s), want ok", name, got.Status, got.Detail)
		}
	}
}

func TestCheckNilConfig(t *testing.T) {
	if _, err := Check(nil); err == nil {
		t.Error("Check(nil) should fail")
	}
}

func TestCheckInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WarnThreshold = -1

	result, err := Check(cfg)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got := statusOf(t, result, "configuration"); got.Status != StatusError {
		t.Errorf("configuration = %s, want error", got.Status)
	}
	if !result.HasError() {
		t.Error("HasError() = false, want true")
	}
}

func TestCheckNoExitPatterns(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExitPatterns = nil

	result, err := Check(cfg)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got := statusOf(t, result, "exit patterns"); got.Status != StatusWarning {
		t.Errorf("exit patterns = %s, want warning", got.Status)
	}
	if result.HasError() {
		t.Error("a warning alone should not count as an error")
	}
}

func TestCheckCacheStates(t *testing.T) {
	dir := t.TempDir()

	t.Run("absent cache file is fine", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.CachePath = filepath.Join(dir, "absent.msgpack")
		result, err := Check(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := statusOf(t, result, "report cache"); got.Status != StatusOK {
			t.Errorf("report cache = %s (%s), want ok", got.Status, got.Detail)
		}
	})

	t.Run("corrupt cache file warns", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.msgpack")
		if err := os.WriteFile(path, []byte("not msgpack"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.CachePath = path
		result, err := Check(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := statusOf(t, result, "report cache"); got.Status != StatusWarning {
			t.Errorf("report cache = %s (%s), want warning", got.Status, got.Detail)
		}
	})
}

func TestCheckPipelineUsesConfiguredPatterns(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExitPatterns = []bytecode.ExitPattern{{Module: "os", Method: "_exit"}}

	result, err := Check(cfg)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got := statusOf(t, result, "analysis pipeline"); got.Status != StatusOK {
		t.Errorf("analysis pipeline = %s (%s), want ok", got.Status, got.Detail)
	}
}
