package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/internal/config"
	"github.com/ccm-go/ccm/pkg/bytecode"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ccm configuration interactively",
	Long: `Guides you through setting up ccm configuration step by step.
Creates a config file with the complexity warning threshold, exit-call
patterns and report-cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Scope ===
	var scope string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Config scope").
				Description("Where should the configuration be written?").
				Options(
					huh.NewOption("Project (./.ccm/config.yaml)", "project"),
					huh.NewOption("Global (~/.ccm/config.yaml)", "global"),
				).
				Value(&scope),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Analysis ===
	threshold := strconv.Itoa(cfg.WarnThreshold)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Complexity warning threshold").
				Description("Routines with a generalized McCabe value above this are flagged (0 disables)").
				Placeholder("10").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 {
						return fmt.Errorf("enter a non-negative integer")
					}
					return nil
				}).
				Value(&threshold),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	if threshold != "" {
		cfg.WarnThreshold, _ = strconv.Atoi(threshold)
	}

	extraPatterns := ""
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Extra exit-call patterns (optional, press Enter to skip)").
				Description("Comma-separated module.method calls treated as process exits, e.g. os._exit").
				Placeholder("optional").
				Validate(validateExitPatterns).
				Value(&extraPatterns),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	for _, p := range parseExitPatterns(extraPatterns) {
		cfg.ExitPatterns = append(cfg.ExitPatterns, p)
	}

	// === SECTION 3: Output and cache ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Default to JSON output?").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.JSONOutput),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var useCache bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Persist computed reports between runs?").
				Description("Cached reports are keyed by the code object digest").
				Affirmative("Yes").
				Negative("No").
				Value(&useCache),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	if useCache {
		cachePath := defaultCachePath()
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Report cache path").
					Placeholder(cachePath).
					Value(&cachePath),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		cfg.CachePath = cachePath
	}

	path := ".ccm/config.yaml"
	if scope == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".ccm", "config.yaml")
	}

	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ccm/reports.msgpack"
	}
	return filepath.Join(home, ".ccm", "reports.msgpack")
}

// parseExitPatterns splits a comma-separated list of module.method entries.
func parseExitPatterns(s string) []bytecode.ExitPattern {
	var patterns []bytecode.ExitPattern
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mod, method, ok := strings.Cut(part, ".")
		if !ok {
			continue
		}
		patterns = append(patterns, bytecode.ExitPattern{Module: mod, Method: method})
	}
	return patterns
}

func validateExitPatterns(s string) error {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mod, method, ok := strings.Cut(part, ".")
		if !ok || mod == "" || method == "" {
			return fmt.Errorf("%q is not of the form module.method", part)
		}
	}
	return nil
}
