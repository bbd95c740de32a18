// Package commands provides the CLI commands for the ccm tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/internal/config"
	"github.com/ccm-go/ccm/internal/log"
	"github.com/ccm-go/ccm/pkg/bytecode"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ccm",
	Short: "ccm - Cyclomatic complexity measures for compiled code objects",
	Long: `ccm decodes serialized code objects, rebuilds their control-flow
graphs, and reports a family of cyclomatic-complexity measures.

Commands:
  dis         Disassemble a code object
  cfg         Show the control-flow graph of a code object
  metrics     Compute complexity measures for a code object
  lines       Collapse the control-flow graph to source lines
  scan        Analyze every code object under a directory
  doctor      Run health checks on the ccm installation
  init        Initialize ccm configuration interactively

Use "ccm [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (overrides discovery)")
	RootCmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	RootCmd.AddCommand(disCmd)
	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(metricsCmd)
	RootCmd.AddCommand(linesCmd)
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(initCmd)
}

// loadConfig resolves configuration for a command invocation, applying the
// persistent --config, --json and --verbose flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("json") {
		cfg.JSONOutput, _ = cmd.Flags().GetBool("json")
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	}

	logger := log.Default()
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

// decodeFile loads a code object from path and decodes it with the
// configured exit patterns.
func decodeFile(cfg *config.Config, path string) (*bytecode.CodeObject, *bytecode.Bytecode, error) {
	co, err := bytecode.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading code object: %w", err)
	}

	bc, err := bytecode.Decode(co, bytecode.DecodeOptions{ExitPatterns: cfg.ExitPatterns})
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", co.Name, err)
	}

	log.Default().Debug("decoded code object",
		"name", co.Name,
		"instructions", len(bc.Instructions()))
	return co, bc, nil
}
