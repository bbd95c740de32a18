package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/pkg/cfg"
)

// linesCmd represents the lines command
var linesCmd = &cobra.Command{
	Use:   "lines <object-file>",
	Short: "Collapse the control-flow graph to source lines",
	Long: `Folds the offset-level control-flow graph into one block per source
line. With --source, each block is annotated with the literal line text from
the given source file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		co, bc, err := decodeFile(conf, args[0])
		if err != nil {
			return err
		}

		source := ""
		if srcPath, _ := cmd.Flags().GetString("source"); srcPath != "" {
			data, err := os.ReadFile(srcPath)
			if err != nil {
				return fmt.Errorf("reading source file: %w", err)
			}
			source = string(data)
		}

		lg := cfg.CollapseLines(cfg.Build(bc), source)

		if conf.JSONOutput {
			data, err := json.MarshalIndent(lg, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printLineGraph(co.Name, lg)
		return nil
	},
}

func init() {
	linesCmd.Flags().String("source", "", "Source file providing line text")
}

func printLineGraph(name string, lg *cfg.LineGraph) {
	fmt.Printf("=== Line graph for %s ===\n", name)
	for _, line := range lg.Lines() {
		block := lg.Blocks[line]
		var flags []string
		if block.IsEntryPoint {
			flags = append(flags, "entry")
		}
		if block.IsJumpTarget {
			flags = append(flags, "target")
		}
		if block.IsDecisionPoint {
			flags = append(flags, "decision")
		}
		if block.IsBranchPoint {
			flags = append(flags, "branch")
		}
		if block.IsExitPoint {
			flags = append(flags, "exit")
		}
		marker := ""
		if len(flags) > 0 {
			marker = " [" + strings.Join(flags, ",") + "]"
		}
		if block.Text != "" {
			fmt.Printf("%4d%s  %s\n", line, marker, block.Text)
		} else {
			fmt.Printf("%4d%s\n", line, marker)
		}
	}

	fmt.Println("\nEdges:")
	for _, e := range lg.Edges {
		fmt.Printf("  %d -> %d\n", e[0], e[1])
	}
}
