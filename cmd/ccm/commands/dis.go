package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/pkg/bytecode"
)

// disCmd represents the dis command
var disCmd = &cobra.Command{
	Use:   "dis <object-file>",
	Short: "Disassemble a code object",
	Long: `Decodes the instruction stream of a serialized code object and prints
a disassembly listing with source lines, offsets, jump-target markers and
resolved operands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		co, bc, err := decodeFile(cfg, args[0])
		if err != nil {
			return err
		}

		showInfo, _ := cmd.Flags().GetBool("info")

		if cfg.JSONOutput {
			out := struct {
				Name         string                 `json:"name"`
				Filename     string                 `json:"filename"`
				FirstLine    int                    `json:"first_line"`
				Instructions []bytecode.Instruction `json:"instructions"`
			}{co.Name, co.Filename, co.FirstLine, bc.Instructions()}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if showInfo {
			fmt.Println(co.Info())
			fmt.Println()
		}
		fmt.Println(bc.Dis())
		return nil
	},
}

func init() {
	disCmd.Flags().Bool("info", false, "Print code object metadata before the listing")
}
