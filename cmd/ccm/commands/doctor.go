package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/internal/doctor"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the ccm installation",
	Long: `Checks the effective configuration, the report cache and the
analysis pipeline, and reports anything that would make ccm misbehave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		result, err := doctor.Check(conf)
		if err != nil {
			return fmt.Errorf("running diagnostics: %w", err)
		}

		if conf.JSONOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			printDoctorResult(result)
		}

		if result.HasError() {
			return fmt.Errorf("diagnostics failed")
		}
		return nil
	},
}

func printDoctorResult(result *doctor.Result) {
	if result.ConfigPath != "" {
		fmt.Printf("Config: %s (%s)\n\n", result.ConfigPath, result.ConfigScope)
	} else {
		fmt.Printf("Config: defaults (no config file; run 'ccm init')\n\n")
	}

	for _, c := range result.Checks {
		symbol := "✓"
		switch c.Status {
		case doctor.StatusWarning:
			symbol = "!"
		case doctor.StatusError:
			symbol = "✗"
		}
		fmt.Printf("  %s %-18s %s\n", symbol, c.Name, c.Detail)
	}
}
