package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/internal/log"
	"github.com/ccm-go/ccm/pkg/cache"
	"github.com/ccm-go/ccm/pkg/cfg"
	"github.com/ccm-go/ccm/pkg/complexity"
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics <object-file>",
	Short: "Compute complexity measures for a code object",
	Long: `Decodes a code object, builds its control-flow graph and reports the
full family of cyclomatic-complexity measures. Computed reports are cached by
the digest of the code object when a cache path is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		noCache, _ := cmd.Flags().GetBool("no-cache")

		co, bc, err := decodeFile(conf, args[0])
		if err != nil {
			return err
		}

		var reports *cache.ReportCache
		if conf.CachePath != "" && !noCache {
			reports = cache.New(cache.Options{MaxSize: conf.CacheSize})
			if err := cache.LoadFromFile(reports, conf.CachePath); err != nil {
				log.Default().Warn("ignoring unreadable report cache",
					"path", conf.CachePath, "error", err)
				reports.Clear()
			}
		}

		key := cache.Key(co)
		var report *complexity.Report
		if reports != nil {
			if r, ok := reports.Get(key); ok {
				log.Default().Debug("report cache hit", "key", key[:12])
				report = r
			}
		}

		if report == nil {
			g := cfg.Build(bc)
			report = complexity.NewReport(g)
			if reports != nil {
				reports.Set(key, report)
				if err := cache.PersistToFile(reports, conf.CachePath); err != nil {
					log.Default().Warn("persisting report cache failed",
						"path", conf.CachePath, "error", err)
				}
			}
		}

		if conf.WarnThreshold > 0 && report.McCabeGeneralized > conf.WarnThreshold {
			log.Default().Warn("routine exceeds complexity threshold",
				"name", co.Name,
				"mccabe_generalized", report.McCabeGeneralized,
				"threshold", conf.WarnThreshold)
		}

		if conf.JSONOutput {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printReport(co.Name, report)
		return nil
	},
}

func init() {
	metricsCmd.Flags().Bool("no-cache", false, "Bypass the report cache")
}

func printReport(name string, r *complexity.Report) {
	fmt.Printf("=== Complexity of %s ===\n", name)
	if r.McCabe != nil {
		fmt.Printf("McCabe:                                 %d\n", *r.McCabe)
	} else {
		fmt.Printf("McCabe:                                 n/a (%d components)\n", r.Components)
	}
	fmt.Printf("Generalized McCabe:                     %d\n", r.McCabeGeneralized)
	fmt.Printf("Henderson-Sellers:                      %d\n", r.HendersonSellers)
	fmt.Printf("Henderson-Sellers-Tegarden:             %d\n", r.HendersonSellersTegarden)
	fmt.Printf("Generalized Henderson-Sellers-Tegarden: %d\n", r.HendersonSellersTegardenGeneralized)
	fmt.Printf("Harrison:                               %d\n", r.Harrison)
	fmt.Printf("\nNodes: %d, Edges: %d, Components: %d\n", r.Nodes, r.Edges, r.Components)
	fmt.Printf("Decision points: %d, Exit points: %d\n",
		r.Counts.DecisionPoints, r.Counts.ExitPoints)
}
