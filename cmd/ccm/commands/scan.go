package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/internal/log"
	"github.com/ccm-go/ccm/internal/scanner"
	"github.com/ccm-go/ccm/pkg/bytecode"
	"github.com/ccm-go/ccm/pkg/cache"
	"github.com/ccm-go/ccm/pkg/cfg"
	"github.com/ccm-go/ccm/pkg/complexity"
)

// scanResult is one analyzed routine in a batch run.
type scanResult struct {
	Path    string             `json:"path"`
	Name    string             `json:"name"`
	Report  *complexity.Report `json:"report,omitempty"`
	Error   string             `json:"error,omitempty"`
	Flagged bool               `json:"flagged"`
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Analyze every code object under a directory",
	Long: `Walks a directory tree, decodes every code-object file it finds and
reports the complexity measures per routine. Routines whose generalized McCabe
value exceeds the configured threshold are flagged; the command exits non-zero
when any routine is flagged or fails to decode. Honors .ccmignore files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		files, err := scanner.Scan(args[0])
		if err != nil {
			return fmt.Errorf("scanning %s: %w", args[0], err)
		}
		if len(files) == 0 {
			log.Default().Warn("no code-object files found", "dir", args[0])
			return nil
		}

		var reports *cache.ReportCache
		if conf.CachePath != "" {
			reports = cache.New(cache.Options{MaxSize: conf.CacheSize})
			if err := cache.LoadFromFile(reports, conf.CachePath); err != nil {
				log.Default().Warn("ignoring unreadable report cache",
					"path", conf.CachePath, "error", err)
				reports.Clear()
			}
		}

		results := make([]scanResult, 0, len(files))
		flagged, failed := 0, 0
		for _, f := range files {
			res := analyzeFile(conf.ExitPatterns, reports, f)
			res.Flagged = conf.WarnThreshold > 0 && res.Report != nil &&
				res.Report.McCabeGeneralized > conf.WarnThreshold
			if res.Flagged {
				flagged++
				log.Default().Warn("routine exceeds complexity threshold",
					"path", res.Path,
					"name", res.Name,
					"mccabe_generalized", res.Report.McCabeGeneralized,
					"threshold", conf.WarnThreshold)
			}
			if res.Error != "" {
				failed++
			}
			results = append(results, res)
		}

		if reports != nil {
			if err := cache.PersistToFile(reports, conf.CachePath); err != nil {
				log.Default().Warn("persisting report cache failed",
					"path", conf.CachePath, "error", err)
			}
		}

		if conf.JSONOutput {
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			printScanResults(results)
		}

		if flagged > 0 || failed > 0 {
			return fmt.Errorf("%d routine(s) flagged, %d file(s) failed", flagged, failed)
		}
		return nil
	},
}

// analyzeFile runs the pipeline for one discovered file, consulting the
// report cache when available.
func analyzeFile(patterns []bytecode.ExitPattern, reports *cache.ReportCache, f scanner.FileInfo) scanResult {
	res := scanResult{Path: f.Path}

	co, err := bytecode.LoadFile(f.FullPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Name = co.Name

	key := cache.Key(co)
	if reports != nil {
		if r, ok := reports.Get(key); ok {
			res.Report = r
			return res
		}
	}

	bc, err := bytecode.Decode(co, bytecode.DecodeOptions{ExitPatterns: patterns})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Report = complexity.NewReport(cfg.Build(bc))
	if reports != nil {
		reports.Set(key, res.Report)
	}
	return res
}

func printScanResults(results []scanResult) {
	for _, res := range results {
		switch {
		case res.Error != "":
			fmt.Printf("FAIL  %-40s %s\n", res.Path, res.Error)
		case res.Report.McCabe != nil:
			marker := "  "
			if res.Flagged {
				marker = "!!"
			}
			fmt.Printf("%s    %-40s %-20s v(G)=%d\n", marker, res.Path, res.Name, *res.Report.McCabe)
		default:
			marker := "  "
			if res.Flagged {
				marker = "!!"
			}
			fmt.Printf("%s    %-40s %-20s v(G)*=%d (%d components)\n",
				marker, res.Path, res.Name, res.Report.McCabeGeneralized, res.Report.Components)
		}
	}
}
