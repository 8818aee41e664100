package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/config"
	"github.com/pable/nfl-tackle-metrics/internal/report"
)

var (
	exportOut      string
	exportPosition string
)

var exportCmd = &cobra.Command{
	Use:   "export <hash-prefix>",
	Short: "Re-export a stored run's feature table as CSV",
	Long: `Writes the feature rows of a stored run in the same layout 'build' produces,
without re-reading the input tables.

Example:
  tacklemetrics export 3fa4c1 --position CB --out cb_tackles.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output CSV path, '-' for stdout (default <data>/"+config.OutputFile+")")
	exportCmd.Flags().StringVar(&exportPosition, "position", "", "only rows of this position code")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with hash prefix %q", args[0])
	}
	rows, err := db.GetFeatureRows(run.Hash, exportPosition)
	if err != nil {
		return fmt.Errorf("get feature rows: %w", err)
	}

	out := exportPath(exportOut, cfg)
	if out == "-" {
		return report.WriteFeaturesCSV(os.Stdout, rows)
	}
	if err := report.WriteFeaturesFile(out, rows); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d rows of run %s to %s\n", len(rows), run.ShortHash(), out)
	return nil
}

// exportPath falls back to the path build writes to.
func exportPath(out string, c *config.Config) string {
	if out != "" {
		return out
	}
	return c.OutputPath()
}
