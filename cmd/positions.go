package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/report"
	"github.com/pable/nfl-tackle-metrics/internal/storage"
)

var positionsCmd = &cobra.Command{
	Use:   "positions <hash-prefix>",
	Short: "Show per-position tackle averages and 75th-percentile thresholds of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runPositions,
}

func runPositions(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return showPositions(os.Stdout, db, args[0])
}

func showPositions(w io.Writer, db *storage.DB, prefix string) error {
	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with hash prefix %q", prefix)
	}
	positions, err := db.GetPositionStats(run.Hash)
	if err != nil {
		return fmt.Errorf("get position stats: %w", err)
	}
	report.PrintRunSummary(w, *run)
	report.PrintPositionTable(w, positions)
	return nil
}
