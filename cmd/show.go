package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/report"
	"github.com/pable/nfl-tackle-metrics/internal/storage"
)

var (
	showPosition string
	showPlayerID int64
)

var showCmd = &cobra.Command{
	Use:   "show <hash-prefix>",
	Short: "Show a stored run's feature table by hash prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPosition, "position", "", "only rows of this position code (e.g. CB)")
	showCmd.Flags().Int64Var(&showPlayerID, "player", 0, "highlight player nflId")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return showRun(os.Stdout, db, args[0], showPosition, showPlayerID)
}

// showRun prints the summary and feature rows of the run matching prefix.
func showRun(w io.Writer, db *storage.DB, prefix, position string, playerID int64) error {
	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with hash prefix %q", prefix)
	}

	rows, err := db.GetFeatureRows(run.Hash, position)
	if err != nil {
		return fmt.Errorf("get feature rows: %w", err)
	}

	report.PrintRunSummary(w, *run)
	if len(rows) == 0 {
		if position == "" {
			fmt.Fprintln(w, "Run has no feature rows.")
		} else {
			fmt.Fprintf(w, "No feature rows for position %q.\n", position)
		}
		return nil
	}
	report.PrintFeatureTable(w, rows, playerID)
	return nil
}
