package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/report"
	"github.com/pable/nfl-tackle-metrics/internal/storage"
)

var playerCmd = &cobra.Command{
	Use:   "player <nflId> [<nflId>...]",
	Short: "Show a player's feature rows across all stored runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid nflId %q: %w", arg, err)
		}
		if err := showPlayer(os.Stdout, db, id); err != nil {
			return err
		}
	}
	return nil
}

func showPlayer(w io.Writer, db *storage.DB, nflID int64) error {
	history, err := db.GetPlayerHistory(nflID)
	if err != nil {
		return fmt.Errorf("query player history: %w", err)
	}
	if len(history) == 0 {
		fmt.Fprintf(w, "No stored rows for nflId %d.\n", nflID)
		return nil
	}
	h := history[0]
	fmt.Fprintf(w, "\n%s (%d)  |  %s  |  runs: %d\n", h.DisplayName, nflID, h.Position, len(history))
	report.PrintPlayerHistory(w, history)
	return nil
}
