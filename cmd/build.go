package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/pipeline"
	"github.com/pable/nfl-tackle-metrics/internal/report"
)

var (
	buildOutput   string
	buildPrint    bool
	buildNoStore  bool
	buildPlayerID int64
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the player tackle feature table from the input CSVs",
	Long: `Load tracking weeks 1..N with the plays, tackles, games and players tables, compute
per-player peak motion, tackle aggregates, BMI and position-relative tackle factor,
write player_tackles_ML.csv and store the run in the metrics database.

A run is identified by the sha256 of its input bytes; rebuilding identical inputs
replaces the stored rows of that run.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "out", "o", "", "output CSV path (default <data>/player_tackles_ML.csv)")
	buildCmd.Flags().BoolVar(&buildPrint, "print", false, "print the feature table")
	buildCmd.Flags().BoolVar(&buildNoStore, "no-store", false, "do not persist the run to the database")
	buildCmd.Flags().Int64Var(&buildPlayerID, "player", 0, "highlight a player nflId in the printed table")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildOutput != "" {
		cfg.Output = buildOutput
	}

	log.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"weeks":    cfg.Weeks,
	}).Info("building feature table")

	res, err := pipeline.Run(pipeline.Options{
		DataDir:   cfg.DataDir,
		Weeks:     cfg.Weeks,
		Positions: cfg.Positions,
	}, log)
	if err != nil {
		return err
	}

	out := cfg.OutputPath()
	if err := report.WriteFeaturesFile(out, res.Features); err != nil {
		return fmt.Errorf("write features: %w", err)
	}
	log.WithFields(logrus.Fields{"path": out, "rows": len(res.Features)}).Info("wrote feature table")

	if !buildNoStore {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		exists, err := db.RunExists(res.Summary.Hash)
		if err != nil {
			return fmt.Errorf("check run: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "Run %s already stored; replacing its rows.\n", res.Summary.ShortHash())
		}
		if err := db.SaveRun(res.Summary, res.Enriched, res.Positions); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	report.PrintRunSummary(os.Stdout, res.Summary)
	report.PrintPositionTable(os.Stdout, res.Positions)
	if buildPrint {
		fmt.Fprintln(os.Stdout)
		report.PrintFeatureTable(os.Stdout, res.Features, buildPlayerID)
	}
	fmt.Fprintf(os.Stdout, "\nWrote %d rows to %s\n", len(res.Features), out)
	return nil
}
