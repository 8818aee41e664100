package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/config"
	"github.com/pable/nfl-tackle-metrics/internal/logging"
	"github.com/pable/nfl-tackle-metrics/internal/storage"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logrus.Logger

	flagDB        string
	flagDataDir   string
	flagWeeks     int
	flagLogLevel  string
	flagPositions []string
)

var rootCmd = &cobra.Command{
	Use:   "tacklemetrics",
	Short: "NFL defensive tackle metrics tool",
	Long: "Aggregate Big Data Bowl tracking, play, tackle and player tables into a per-player\n" +
		"feature table of peak motion, tackle efficiency, BMI and position-relative tackle factor.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file (falls back to $"+config.EnvConfigFile+")")
	pf.StringVar(&flagDB, "db", "", "path to SQLite database (default ~/.tacklemetrics/metrics.db)")
	pf.StringVar(&flagDataDir, "data", "", "directory holding the input CSV tables (default data)")
	pf.IntVar(&flagWeeks, "weeks", 0, "number of tracking weeks to load, 1..9 (default 9)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	pf.StringSliceVar(&flagPositions, "positions", nil, "defensive position codes to keep (comma separated)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig layers the config file and environment, then applies any flag
// the user set explicitly.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DB = flagDB
	}
	if flags.Changed("data") {
		c.DataDir = flagDataDir
	}
	if flags.Changed("weeks") {
		c.Weeks = flagWeeks
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if flags.Changed("positions") {
		c.Positions = config.NormalizePositions(flagPositions)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(os.Stderr, c.LogLevel)
	if err != nil {
		return err
	}
	cfg, log = c, l
	return nil
}

// openStore opens the configured database, creating its directory first.
func openStore() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
