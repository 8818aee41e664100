// Package config defines the tool configuration and its loading layers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"github.com/pable/nfl-tackle-metrics/internal/loader"
	"github.com/pable/nfl-tackle-metrics/internal/model"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TACKLEMETRICS_WEEKS.
	EnvPrefix = "TACKLEMETRICS_"
	// EnvConfigFile names a YAML config file when --config is not given.
	EnvConfigFile = EnvPrefix + "CONFIG"
	// OutputFile is the feature table file name inside the data directory.
	OutputFile = "player_tackles_ML.csv"
)

// Config contains process configuration.
type Config struct {
	// DataDir holds the tracking_week_N, plays, tackles, games and players tables.
	DataDir string `koanf:"data_dir"`

	// Weeks is the number of tracking weeks to load, 1..9.
	Weeks int `koanf:"weeks"`

	// Output is the feature CSV path; empty means DataDir/player_tackles_ML.csv.
	Output string `koanf:"output"`

	// DB is the SQLite store path.
	DB string `koanf:"db"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Positions is the defensive position allow-list.
	Positions []string `koanf:"positions"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DataDir:   "data",
		Weeks:     loader.MaxWeeks,
		DB:        filepath.Join(userHome(), ".tacklemetrics", "metrics.db"),
		LogLevel:  "info",
		Positions: append([]string(nil), model.DefensivePositions...),
	}
}

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) at path, or at $TACKLEMETRICS_CONFIG when path is empty
//  3. env (prefix TACKLEMETRICS_)
//
// Command-line flags are applied on top by the caller.
func Load(path string) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// TACKLEMETRICS_DATA_DIR -> data_dir. Underscores are kept to match the
	// flat koanf tags. TACKLEMETRICS_POSITIONS is a comma separated list.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "positions" {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	cfg.Positions = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if len(cfg.Positions) == 0 {
		cfg.Positions = base.Positions
	}
	cfg.Positions = NormalizePositions(cfg.Positions)
	return &cfg, nil
}

// NormalizePositions trims and upper-cases position codes. Blank entries are
// kept so Validate can reject them.
func NormalizePositions(positions []string) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return out
}

// OutputPath resolves where the feature table is written.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(c.DataDir, OutputFile)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.Weeks < 1 || c.Weeks > loader.MaxWeeks {
		return fmt.Errorf("%w: weeks must be in 1..%d, got %d", ErrInvalidConfig, loader.MaxWeeks, c.Weeks)
	}
	if len(c.Positions) == 0 {
		return fmt.Errorf("%w: positions must not be empty", ErrInvalidConfig)
	}
	for _, p := range c.Positions {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty position code", ErrInvalidConfig)
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
