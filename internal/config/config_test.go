package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/nfl-tackle-metrics/internal/config"
	"github.com/pable/nfl-tackle-metrics/internal/model"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tacklemetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 9, cfg.Weeks)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, model.DefensivePositions, cfg.Positions)
	assert.Equal(t, filepath.Join("data", "player_tackles_ML.csv"), cfg.OutputPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaultsOnly(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Weeks)
	assert.Equal(t, model.DefensivePositions, cfg.Positions)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
data_dir: /srv/bdb
weeks: 4
log_level: debug
positions: [CB, SS]
`)
	t.Setenv(config.EnvConfigFile, path)
	t.Setenv("TACKLEMETRICS_WEEKS", "2")
	t.Setenv("TACKLEMETRICS_OUTPUT", "/tmp/out.csv")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/bdb", cfg.DataDir, "from file")
	assert.Equal(t, 2, cfg.Weeks, "env overrides file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"CB", "SS"}, cfg.Positions)
	assert.Equal(t, "/tmp/out.csv", cfg.OutputPath())
}

func TestLoadExplicitPathWins(t *testing.T) {
	other := writeConfigFile(t, "weeks: 7\n")
	explicit := writeConfigFile(t, "weeks: 3\n")
	t.Setenv(config.EnvConfigFile, other)

	cfg, err := config.Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Weeks)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrLoadConfig))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"weeks zero":     func(c *config.Config) { c.Weeks = 0 },
		"weeks ten":      func(c *config.Config) { c.Weeks = 10 },
		"no data dir":    func(c *config.Config) { c.DataDir = "" },
		"no positions":   func(c *config.Config) { c.Positions = nil },
		"blank position": func(c *config.Config) { c.Positions = []string{"CB", " "} },
		"bad log level":  func(c *config.Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrInvalidConfig))
		})
	}
}

func TestLoadPositionsFromEnv(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv("TACKLEMETRICS_POSITIONS", "cb, SS ,olb")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"CB", "SS", "OLB"}, cfg.Positions)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPositionsFromFileAreNormalized(t *testing.T) {
	path := writeConfigFile(t, "positions: [cb, ' ss ']\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"CB", "SS"}, cfg.Positions)
}

func TestLoadPositionsFromEnvBlankEntryRejected(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv("TACKLEMETRICS_POSITIONS", "CB,,SS")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, errors.Is(cfg.Validate(), config.ErrInvalidConfig))
}
