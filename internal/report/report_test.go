package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

func init() {
	color.NoColor = true
}

func sampleRows() []model.FeatureRow {
	return []model.FeatureRow{
		{
			NflID: 46097, Position: "CB", DisplayName: "Jane Roe",
			MaxAccel: 1, MaxSpeed: 3.5, TackleEfficiency: 1, BMI: 25.5,
			TackleFactor: 1.25, P75TackleFactor: 1.1, Category: model.CategoryAbove,
		},
		{
			NflID: 52546, Position: "SS", DisplayName: "Doe, John",
			MaxAccel: math.NaN(), MaxSpeed: math.NaN(), TackleEfficiency: math.NaN(), BMI: 30,
			TackleFactor: math.NaN(), P75TackleFactor: math.NaN(), Category: model.CategoryBelow,
		},
	}
}

func TestWriteFeaturesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFeaturesCSV(&buf, sampleRows()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "nflId,position,displayName,max_a,max_s,tackle_efficiency,bmi,tackle_factor,75th_percentile_tackle_factor,75th_percentile_category", lines[0])
	assert.Equal(t, "46097,CB,Jane Roe,1.0,3.5,1.0,25.5,1.25,1.1,Above", lines[1])
	assert.Equal(t, `52546,SS,"Doe, John",,,,30.0,,,Below`, lines[2])
}

func TestWriteFeaturesCSVDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteFeaturesCSV(&a, sampleRows()))
	require.NoError(t, WriteFeaturesCSV(&b, sampleRows()))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteFeaturesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "player_tackles_ML.csv")

	require.NoError(t, WriteFeaturesFile(path, sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "nflId,position"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.0", FormatFloat(1))
	assert.Equal(t, "0.0", FormatFloat(0))
	assert.Equal(t, "3.5", FormatFloat(3.5))
	assert.Equal(t, "-2.0", FormatFloat(-2))
	assert.Equal(t, "", FormatFloat(math.NaN()))
	assert.Equal(t, "0.0001", FormatFloat(0.0001))
	assert.Equal(t, "5e-05", FormatFloat(0.00005))
	assert.Equal(t, "-1.5e-05", FormatFloat(-0.000015))
	assert.Equal(t, "9999999999999998.0", FormatFloat(9999999999999998))
	assert.Equal(t, "1e+16", FormatFloat(1e16))
}

func TestWriteFeaturesCSVWithoutNames(t *testing.T) {
	rows := sampleRows()
	for i := range rows {
		rows[i].DisplayName = ""
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFeaturesCSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "nflId,position,max_a,max_s,tackle_efficiency,bmi,tackle_factor,75th_percentile_tackle_factor,75th_percentile_category", lines[0])
	assert.Equal(t, "46097,CB,1.0,3.5,1.0,25.5,1.25,1.1,Above", lines[1])
}

func TestPrintFeatureTable(t *testing.T) {
	var buf bytes.Buffer
	PrintFeatureTable(&buf, sampleRows(), 46097)

	out := buf.String()
	assert.Contains(t, out, "Jane Roe")
	assert.Contains(t, out, "3.50")
	assert.Contains(t, out, "Above")
	assert.Contains(t, out, "—", "missing values render as a dash")
	assert.Contains(t, out, ">")
}

func TestPrintPositionTable(t *testing.T) {
	var buf bytes.Buffer
	PrintPositionTable(&buf, []model.PositionAggregate{
		{Position: "CB", Players: 4, AvgTackles: 2.5, P75TackleFactor: 1.2, Above: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "CB")
	assert.Contains(t, out, "2.50")
	assert.Contains(t, out, "25%")
}

func TestPrintRunSummaryAndList(t *testing.T) {
	run := model.RunSummary{
		Hash: "0123456789abcdef", DataDir: "data", Weeks: 2, Seasons: "2022",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), FeatureRows: 7,
	}

	var buf bytes.Buffer
	PrintRunSummary(&buf, run)
	assert.Contains(t, buf.String(), "Run: 0123456789ab")

	buf.Reset()
	PrintRunList(&buf, []model.RunSummary{run})
	assert.Contains(t, buf.String(), "2024-01-02 03:04")
}
