package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// FeatureColumns is the header of the ML feature table.
var FeatureColumns = []string{
	"nflId",
	"position",
	"displayName",
	"max_a",
	"max_s",
	"tackle_efficiency",
	"bmi",
	"tackle_factor",
	"75th_percentile_tackle_factor",
	"75th_percentile_category",
}

// WriteFeaturesCSV writes the feature table with a header row. NaN values are
// written as empty fields. The displayName column is omitted when no row
// carries a name, as happens when players.csv has no displayName column.
func WriteFeaturesCSV(w io.Writer, rows []model.FeatureRow) error {
	withName := hasDisplayName(rows)
	header := FeatureColumns
	if !withName {
		header = make([]string, 0, len(FeatureColumns)-1)
		for _, c := range FeatureColumns {
			if c != "displayName" {
				header = append(header, c)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, 0, len(FeatureColumns))
	for _, r := range rows {
		rec = append(rec[:0], strconv.FormatInt(r.NflID, 10), r.Position)
		if withName {
			rec = append(rec, r.DisplayName)
		}
		rec = append(rec,
			FormatFloat(r.MaxAccel),
			FormatFloat(r.MaxSpeed),
			FormatFloat(r.TackleEfficiency),
			FormatFloat(r.BMI),
			FormatFloat(r.TackleFactor),
			FormatFloat(r.P75TackleFactor),
			r.Category,
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFeaturesFile writes the feature table to path through a temporary file
// in the same directory, so a failed write never leaves a partial table.
func WriteFeaturesFile(path string, rows []model.FeatureRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".player_tackles-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := WriteFeaturesCSV(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write features: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func hasDisplayName(rows []model.FeatureRow) bool {
	for _, r := range rows {
		if r.DisplayName != "" {
			return true
		}
	}
	return false
}

// FormatFloat renders v in shortest round-trip form with at least one decimal
// place ("1.0", "3.5"); NaN becomes the empty string. Magnitudes below 1e-4
// or from 1e16 up use exponent form ("5e-05", "1e+16").
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if abs := math.Abs(v); abs != 0 && !math.IsInf(v, 0) && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}
