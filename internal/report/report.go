package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

var (
	cAbove = color.New(color.FgGreen, color.Bold)
	cMuted = color.New(color.Faint)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// fmtOpt formats v with the given verb, or "—" for missing data.
func fmtOpt(format string, v float64) string {
	if math.IsNaN(v) {
		return "—"
	}
	return fmt.Sprintf(format, v)
}

// PrintRunSummary prints a one-line header for a run.
func PrintRunSummary(w io.Writer, s model.RunSummary) {
	seasons := s.Seasons
	if seasons == "" {
		seasons = "?"
	}
	fmt.Fprintf(w, "\nData: %s  |  Weeks: %d  |  Seasons: %s  |  Games: %d  |  Tracking rows: %d  |  Run: %s\n",
		s.DataDir, s.Weeks, seasons, s.Games, s.TrackingRows, s.ShortHash())
	fmt.Fprintf(w, "Players: %d  |  Defensive: %d  |  Tackle events: %d  |  Feature rows: %d\n\n",
		s.Players, s.DefensivePlayers, s.TackleEvents, s.FeatureRows)
}

// PrintFeatureTable prints one row per player. If focusID is non-zero, that
// player's row is marked with ">". Above-threshold categories are highlighted.
func PrintFeatureTable(w io.Writer, rows []model.FeatureRow, focusID int64) {
	table := newTable(w)
	table.Header(" ", "NFL_ID", "NAME", "POS", "MAX_A", "MAX_S", "EFF", "BMI", "FACTOR", "P75", "CATEGORY")

	for _, r := range rows {
		marker := " "
		if focusID != 0 && r.NflID == focusID {
			marker = ">"
		}
		category := r.Category
		if r.IsAbove() {
			category = cAbove.Sprint(category)
		} else {
			category = cMuted.Sprint(category)
		}
		table.Append(
			marker,
			strconv.FormatInt(r.NflID, 10),
			r.DisplayName,
			r.Position,
			fmtOpt("%.2f", r.MaxAccel),
			fmtOpt("%.2f", r.MaxSpeed),
			fmtOpt("%.0f%%", r.TackleEfficiency*100),
			fmtOpt("%.1f", r.BMI),
			fmtOpt("%.2f", r.TackleFactor),
			fmtOpt("%.2f", r.P75TackleFactor),
			category,
		)
	}
	table.Render()
}

// PrintPositionTable prints the per-position averages and thresholds.
// Columns: POS | PLAYERS | AVG_TACKLES | P75_FACTOR | ABOVE | ABOVE%
func PrintPositionTable(w io.Writer, positions []model.PositionAggregate) {
	table := newTable(w)
	table.Header("POS", "PLAYERS", "AVG_TACKLES", "P75_FACTOR", "ABOVE", "ABOVE%")

	for _, p := range positions {
		abovePct := "—"
		if p.Players > 0 {
			abovePct = fmt.Sprintf("%.0f%%", float64(p.Above)/float64(p.Players)*100)
		}
		table.Append(
			p.Position,
			strconv.Itoa(p.Players),
			fmtOpt("%.2f", p.AvgTackles),
			fmtOpt("%.2f", p.P75TackleFactor),
			strconv.Itoa(p.Above),
			abovePct,
		)
	}
	table.Render()
}

// PrintRunList prints stored runs, newest first as given.
func PrintRunList(w io.Writer, runs []model.RunSummary) {
	table := newTable(w)
	table.Header("HASH", "CREATED", "DATA", "WEEKS", "SEASONS", "DEFENSIVE", "ROWS")

	for _, r := range runs {
		table.Append(
			r.ShortHash(),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.DataDir,
			strconv.Itoa(r.Weeks),
			r.Seasons,
			strconv.Itoa(r.DefensivePlayers),
			strconv.Itoa(r.FeatureRows),
		)
	}
	table.Render()
}

// PrintPlayerHistory prints one player's feature rows across stored runs.
func PrintPlayerHistory(w io.Writer, history []model.PlayerRun) {
	table := newTable(w)
	table.Header("RUN", "CREATED", "POS", "TOTAL_TKL", "MISSED", "EFF", "FACTOR", "P75", "CATEGORY")

	for _, h := range history {
		category := h.Category
		if h.IsAbove() {
			category = cAbove.Sprint(category)
		}
		run := h.RunHash
		if len(run) > 12 {
			run = run[:12]
		}
		table.Append(
			run,
			h.CreatedAt.Format("2006-01-02 15:04"),
			h.Position,
			fmtOpt("%.1f", h.TotalTackles),
			fmtOpt("%.0f", h.MissedTackles),
			fmtOpt("%.0f%%", h.TackleEfficiency*100),
			fmtOpt("%.2f", h.TackleFactor),
			fmtOpt("%.2f", h.P75TackleFactor),
			category,
		)
	}
	table.Render()
}
