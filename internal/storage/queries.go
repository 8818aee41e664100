package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunExists returns true if a run with the given input hash is already stored.
func (db *DB) RunExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM runs WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveRun stores a run with its enriched rows and position summaries in one
// transaction. Re-saving a hash replaces everything previously stored for it.
func (db *DB) SaveRun(summary model.RunSummary, rows []model.EnrichedPlayer, positions []model.PositionAggregate) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"feature_rows", "position_stats"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_hash = ?", summary.Hash); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs(
			hash, data_dir, weeks, created_at,
			tracking_rows, players, defensive_players, tackle_events,
			games, seasons, feature_rows
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		summary.Hash, summary.DataDir, summary.Weeks, summary.CreatedAt.UTC().Format(timeLayout),
		summary.TrackingRows, summary.Players, summary.DefensivePlayers, summary.TackleEvents,
		summary.Games, summary.Seasons, summary.FeatureRows,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO feature_rows(
			run_hash, row_index, nfl_id, position, display_name,
			max_a, max_s,
			tackles, assists, forced_fumbles, missed_tackles, total_tackles,
			tackle_efficiency, bmi, avg_tackles_by_pos,
			tackle_factor, p75_tackle_factor, category
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err = stmt.Exec(
			summary.Hash, i, r.PlayerProfile.NflID, r.Position, r.DisplayName,
			nullFloat(r.MaxAccel), nullFloat(r.MaxSpeed),
			nullFloat(r.Tackles), nullFloat(r.Assists), nullFloat(r.ForcedFumbles),
			nullFloat(r.MissedTackles), nullFloat(r.TotalTackles),
			nullFloat(r.TackleEfficiency), nullFloat(r.BMI), nullFloat(r.AvgTacklesByPos),
			nullFloat(r.TackleFactor), nullFloat(r.P75TackleFactor), r.Category,
		)
		if err != nil {
			return fmt.Errorf("insert feature_rows for %d: %w", r.PlayerProfile.NflID, err)
		}
	}

	posStmt, err := tx.Prepare(`
		INSERT INTO position_stats(
			run_hash, position, sort_order, players, avg_tackles, p75_tackle_factor, above
		) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer posStmt.Close()

	for i, p := range positions {
		_, err = posStmt.Exec(summary.Hash, p.Position, i, p.Players,
			nullFloat(p.AvgTackles), nullFloat(p.P75TackleFactor), p.Above)
		if err != nil {
			return fmt.Errorf("insert position_stats for %s: %w", p.Position, err)
		}
	}
	return tx.Commit()
}

const runColumns = `hash, data_dir, weeks, created_at,
	tracking_rows, players, defensive_players, tackle_events,
	games, seasons, feature_rows`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunSummary, error) {
	var r model.RunSummary
	var created string
	err := s.Scan(&r.Hash, &r.DataDir, &r.Weeks, &created,
		&r.TrackingRows, &r.Players, &r.DefensivePlayers, &r.TackleEvents,
		&r.Games, &r.Seasons, &r.FeatureRows)
	if err != nil {
		return r, err
	}
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return r, nil
}

// ListRuns returns all stored runs ordered by created_at desc.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunByPrefix finds the most recent run whose hash starts with the given
// prefix. It returns nil, nil when nothing matches.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	r, err := scanRun(db.conn.QueryRow(`SELECT `+runColumns+` FROM runs
		WHERE hash LIKE ? ORDER BY created_at DESC LIMIT 1`, prefix+"%"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetFeatureRows returns a run's feature rows in output order. A non-empty
// position restricts the result to that position.
func (db *DB) GetFeatureRows(runHash, position string) ([]model.FeatureRow, error) {
	query := `
		SELECT nfl_id, position, display_name, max_a, max_s,
		       tackle_efficiency, bmi, tackle_factor, p75_tackle_factor, category
		FROM feature_rows WHERE run_hash = ?`
	args := []any{runHash}
	if position != "" {
		query += ` AND position = ?`
		args = append(args, strings.ToUpper(position))
	}
	query += ` ORDER BY row_index`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeatureRow
	for rows.Next() {
		var f model.FeatureRow
		var maxA, maxS, eff, bmi, factor, p75 sql.NullFloat64
		if err := rows.Scan(&f.NflID, &f.Position, &f.DisplayName, &maxA, &maxS,
			&eff, &bmi, &factor, &p75, &f.Category); err != nil {
			return nil, err
		}
		f.MaxAccel = floatOrNaN(maxA)
		f.MaxSpeed = floatOrNaN(maxS)
		f.TackleEfficiency = floatOrNaN(eff)
		f.BMI = floatOrNaN(bmi)
		f.TackleFactor = floatOrNaN(factor)
		f.P75TackleFactor = floatOrNaN(p75)
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetPositionStats returns a run's position summaries in first-encountered order.
func (db *DB) GetPositionStats(runHash string) ([]model.PositionAggregate, error) {
	rows, err := db.conn.Query(`
		SELECT position, players, avg_tackles, p75_tackle_factor, above
		FROM position_stats WHERE run_hash = ? ORDER BY sort_order`, runHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PositionAggregate
	for rows.Next() {
		var p model.PositionAggregate
		var avg, p75 sql.NullFloat64
		if err := rows.Scan(&p.Position, &p.Players, &avg, &p75, &p.Above); err != nil {
			return nil, err
		}
		p.AvgTackles = floatOrNaN(avg)
		p.P75TackleFactor = floatOrNaN(p75)
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlayerHistory returns every stored feature row of one player, newest run first.
func (db *DB) GetPlayerHistory(nflID int64) ([]model.PlayerRun, error) {
	rows, err := db.conn.Query(`
		SELECT f.run_hash, r.created_at,
		       f.nfl_id, f.position, f.display_name, f.max_a, f.max_s,
		       f.tackle_efficiency, f.bmi, f.tackle_factor, f.p75_tackle_factor, f.category,
		       f.total_tackles, f.missed_tackles
		FROM feature_rows f JOIN runs r ON r.hash = f.run_hash
		WHERE f.nfl_id = ?
		ORDER BY r.created_at DESC, f.row_index`, nflID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRun
	for rows.Next() {
		var p model.PlayerRun
		var created string
		var maxA, maxS, eff, bmi, factor, p75, total, missed sql.NullFloat64
		if err := rows.Scan(&p.RunHash, &created,
			&p.NflID, &p.Position, &p.DisplayName, &maxA, &maxS,
			&eff, &bmi, &factor, &p75, &p.Category,
			&total, &missed); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		p.MaxAccel = floatOrNaN(maxA)
		p.MaxSpeed = floatOrNaN(maxS)
		p.TackleEfficiency = floatOrNaN(eff)
		p.BMI = floatOrNaN(bmi)
		p.TackleFactor = floatOrNaN(factor)
		p.P75TackleFactor = floatOrNaN(p75)
		p.TotalTackles = floatOrNaN(total)
		p.MissedTackles = floatOrNaN(missed)
		out = append(out, p)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and every row
// rendered as text for display. NULL renders as "NULL" and floats keep four
// significant digits.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	cols, rows, err := db.QueryValues(query)
	if err != nil {
		return nil, nil, err
	}
	out := make([][]string, len(rows))
	for r, row := range rows {
		out[r] = make([]string, len(row))
		for i, v := range row {
			switch x := v.(type) {
			case nil:
				out[r][i] = "NULL"
			case float64:
				out[r][i] = fmt.Sprintf("%.4g", x)
			default:
				out[r][i] = fmt.Sprint(x)
			}
		}
	}
	return cols, out, nil
}

// QueryValues runs an arbitrary query and returns every cell as the driver
// scanned it: nil for NULL, int64, float64, string or time.Time. BLOBs are
// returned as strings.
func (db *DB) QueryValues(query string) ([]string, [][]any, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	return cols, out, rows.Err()
}

func nullFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
