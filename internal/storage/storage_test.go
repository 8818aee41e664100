package storage

import (
	"math"
	"testing"
	"time"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func enriched(id int64, pos string, total, factor float64, category string) model.EnrichedPlayer {
	return model.EnrichedPlayer{
		PlayerProfile:         model.PlayerProfile{NflID: id, Position: pos, DisplayName: "P" + pos, Height: "6-1", Weight: 210},
		PeakMotion:            model.PeakMotion{NflID: id, MaxAccel: 4.2, MaxSpeed: 8.9},
		PlayerTackleAggregate: model.PlayerTackleAggregate{NflID: id, Tackles: total, TotalTackles: total, TackleEfficiency: 1},
		AvgTacklesByPos:       2,
		BMI:                   27.7,
		TackleFactor:          factor,
		P75TackleFactor:       1.5,
		Category:              category,
	}
}

func summary(hash string, created time.Time) model.RunSummary {
	return model.RunSummary{
		Hash: hash, DataDir: "data", Weeks: 2, CreatedAt: created,
		TrackingRows: 100, Players: 10, DefensivePlayers: 5, TackleEvents: 8,
		Games: 3, Seasons: "2022", FeatureRows: 2,
	}
}

func TestSaveRunAndExists(t *testing.T) {
	db := openMemDB(t)

	rows := []model.EnrichedPlayer{
		enriched(1, "CB", 4, 2, model.CategoryAbove),
		enriched(2, "SS", 1, 0.5, model.CategoryBelow),
	}
	if err := db.SaveRun(summary("abc123", time.Now()), rows, nil); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	exists, err := db.RunExists("abc123")
	if err != nil {
		t.Fatalf("RunExists: %v", err)
	}
	if !exists {
		t.Error("expected run to exist after save")
	}

	exists2, _ := db.RunExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent run to not exist")
	}
}

func TestListRuns(t *testing.T) {
	db := openMemDB(t)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 2, 1, 0, 0, 0, 500, time.UTC)
	for _, s := range []model.RunSummary{summary("h1", older), summary("h2", newer)} {
		if err := db.SaveRun(s, nil, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	list, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list))
	}
	// Ordered by created_at DESC, so h2 comes first.
	if list[0].Hash != "h2" {
		t.Errorf("expected h2 first (newest), got %s", list[0].Hash)
	}
	if !list[0].CreatedAt.Equal(newer) {
		t.Errorf("created_at round trip: want %v, got %v", newer, list[0].CreatedAt)
	}
	if list[1].Seasons != "2022" || list[1].TackleEvents != 8 {
		t.Errorf("unexpected summary fields: %+v", list[1])
	}
}

func TestGetRunByPrefix(t *testing.T) {
	db := openMemDB(t)

	db.SaveRun(summary("deadbeef1234", time.Now()), nil, nil)

	s, err := db.GetRunByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetRunByPrefix: %v", err)
	}
	if s == nil {
		t.Fatal("expected match for prefix 'deadb'")
	}
	if s.Hash != "deadbeef1234" {
		t.Errorf("unexpected hash %s", s.Hash)
	}

	s2, err := db.GetRunByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetRunByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestFeatureRowsRoundTrip(t *testing.T) {
	db := openMemDB(t)

	noData := enriched(3, "CB", 0, math.NaN(), model.CategoryBelow)
	noData.MaxAccel = math.NaN()
	noData.MaxSpeed = math.NaN()
	rows := []model.EnrichedPlayer{
		enriched(1, "CB", 4, 2, model.CategoryAbove),
		enriched(2, "SS", 1, 0.5, model.CategoryBelow),
		noData,
	}
	positions := []model.PositionAggregate{
		{Position: "CB", Players: 2, AvgTackles: 2, P75TackleFactor: 1.5, Above: 1},
		{Position: "SS", Players: 1, AvgTackles: 1, P75TackleFactor: math.NaN()},
	}
	if err := db.SaveRun(summary("h1", time.Now()), rows, positions); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetFeatureRows("h1", "")
	if err != nil {
		t.Fatalf("GetFeatureRows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0].NflID != 1 || got[1].NflID != 2 || got[2].NflID != 3 {
		t.Errorf("rows not in output order: %d %d %d", got[0].NflID, got[1].NflID, got[2].NflID)
	}
	if got[0].MaxSpeed != 8.9 || got[0].TackleFactor != 2 || got[0].Category != model.CategoryAbove {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if !math.IsNaN(got[2].MaxSpeed) || !math.IsNaN(got[2].TackleFactor) {
		t.Errorf("NaN should survive as NULL: %+v", got[2])
	}

	cbOnly, err := db.GetFeatureRows("h1", "cb")
	if err != nil {
		t.Fatalf("GetFeatureRows position: %v", err)
	}
	if len(cbOnly) != 2 {
		t.Errorf("expected 2 CB rows, got %d", len(cbOnly))
	}

	pos, err := db.GetPositionStats("h1")
	if err != nil {
		t.Fatalf("GetPositionStats: %v", err)
	}
	if len(pos) != 2 || pos[0].Position != "CB" || pos[1].Position != "SS" {
		t.Fatalf("unexpected position stats: %+v", pos)
	}
	if !math.IsNaN(pos[1].P75TackleFactor) {
		t.Errorf("SS p75: want NaN, got %f", pos[1].P75TackleFactor)
	}
}

func TestSaveRunReplaces(t *testing.T) {
	db := openMemDB(t)

	first := []model.EnrichedPlayer{enriched(1, "CB", 4, 2, model.CategoryAbove), enriched(2, "SS", 1, 1, model.CategoryBelow)}
	if err := db.SaveRun(summary("idem1", time.Now()), first, nil); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}
	// Second save of the same hash should not error and should not duplicate rows.
	second := []model.EnrichedPlayer{enriched(1, "CB", 4, 2, model.CategoryAbove)}
	if err := db.SaveRun(summary("idem1", time.Now()), second, nil); err != nil {
		t.Errorf("second SaveRun should succeed (idempotent): %v", err)
	}

	got, err := db.GetFeatureRows("idem1", "")
	if err != nil {
		t.Fatalf("GetFeatureRows: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 row after replace, got %d", len(got))
	}
}

func TestPlayerHistory(t *testing.T) {
	db := openMemDB(t)

	db.SaveRun(summary("old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		[]model.EnrichedPlayer{enriched(7, "DE", 2, 1, model.CategoryBelow)}, nil)
	db.SaveRun(summary("new", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		[]model.EnrichedPlayer{enriched(7, "DE", 5, 2, model.CategoryAbove), enriched(8, "DT", 1, 1, model.CategoryBelow)}, nil)

	hist, err := db.GetPlayerHistory(7)
	if err != nil {
		t.Fatalf("GetPlayerHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hist))
	}
	if hist[0].RunHash != "new" || hist[0].TotalTackles != 5 {
		t.Errorf("expected newest run first, got %+v", hist[0])
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.SaveRun(summary("h1", time.Now()), []model.EnrichedPlayer{enriched(1, "CB", 4, math.NaN(), model.CategoryBelow)}, nil)

	cols, rows, err := db.QueryRaw("SELECT nfl_id, position, tackle_factor FROM feature_rows")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 3 || cols[1] != "position" {
		t.Errorf("unexpected columns %v", cols)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[0][1] != "CB" || rows[0][2] != "NULL" {
		t.Errorf("unexpected row %v", rows[0])
	}
}

func TestQueryValuesKeepsRawTypes(t *testing.T) {
	db := openMemDB(t)

	cols, rows, err := db.QueryValues("SELECT 25.6727 AS f, 46097 AS i, NULL AS n, 'NULL' AS s")
	if err != nil {
		t.Fatalf("QueryValues: %v", err)
	}
	if len(cols) != 4 || len(rows) != 1 {
		t.Fatalf("unexpected shape: %v %v", cols, rows)
	}
	row := rows[0]
	if f, ok := row[0].(float64); !ok || f != 25.6727 {
		t.Errorf("float: got %#v", row[0])
	}
	if i, ok := row[1].(int64); !ok || i != 46097 {
		t.Errorf("int: got %#v", row[1])
	}
	if row[2] != nil {
		t.Errorf("NULL: got %#v", row[2])
	}
	if s, ok := row[3].(string); !ok || s != "NULL" {
		t.Errorf("text: got %#v", row[3])
	}

	_, text, err := db.QueryRaw("SELECT 25.6727 AS f, NULL AS n")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if text[0][0] != "25.67" || text[0][1] != "NULL" {
		t.Errorf("display row: got %v", text[0])
	}
}
