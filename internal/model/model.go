package model

import (
	"math"
	"time"
)

// Category labels for the 75th-percentile classification.
const (
	CategoryAbove = "Above"
	CategoryBelow = "Below"
)

// DefensivePositions is the default allow-list of defensive position codes.
var DefensivePositions = []string{"CB", "DB", "DE", "DT", "FS", "ILB", "LS", "MLB", "NT", "OLB", "SS"}

// NoData is the sentinel for a numeric value that could not be observed or
// computed (no tracking rows, zero denominator).
func NoData() float64 { return math.NaN() }

// IsNoData reports whether v is the NoData sentinel.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// ---- Raw rows read by the loader ----

// TrackingRecord is one tracked instant for one player.
type TrackingRecord struct {
	NflID int64
	Speed float64 // yards/s, NaN if missing
	Accel float64 // yards/s², NaN if missing
}

type PlayerProfile struct {
	NflID       int64
	Position    string
	Height      string // "feet-inches", e.g. "6-2"
	Weight      float64
	BirthDate   string
	CollegeName string
	DisplayName string
}

type Play struct {
	GameID int64
	PlayID int64
}

// Tackle is one row of tackles.csv. Flag columns are summed, so they are kept
// as float64 regardless of whether the file stores 0/1, counts or booleans.
type Tackle struct {
	GameID       int64
	PlayID       int64
	NflID        int64
	Tackle       float64
	Assist       float64
	ForcedFumble float64
	MissedTackle float64
}

// PlayTackleEvent is a tackle row that matched a play on (gameId, playId).
type PlayTackleEvent Tackle

type Game struct {
	GameID int64
	Season int
	Week   int
}

// ---- Derived metrics ----

// PeakMotion holds a player's maximum observed speed and acceleration.
// Both are NaN when the player has no tracking rows.
type PeakMotion struct {
	NflID    int64
	MaxAccel float64
	MaxSpeed float64
}

// HasData reports whether any tracking row contributed to the peaks.
func (p PeakMotion) HasData() bool {
	return !IsNoData(p.MaxAccel) || !IsNoData(p.MaxSpeed)
}

type PlayerTackleAggregate struct {
	NflID            int64
	Tackles          float64
	Assists          float64
	ForcedFumbles    float64
	MissedTackles    float64
	TotalTackles     float64 // Tackles + 0.5*Assists
	TackleEfficiency float64 // TotalTackles / (TotalTackles + MissedTackles), NaN on 0/0
}

// PositionAggregate summarises one position group of the enriched players.
type PositionAggregate struct {
	Position        string
	Players         int
	AvgTackles      float64
	P75TackleFactor float64
	Above           int
}

// EnrichedPlayer carries every intermediate column of the enrichment stage.
type EnrichedPlayer struct {
	PlayerProfile
	PeakMotion
	PlayerTackleAggregate

	AvgTacklesByPos float64
	BMI             float64
	TackleFactor    float64
	P75TackleFactor float64
	Category        string
}

// Feature projects the enriched row down to the output feature set.
func (e EnrichedPlayer) Feature() FeatureRow {
	return FeatureRow{
		NflID:            e.PlayerProfile.NflID,
		Position:         e.Position,
		DisplayName:      e.DisplayName,
		MaxAccel:         e.MaxAccel,
		MaxSpeed:         e.MaxSpeed,
		TackleEfficiency: e.TackleEfficiency,
		BMI:              e.BMI,
		TackleFactor:     e.TackleFactor,
		P75TackleFactor:  e.P75TackleFactor,
		Category:         e.Category,
	}
}

// FeatureRow is one row of the ML feature table.
type FeatureRow struct {
	NflID            int64
	Position         string
	DisplayName      string
	MaxAccel         float64
	MaxSpeed         float64
	TackleEfficiency float64
	BMI              float64
	TackleFactor     float64
	P75TackleFactor  float64
	Category         string
}

// IsAbove reports whether the player is in the top quartile of their position.
func (f FeatureRow) IsAbove() bool { return f.Category == CategoryAbove }

// ---- Run bookkeeping ----

// RunSummary describes one pipeline execution over a set of input files.
type RunSummary struct {
	Hash             string // sha256 over every input byte, hex
	DataDir          string
	Weeks            int
	CreatedAt        time.Time
	TrackingRows     int
	Players          int
	DefensivePlayers int
	TackleEvents     int
	Games            int
	Seasons          string // comma-separated, ascending
	FeatureRows      int
}

// ShortHash returns the first 12 characters of the run hash.
func (r RunSummary) ShortHash() string {
	if len(r.Hash) <= 12 {
		return r.Hash
	}
	return r.Hash[:12]
}

// PlayerRun is one stored feature row joined with the run it came from.
type PlayerRun struct {
	RunHash   string
	CreatedAt time.Time
	FeatureRow
	TotalTackles  float64
	MissedTackles float64
}
