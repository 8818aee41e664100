// Package aggregator turns loaded tracking, tackle and player rows into the
// per-player tackle feature table. Every function is pure: inputs are never
// modified and each stage returns freshly allocated slices.
package aggregator

import (
	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// FilterDefensive returns the players whose position is in positions,
// preserving input order.
func FilterDefensive(players []model.PlayerProfile, positions []string) []model.PlayerProfile {
	allowed := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		allowed[p] = struct{}{}
	}
	out := make([]model.PlayerProfile, 0, len(players))
	for _, p := range players {
		if _, ok := allowed[p.Position]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PeakMotions returns max speed and max acceleration for every distinct
// player id, in first-encountered order. The tracking table is scanned once.
// Speed and acceleration maxima are independent; NaN samples are ignored and a
// player with no samples keeps NaN.
func PeakMotions(players []model.PlayerProfile, tracking []model.TrackingRecord) []model.PeakMotion {
	index := make(map[int64]int, len(players))
	out := make([]model.PeakMotion, 0, len(players))
	for _, p := range players {
		if _, seen := index[p.NflID]; seen {
			continue
		}
		index[p.NflID] = len(out)
		out = append(out, model.PeakMotion{
			NflID:    p.NflID,
			MaxAccel: model.NoData(),
			MaxSpeed: model.NoData(),
		})
	}

	for _, r := range tracking {
		i, ok := index[r.NflID]
		if !ok {
			continue
		}
		pm := &out[i]
		if !model.IsNoData(r.Speed) && (model.IsNoData(pm.MaxSpeed) || r.Speed > pm.MaxSpeed) {
			pm.MaxSpeed = r.Speed
		}
		if !model.IsNoData(r.Accel) && (model.IsNoData(pm.MaxAccel) || r.Accel > pm.MaxAccel) {
			pm.MaxAccel = r.Accel
		}
	}
	return out
}

// JoinPlayTackles inner-joins tackles with plays on (gameId, playId). A tackle
// without a matching play is dropped; a tackle matching k plays yields k
// events. Tackle order is preserved.
func JoinPlayTackles(plays []model.Play, tackles []model.Tackle) []model.PlayTackleEvent {
	type playKey struct{ gameID, playID int64 }
	counts := make(map[playKey]int, len(plays))
	for _, p := range plays {
		counts[playKey{p.GameID, p.PlayID}]++
	}

	out := make([]model.PlayTackleEvent, 0, len(tackles))
	for _, t := range tackles {
		n := counts[playKey{t.GameID, t.PlayID}]
		for i := 0; i < n; i++ {
			out = append(out, model.PlayTackleEvent(t))
		}
	}
	return out
}

// AggregateTackles sums the tackle counters per player (first-encountered
// order) and derives total tackles and tackle efficiency. NaN counters are
// skipped in the sums.
func AggregateTackles(events []model.PlayTackleEvent) []model.PlayerTackleAggregate {
	index := make(map[int64]int)
	var out []model.PlayerTackleAggregate
	for _, e := range events {
		i, ok := index[e.NflID]
		if !ok {
			i = len(out)
			index[e.NflID] = i
			out = append(out, model.PlayerTackleAggregate{NflID: e.NflID})
		}
		a := &out[i]
		a.Tackles += orZero(e.Tackle)
		a.Assists += orZero(e.Assist)
		a.ForcedFumbles += orZero(e.ForcedFumble)
		a.MissedTackles += orZero(e.MissedTackle)
	}
	for i := range out {
		a := &out[i]
		a.TotalTackles = TotalTackles(a.Tackles, a.Assists)
		a.TackleEfficiency = TackleEfficiency(a.TotalTackles, a.MissedTackles)
	}
	return out
}

// TotalTackles weights assisted tackles at one half.
func TotalTackles(tackles, assists float64) float64 {
	return tackles + 0.5*assists
}

// TackleEfficiency is total / (total + missed), NaN when both are zero.
func TackleEfficiency(total, missed float64) float64 {
	return ratio(total, total+missed)
}

func orZero(v float64) float64 {
	if model.IsNoData(v) {
		return 0
	}
	return v
}

// ratio divides num by den, returning NaN instead of ±Inf for a zero
// denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return model.NoData()
	}
	return num / den
}
