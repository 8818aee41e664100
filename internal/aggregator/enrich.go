package aggregator

import (
	"fmt"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// P75 is the quantile used for the position threshold.
const P75 = 0.75

// Enrich joins defensive players with their peak motion and tackle
// aggregates and derives the position-relative features.
//
// Players without a tackle aggregate are dropped (inner join); output order
// follows players. Position summaries are returned in first-encountered
// position order. A malformed height aborts with an error wrapping
// model.ErrParse.
func Enrich(players []model.PlayerProfile, motion []model.PeakMotion, aggs []model.PlayerTackleAggregate) ([]model.EnrichedPlayer, []model.PositionAggregate, error) {
	motionByID := make(map[int64]model.PeakMotion, len(motion))
	for _, m := range motion {
		motionByID[m.NflID] = m
	}
	aggByID := make(map[int64]model.PlayerTackleAggregate, len(aggs))
	for _, a := range aggs {
		aggByID[a.NflID] = a
	}

	// Step 1: inner join on nflId.
	var rows []model.EnrichedPlayer
	for _, p := range players {
		a, ok := aggByID[p.NflID]
		if !ok {
			continue
		}
		m, ok := motionByID[p.NflID]
		if !ok {
			m = model.PeakMotion{NflID: p.NflID, MaxAccel: model.NoData(), MaxSpeed: model.NoData()}
		}
		rows = append(rows, model.EnrichedPlayer{
			PlayerProfile:         p,
			PeakMotion:            m,
			PlayerTackleAggregate: a,
		})
	}

	// Step 2: position groups in first-encountered order.
	var order []string
	members := make(map[string][]int)
	for i, r := range rows {
		if _, ok := members[r.Position]; !ok {
			order = append(order, r.Position)
		}
		members[r.Position] = append(members[r.Position], i)
	}

	avgByPos := make(map[string]float64, len(order))
	for _, pos := range order {
		totals := make([]float64, len(members[pos]))
		for j, i := range members[pos] {
			totals[j] = rows[i].TotalTackles
		}
		avgByPos[pos] = Mean(totals)
	}

	// Steps 3-4: tackle factor and BMI per row.
	for i := range rows {
		r := &rows[i]
		r.AvgTacklesByPos = avgByPos[r.Position]
		r.TackleFactor = ratio(r.TotalTackles, r.AvgTacklesByPos)

		bmi, err := BMI(r.PlayerProfile.NflID, r.Height, r.Weight)
		if err != nil {
			return nil, nil, fmt.Errorf("bmi: %w", err)
		}
		r.BMI = bmi
	}

	// Steps 5-7: percentile threshold per position and classification.
	summaries := make([]model.PositionAggregate, 0, len(order))
	for _, pos := range order {
		factors := make([]float64, len(members[pos]))
		for j, i := range members[pos] {
			factors[j] = rows[i].TackleFactor
		}
		p75 := Quantile(factors, P75)

		above := 0
		for _, i := range members[pos] {
			r := &rows[i]
			r.P75TackleFactor = p75
			r.Category = Classify(r.TackleFactor, p75)
			if r.Category == model.CategoryAbove {
				above++
			}
		}
		summaries = append(summaries, model.PositionAggregate{
			Position:        pos,
			Players:         len(members[pos]),
			AvgTackles:      avgByPos[pos],
			P75TackleFactor: p75,
			Above:           above,
		})
	}
	return rows, summaries, nil
}

// Classify labels a tackle factor against its position threshold. Only a
// strictly greater factor is "Above"; ties and NaN on either side are "Below".
func Classify(factor, threshold float64) string {
	if factor > threshold {
		return model.CategoryAbove
	}
	return model.CategoryBelow
}

// Features projects enriched rows to the output feature set, dropping the
// intermediate columns.
func Features(rows []model.EnrichedPlayer) []model.FeatureRow {
	out := make([]model.FeatureRow, len(rows))
	for i, r := range rows {
		out[i] = r.Feature()
	}
	return out
}
