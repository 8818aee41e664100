// Package pipeline sequences load, filter, peak motion, tackle aggregation
// and enrichment into one batch run.
package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/nfl-tackle-metrics/internal/aggregator"
	"github.com/pable/nfl-tackle-metrics/internal/loader"
	"github.com/pable/nfl-tackle-metrics/internal/logging"
	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// Options selects the inputs of a run.
type Options struct {
	DataDir   string
	Weeks     int
	Positions []string

	// Now stamps RunSummary.CreatedAt; time.Now when nil.
	Now func() time.Time
}

// Result is everything one run produces.
type Result struct {
	Summary   model.RunSummary
	Enriched  []model.EnrichedPlayer
	Features  []model.FeatureRow
	Positions []model.PositionAggregate
}

// Run loads the dataset from opts.DataDir and processes it.
func Run(opts Options, log logrus.FieldLogger) (*Result, error) {
	ds, err := loader.New(opts.DataDir, log).Load(opts.Weeks)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	res, err := Process(ds, opts.Positions, log)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	res.Summary.DataDir = opts.DataDir
	res.Summary.Weeks = opts.Weeks
	res.Summary.CreatedAt = now().UTC()
	return res, nil
}

// Process runs every transform stage over an already loaded dataset.
func Process(ds *loader.Dataset, positions []string, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithField("component", "pipeline")

	defensive := aggregator.FilterDefensive(ds.Players, positions)
	log.WithFields(logrus.Fields{
		"players":   len(ds.Players),
		"defensive": len(defensive),
	}).Info("filtered defensive players")

	motion := aggregator.PeakMotions(defensive, ds.Tracking)
	withData := 0
	for _, m := range motion {
		if m.HasData() {
			withData++
		}
	}
	log.WithFields(logrus.Fields{
		"players":       len(motion),
		"with_tracking": withData,
	}).Info("extracted peak motion")

	events := aggregator.JoinPlayTackles(ds.Plays, ds.Tackles)
	aggs := aggregator.AggregateTackles(events)
	log.WithFields(logrus.Fields{
		"events":  len(events),
		"players": len(aggs),
	}).Info("aggregated tackles")

	enriched, byPos, err := aggregator.Enrich(defensive, motion, aggs)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	features := aggregator.Features(enriched)
	log.WithFields(logrus.Fields{
		"rows":      len(features),
		"positions": len(byPos),
	}).Info("enriched features")

	return &Result{
		Summary: model.RunSummary{
			Hash:             ds.Hash,
			TrackingRows:     len(ds.Tracking),
			Players:          len(ds.Players),
			DefensivePlayers: len(defensive),
			TackleEvents:     len(events),
			Games:            len(ds.Games),
			Seasons:          seasons(ds.Games),
			FeatureRows:      len(features),
		},
		Enriched:  enriched,
		Features:  features,
		Positions: byPos,
	}, nil
}

// seasons lists the distinct non-zero seasons of games, ascending.
func seasons(games []model.Game) string {
	seen := make(map[int]struct{})
	var out []int
	for _, g := range games {
		if g.Season == 0 {
			continue
		}
		if _, ok := seen[g.Season]; ok {
			continue
		}
		seen[g.Season] = struct{}{}
		out = append(out, g.Season)
	}
	sort.Ints(out)
	parts := make([]string, len(out))
	for i, s := range out {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}
