// Package loader reads the tracking, play, tackle, game and player CSV tables
// of the Big Data Bowl layout into in-memory rows.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pable/nfl-tackle-metrics/internal/logging"
	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// MaxWeeks is the number of tracking weeks shipped with the dataset.
const MaxWeeks = 9

// Dataset is every table the pipeline consumes.
type Dataset struct {
	Tracking []model.TrackingRecord // week 1 rows first
	Plays    []model.Play
	Tackles  []model.Tackle
	Games    []model.Game
	Players  []model.PlayerProfile

	// Hash is the hex sha256 of every input byte in load order.
	Hash string
}

// Loader reads tables from one data directory.
type Loader struct {
	dir    string
	log    logrus.FieldLogger
	digest hash.Hash
}

// New returns a Loader for dir. A nil log discards output.
func New(dir string, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logging.Discard()
	}
	return &Loader{dir: dir, log: log.WithField("component", "loader")}
}

// Load reads tracking weeks 1..weeks and the four reference tables. Any
// missing file, missing column or unparsable value aborts the load.
func (l *Loader) Load(weeks int) (*Dataset, error) {
	if weeks < 1 || weeks > MaxWeeks {
		return nil, fmt.Errorf("weeks must be in 1..%d, got %d", MaxWeeks, weeks)
	}
	l.digest = sha256.New()

	ds := &Dataset{}
	for week := 1; week <= weeks; week++ {
		name := fmt.Sprintf("tracking_week_%d", week)
		rows, err := l.readTracking(name)
		if err != nil {
			return nil, err
		}
		l.log.WithFields(logrus.Fields{"table": name, "rows": len(rows)}).Info("loaded tracking week")
		ds.Tracking = append(ds.Tracking, rows...)
	}

	var err error
	if ds.Plays, err = l.readPlays(); err != nil {
		return nil, err
	}
	if ds.Tackles, err = l.readTackles(); err != nil {
		return nil, err
	}
	if ds.Games, err = l.readGames(); err != nil {
		return nil, err
	}
	if ds.Players, err = l.readPlayers(); err != nil {
		return nil, err
	}
	ds.Hash = hex.EncodeToString(l.digest.Sum(nil))

	l.log.WithFields(logrus.Fields{
		"tracking_rows": len(ds.Tracking),
		"plays":         len(ds.Plays),
		"tackles":       len(ds.Tackles),
		"games":         len(ds.Games),
		"players":       len(ds.Players),
	}).Info("dataset loaded")
	return ds, nil
}

func (l *Loader) readTracking(name string) ([]model.TrackingRecord, error) {
	t, err := l.open(name)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	iID, err := t.col("nflId")
	if err != nil {
		return nil, err
	}
	iS, err := t.col("s")
	if err != nil {
		return nil, err
	}
	iA, err := t.col("a")
	if err != nil {
		return nil, err
	}

	var out []model.TrackingRecord
	skipped := 0
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		id, ok, err := t.optID(rec, iID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The football itself is tracked with an empty nflId.
			skipped++
			continue
		}
		s, err := t.float(rec, iS)
		if err != nil {
			return nil, err
		}
		a, err := t.float(rec, iA)
		if err != nil {
			return nil, err
		}
		out = append(out, model.TrackingRecord{NflID: id, Speed: s, Accel: a})
	}
	if skipped > 0 {
		l.log.WithFields(logrus.Fields{"table": name, "rows": skipped}).Debug("skipped rows without nflId")
	}
	return out, nil
}

func (l *Loader) readPlays() ([]model.Play, error) {
	t, err := l.open("plays")
	if err != nil {
		return nil, err
	}
	defer t.Close()

	idx, err := t.cols("gameId", "playId")
	if err != nil {
		return nil, err
	}
	var out []model.Play
	for {
		rec, err := t.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var p model.Play
		if p.GameID, err = t.id(rec, idx[0]); err != nil {
			return nil, err
		}
		if p.PlayID, err = t.id(rec, idx[1]); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

func (l *Loader) readTackles() ([]model.Tackle, error) {
	t, err := l.open("tackles")
	if err != nil {
		return nil, err
	}
	defer t.Close()

	idx, err := t.cols("gameId", "playId", "nflId", "tackle", "assist", "forcedFumble")
	if err != nil {
		return nil, err
	}
	iMissed, err := t.col("pff_missedTackle", "missedTackle")
	if err != nil {
		return nil, err
	}

	var out []model.Tackle
	for {
		rec, err := t.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var k model.Tackle
		if k.GameID, err = t.id(rec, idx[0]); err != nil {
			return nil, err
		}
		if k.PlayID, err = t.id(rec, idx[1]); err != nil {
			return nil, err
		}
		if k.NflID, err = t.id(rec, idx[2]); err != nil {
			return nil, err
		}
		if k.Tackle, err = t.flag(rec, idx[3]); err != nil {
			return nil, err
		}
		if k.Assist, err = t.flag(rec, idx[4]); err != nil {
			return nil, err
		}
		if k.ForcedFumble, err = t.flag(rec, idx[5]); err != nil {
			return nil, err
		}
		if k.MissedTackle, err = t.flag(rec, iMissed); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
}

func (l *Loader) readGames() ([]model.Game, error) {
	t, err := l.open("games")
	if err != nil {
		return nil, err
	}
	defer t.Close()

	iGame, err := t.col("gameId")
	if err != nil {
		return nil, err
	}
	iSeason := t.optCol("season")
	iWeek := t.optCol("week")

	var out []model.Game
	for {
		rec, err := t.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var g model.Game
		if g.GameID, err = t.id(rec, iGame); err != nil {
			return nil, err
		}
		if iSeason >= 0 {
			if g.Season, err = t.integer(rec, iSeason); err != nil {
				return nil, err
			}
		}
		if iWeek >= 0 {
			if g.Week, err = t.integer(rec, iWeek); err != nil {
				return nil, err
			}
		}
		out = append(out, g)
	}
}

func (l *Loader) readPlayers() ([]model.PlayerProfile, error) {
	t, err := l.open("players")
	if err != nil {
		return nil, err
	}
	defer t.Close()

	idx, err := t.cols("nflId", "position", "height", "weight", "birthDate", "collegeName")
	if err != nil {
		return nil, err
	}
	iName := t.optCol("displayName")

	var out []model.PlayerProfile
	for {
		rec, err := t.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var p model.PlayerProfile
		if p.NflID, err = t.id(rec, idx[0]); err != nil {
			return nil, err
		}
		p.Position = rec[idx[1]]
		p.Height = rec[idx[2]]
		if p.Weight, err = t.float(rec, idx[3]); err != nil {
			return nil, err
		}
		p.BirthDate = rec[idx[4]]
		p.CollegeName = rec[idx[5]]
		if iName >= 0 {
			p.DisplayName = rec[iName]
		}
		out = append(out, p)
	}
}
