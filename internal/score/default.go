package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/aspagon17/piano-app/internal/config"
	"github.com/aspagon17/piano-app/internal/game"
	_ "github.com/mattn/go-sqlite3"
)

type DefaultScorer struct {
	DBPath string

	db *sql.DB
}

func (s *DefaultScorer) Init() error {
	path := s.DBPath
	if path == "" {
		path = *config.DBPath
	}
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return err
	}

	initStatement := `
	create table if not exists highscores
	  (
		  sum text not null,
		  player text not null,
		  score integer not null,
		  primary key (sum, player)
	  );
	`
	if _, err = db.Exec(initStatement); nil != err {
		return err
	}

	s.db = db
	return nil
}

func (s *DefaultScorer) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

func (s *DefaultScorer) hashChart(c *game.Chart) string {
	h := sha256.New()
	var buf [9]byte
	for _, n := range c.Notes {
		buf[0] = n.Pitch
		binary.LittleEndian.PutUint64(buf[1:], uint64(n.Time))
		h.Write(buf[:])
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (s *DefaultScorer) HighScore(c *game.Chart, player string) (int, error) {
	var score int
	err := s.db.QueryRow(
		"select score from highscores where sum = ? and player = ?",
		s.hashChart(c), player,
	).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if nil != err {
		return 0, err
	}
	return score, nil
}

func (s *DefaultScorer) SaveHighScore(c *game.Chart, player string, score int) error {
	_, err := s.db.Exec(
		"insert into highscores(sum, player, score) values(?, ?, ?) "+
			"on conflict(sum, player) do update set score = excluded.score",
		s.hashChart(c), player, score,
	)
	return err
}

func abs(x time.Duration) time.Duration {
	if x < 0 {
		return -x
	}
	return x
}

// Distance is the signed timing error between a chart note and the
// elapsed play time. Negative means the press came late.
func Distance(n *game.Note, elapsed time.Duration) time.Duration {
	return n.Time - elapsed
}

func (s *DefaultScorer) FindNote(chart *game.Chart, tracker game.Tracker, pitch uint8, elapsed time.Duration) (*game.Note, time.Duration) {
	var closestNote *game.Note
	absDistance := time.Hour * 24
	distance := time.Hour * 24

	for i := range chart.Notes {
		note := &chart.Notes[i]
		if tracker.Resolved(note.Time) {
			continue
		}
		if note.Pitch != pitch {
			continue
		}
		dd := Distance(note, elapsed)
		d := abs(dd)
		if d < absDistance {
			distance = dd
			absDistance = d
			closestNote = note
		} else if nil != closestNote {
			// The chart is time-ordered, so distances only grow from
			// here. Ties keep the earlier note.
			break
		}
	}

	if nil == closestNote || absDistance >= config.HitWindow() {
		return nil, 0
	}
	return closestNote, distance
}

func (s *DefaultScorer) Judge(absDistance time.Duration) *game.Judgement {
	for i := range config.Judgements {
		if absDistance < config.Judgements[i].Window {
			return &config.Judgements[i]
		}
	}
	return nil
}
