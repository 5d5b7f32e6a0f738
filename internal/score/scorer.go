package score

import (
	"time"

	"github.com/aspagon17/piano-app/internal/game"
)

type Scorer interface {
	Init() error
	Deinit()

	// FindNote returns the unresolved chart note closest to elapsed for
	// the given pitch, or nil when none falls inside the hit window.
	FindNote(chart *game.Chart, tracker game.Tracker, pitch uint8, elapsed time.Duration) (*game.Note, time.Duration)

	// Judge classifies an absolute timing error against the judgement
	// table, best (tightest window) first.
	Judge(absDistance time.Duration) *game.Judgement

	// Local high score persistence, keyed per chart.
	HighScore(chart *game.Chart, player string) (int, error)
	SaveHighScore(chart *game.Chart, player string, score int) error
}
