// Package engine implements the rhythm scoring loop: it consumes a
// chart and local press/release events against the shared room clock,
// and applies score, combo, and health deltas through the replicated
// store. Every participant runs its own instance over the same state.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/aspagon17/piano-app/internal/config"
	"github.com/aspagon17/piano-app/internal/game"
	"github.com/aspagon17/piano-app/internal/score"
	"github.com/aspagon17/piano-app/internal/store"
)

// PresenceWriter publishes the local participant's held notes.
type PresenceWriter interface {
	UpdatePresence(p game.Presence)
}

type Engine struct {
	Store    store.Store
	Scorer   score.Scorer
	PlayerID string

	// Now is the clock used for all timing judgements; defaults to
	// time.Now. Each client judges against its own clock, so skew
	// between participants is not corrected.
	Now func() time.Time

	Presence PresenceWriter

	// OnJudgement is called with the judgement name for a hit, or ""
	// for a wrong press or miss. Used by the UI; may be nil.
	OnJudgement func(name string, distance time.Duration)

	mu        sync.Mutex
	chart     *game.Chart
	tracker   game.Tracker
	presence  game.Presence
	lastStart int64
}

func New(st store.Store, sc score.Scorer, playerID string) *Engine {
	e := &Engine{
		Store:    st,
		Scorer:   sc,
		PlayerID: playerID,
		Now:      time.Now,
		chart:    game.SampleChart(),
		tracker:  game.Tracker{},
		presence: game.NewPresence("piano"),
	}
	st.Subscribe(e.observe)
	return e
}

// observe watches replicated state for a game start, local or remote.
// Any participant can start a game; the tracker must reset either way.
func (e *Engine) observe(s game.State) {
	if !s.IsPlaying {
		return
	}
	e.mu.Lock()
	if s.StartTime != e.lastStart {
		e.lastStart = s.StartTime
		e.tracker = game.Tracker{}
	}
	e.mu.Unlock()
}

// SetChart swaps the loaded chart. No-op while a game is running.
func (e *Engine) SetChart(c *game.Chart) {
	if e.Store.Snapshot().IsPlaying {
		return
	}
	e.mu.Lock()
	e.chart = c
	e.tracker = game.Tracker{}
	e.mu.Unlock()
}

func (e *Engine) Chart() *game.Chart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chart
}

func (e *Engine) SetInstrument(instrument string) {
	e.mu.Lock()
	e.presence.Instrument = instrument
	p := e.presence
	e.mu.Unlock()
	e.publishPresence(p)
}

// StartGame resets the shared state and schedules the first note for
// one countdown from now, as a single replicated write.
func (e *Engine) StartGame() {
	e.mu.Lock()
	e.tracker = game.Tracker{}
	e.mu.Unlock()

	start := e.Now().Add(*config.Countdown).UnixMilli()
	e.Store.Update(func(s *game.State) {
		s.IsPlaying = true
		s.StartTime = start
		s.Scores = map[string]int{}
		s.Health = 100
		s.Combo = 0
	})
}

// EndGame stops the game. Calling it when already stopped changes
// nothing.
func (e *Engine) EndGame() {
	e.Store.Update(func(s *game.State) {
		s.IsPlaying = false
	})
}

func (e *Engine) elapsed(s game.State) time.Duration {
	return time.Duration(e.Now().UnixMilli()-s.StartTime) * time.Millisecond
}

// NoteOn handles a local key press: always updates presence, and
// scores the press when a game is running.
func (e *Engine) NoteOn(pitch uint8) {
	e.mu.Lock()
	changed := e.presence.Press(pitch)
	p := e.presence
	e.mu.Unlock()
	if changed {
		e.publishPresence(p)
	}

	snapshot := e.Store.Snapshot()
	if !snapshot.IsPlaying {
		return
	}
	elapsed := e.elapsed(snapshot)

	e.mu.Lock()
	note, distance := e.Scorer.FindNote(e.chart, e.tracker, pitch, elapsed)
	hit := nil != note && e.tracker.Resolve(note.Time, game.Hit)
	e.mu.Unlock()

	if hit {
		judgement := e.Scorer.Judge(absDuration(distance))
		e.Store.Update(func(s *game.State) {
			points := judgement.Points * (1 + s.Combo/config.ComboStep)
			s.Scores[e.PlayerID] += points
			s.Combo++
			s.ClampHealth(config.HitHealth)
		})
		if nil != e.OnJudgement {
			e.OnJudgement(judgement.Name, distance)
		}
		return
	}

	// No qualifying unresolved note: wrong press.
	e.Store.Update(func(s *game.State) {
		s.Scores[e.PlayerID] += config.WrongPenalty
		s.Combo = 0
		s.ClampHealth(config.WrongHealth)
	})
	if nil != e.OnJudgement {
		e.OnJudgement("", 0)
	}
}

// NoteOff handles a local key release. No scoring effect.
func (e *Engine) NoteOff(pitch uint8) {
	e.mu.Lock()
	changed := e.presence.Release(pitch)
	p := e.presence
	e.mu.Unlock()
	if changed {
		e.publishPresence(p)
	}
}

// Tick ends an elapsed game and sweeps notes past the miss window.
// Each chart note produces exactly one scoring effect, ever.
func (e *Engine) Tick() {
	snapshot := e.Store.Snapshot()
	if !snapshot.IsPlaying {
		return
	}
	elapsed := e.elapsed(snapshot)

	e.mu.Lock()
	chart := e.chart
	if elapsed > chart.Duration {
		e.mu.Unlock()
		e.EndGame()
		return
	}

	var missed int
	for i := range chart.Notes {
		n := &chart.Notes[i]
		if elapsed <= n.Time+config.MissWindow {
			break
		}
		if e.tracker.Resolve(n.Time, game.Missed) {
			missed++
		}
	}
	e.mu.Unlock()

	if missed == 0 {
		return
	}
	e.Store.Update(func(s *game.State) {
		for i := 0; i < missed; i++ {
			s.Scores[e.PlayerID] += config.MissPenalty
			s.Combo = 0
			s.ClampHealth(config.MissHealth)
		}
	})
	if nil != e.OnJudgement {
		e.OnJudgement("", 0)
	}
}

// Run drives Tick at the configured interval until ctx is cancelled.
// The ticker is released on every exit path.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(*config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// GameOver reports whether a finished game has run past its chart,
// derived on read.
func (e *Engine) GameOver() bool {
	s := e.Store.Snapshot()
	if s.IsPlaying || s.StartTime == 0 {
		return false
	}
	return e.elapsed(s) > e.Chart().Duration
}

// RecordHighScore compares the player's score against the stored high
// score for the chart and overwrites it when greater. Returns the new
// high score and whether it was beaten.
func (e *Engine) RecordHighScore() (int, bool, error) {
	s := e.Store.Snapshot()
	myScore := s.Scores[e.PlayerID]
	chart := e.Chart()

	high, err := e.Scorer.HighScore(chart, e.PlayerID)
	if nil != err {
		return 0, false, err
	}
	if myScore <= high {
		return high, false, nil
	}
	if err := e.Scorer.SaveHighScore(chart, e.PlayerID, myScore); nil != err {
		return high, false, err
	}
	return myScore, true, nil
}

func (e *Engine) publishPresence(p game.Presence) {
	if nil != e.Presence {
		e.Presence.UpdatePresence(p)
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
