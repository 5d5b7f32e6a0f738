package engine

import (
	"testing"
	"time"

	"github.com/aspagon17/piano-app/internal/config"
	"github.com/aspagon17/piano-app/internal/game"
	"github.com/aspagon17/piano-app/internal/score"
	"github.com/aspagon17/piano-app/internal/store"
)

const player = "p1"

// clock is a settable fake for Engine.Now.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore, *clock) {
	t.Helper()
	*config.Countdown = 3 * time.Second

	st := store.NewMemoryStore()
	e := New(st, &score.DefaultScorer{}, player)
	c := &clock{now: time.UnixMilli(1_000_000_000)}
	e.Now = c.Now
	e.SetChart(&game.Chart{
		Name: "test",
		Notes: []game.Note{
			{Pitch: 60, Time: 0},
			{Pitch: 67, Time: 1000 * time.Millisecond},
		},
		Duration: 3 * time.Second,
	})
	return e, st, c
}

// start begins a game and winds the clock past the countdown, so the
// next advance is measured from song start.
func start(e *Engine, c *clock) {
	e.StartGame()
	c.advance(3 * time.Second)
}

func TestStartGameResets(t *testing.T) {
	e, st, c := newTestEngine(t)

	st.Update(func(s *game.State) {
		s.Health = 12
		s.Combo = 7
		s.Scores[player] = 999
	})

	start(e, c)

	s := st.Snapshot()
	if !s.IsPlaying {
		t.Error("game should be playing")
	}
	if s.Health != 100 || s.Combo != 0 || len(s.Scores) != 0 {
		t.Errorf("start did not reset state: %+v", s)
	}
	wantStart := c.Now().UnixMilli()
	if s.StartTime != wantStart {
		t.Errorf("startTime = %v, want now+countdown = %v", s.StartTime, wantStart)
	}
}

func TestRemoteStartClearsResolvedNotes(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)

	e.NoteOn(60)
	if got := st.Snapshot().Scores[player]; got != 100 {
		t.Fatalf("first game score = %v, want 100", got)
	}
	e.EndGame()

	// Another participant starts the next game, so the new state
	// arrives through the store rather than our own StartGame.
	c.advance(time.Second)
	remoteStart := c.Now().Add(3 * time.Second).UnixMilli()
	st.Update(func(s *game.State) {
		s.IsPlaying = true
		s.StartTime = remoteStart
		s.Scores = map[string]int{}
		s.Health = 100
		s.Combo = 0
	})
	c.advance(3 * time.Second)

	e.NoteOn(60)
	if got := st.Snapshot().Scores[player]; got != 100 {
		t.Errorf("score after remote start = %v, want 100", got)
	}
}

func TestEndGameIdempotent(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)

	e.EndGame()
	first := st.Snapshot()
	e.EndGame()
	second := st.Snapshot()

	if first.IsPlaying || second.IsPlaying {
		t.Error("game should be stopped")
	}
	if first.Health != second.Health || first.Combo != second.Combo || first.StartTime != second.StartTime {
		t.Error("second endGame changed state")
	}
}

func TestPerfectHit(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)
	c.advance(50 * time.Millisecond)

	e.NoteOn(60)

	s := st.Snapshot()
	if s.Scores[player] != 100 {
		t.Errorf("score = %v, want 100", s.Scores[player])
	}
	if s.Combo != 1 {
		t.Errorf("combo = %v, want 1", s.Combo)
	}
	if s.Health != 100 {
		t.Errorf("health = %v, want clamped 100", s.Health)
	}
}

func TestGoodHit(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)
	c.advance(1150 * time.Millisecond)

	e.NoteOn(67)

	if s := st.Snapshot(); s.Scores[player] != 50 {
		t.Errorf("score = %v, want 50", s.Scores[player])
	}
}

func TestWrongPress(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)
	c.advance(50 * time.Millisecond)

	e.NoteOn(60) // hit, combo 1
	e.NoteOn(72) // nothing there

	s := st.Snapshot()
	if s.Scores[player] != 100-10 {
		t.Errorf("score = %v, want 90", s.Scores[player])
	}
	if s.Combo != 0 {
		t.Errorf("combo = %v, want reset to 0", s.Combo)
	}
	if s.Health != 98 {
		t.Errorf("health = %v, want 98", s.Health)
	}
}

func TestDoublePressResolvesOnce(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)
	c.advance(50 * time.Millisecond)

	e.NoteOn(60)
	e.NoteOff(60)
	e.NoteOn(60) // note already resolved: scored as a wrong press

	s := st.Snapshot()
	if s.Scores[player] != 100-10 {
		t.Errorf("score = %v, want 90", s.Scores[player])
	}
}

func TestComboMultiplier(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)

	st.Update(func(s *game.State) { s.Combo = 23 })
	c.advance(50 * time.Millisecond)

	e.NoteOn(60)

	// 100 * (1 + floor(23/10)) = 300
	if s := st.Snapshot(); s.Scores[player] != 300 {
		t.Errorf("score = %v, want 300", s.Scores[player])
	}
}

func TestTickMarksMisses(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)
	c.advance(1450 * time.Millisecond)

	e.Tick()

	s := st.Snapshot()
	// Both notes (0ms and 1000ms) are past the 300ms miss window.
	if s.Scores[player] != -40 {
		t.Errorf("score = %v, want -40", s.Scores[player])
	}
	if s.Combo != 0 {
		t.Errorf("combo = %v, want 0", s.Combo)
	}
	if s.Health != 90 {
		t.Errorf("health = %v, want 90", s.Health)
	}

	// A later tick must not penalize the same notes again.
	c.advance(100 * time.Millisecond)
	e.Tick()
	if s := st.Snapshot(); s.Scores[player] != -40 {
		t.Errorf("second tick re-penalized: score = %v", s.Scores[player])
	}
}

func TestHitNotDoubleMissed(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)

	c.advance(50 * time.Millisecond)
	e.NoteOn(60)

	c.advance(1400 * time.Millisecond)
	e.Tick()

	s := st.Snapshot()
	// First note was hit (+100), only the second is missed (-20).
	if s.Scores[player] != 80 {
		t.Errorf("score = %v, want 80", s.Scores[player])
	}
}

func TestHealthDepletionEndsGame(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)

	st.Update(func(s *game.State) { s.Health = 3 })
	c.advance(400 * time.Millisecond) // first note past miss window

	e.Tick()

	s := st.Snapshot()
	if s.Health != 0 {
		t.Errorf("health = %v, want clamped 0", s.Health)
	}
	if s.IsPlaying {
		t.Error("depleted health must stop the game in the same write")
	}
}

func TestTickEndsElapsedGame(t *testing.T) {
	e, st, c := newTestEngine(t)
	start(e, c)
	c.advance(3100 * time.Millisecond) // past chart duration

	e.Tick()

	if s := st.Snapshot(); s.IsPlaying {
		t.Error("game should end when the song is over")
	}
	if !e.GameOver() {
		t.Error("gameOver should be derived true")
	}
}

func TestNotPlayingNoScoring(t *testing.T) {
	e, st, _ := newTestEngine(t)

	e.NoteOn(60)
	e.Tick()

	s := st.Snapshot()
	if len(s.Scores) != 0 || s.Combo != 0 || s.Health != 100 {
		t.Errorf("scoring happened while stopped: %+v", s)
	}
}

func TestPressUpdatesPresence(t *testing.T) {
	e, _, c := newTestEngine(t)
	pw := &capturePresence{}
	e.Presence = pw

	e.NoteOn(60)
	e.NoteOn(60) // duplicate, no presence update
	start(e, c)
	c.advance(50 * time.Millisecond)
	e.NoteOff(60)
	e.NoteOff(60) // duplicate, no presence update

	if pw.updates != 2 {
		t.Errorf("presence updates = %v, want 2", pw.updates)
	}
}

type capturePresence struct {
	updates int
	last    game.Presence
}

func (c *capturePresence) UpdatePresence(p game.Presence) {
	c.updates++
	c.last = p
}
