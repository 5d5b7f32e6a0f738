package score

import (
	"path/filepath"
	"testing"

	"github.com/aspagon17/piano-app/internal/game"
)

func TestHighScoreRoundTrip(t *testing.T) {
	scorer := DefaultScorer{DBPath: filepath.Join(t.TempDir(), "scores.db")}
	if err := scorer.Init(); nil != err {
		t.Fatal(err)
	}
	defer scorer.Deinit()

	chart := game.SampleChart()

	high, err := scorer.HighScore(chart, "p1")
	if nil != err {
		t.Fatal(err)
	}
	if high != 0 {
		t.Fatalf("fresh chart high score = %v", high)
	}

	if err := scorer.SaveHighScore(chart, "p1", 450); nil != err {
		t.Fatal(err)
	}
	if err := scorer.SaveHighScore(chart, "p2", 100); nil != err {
		t.Fatal(err)
	}

	high, err = scorer.HighScore(chart, "p1")
	if nil != err {
		t.Fatal(err)
	}
	if high != 450 {
		t.Fatalf("high score = %v, want 450", high)
	}

	// Overwrite
	if err := scorer.SaveHighScore(chart, "p1", 500); nil != err {
		t.Fatal(err)
	}
	high, _ = scorer.HighScore(chart, "p1")
	if high != 500 {
		t.Fatalf("high score = %v, want 500", high)
	}

	// Different chart hashes separately.
	other := game.SampleChart()
	other.Notes[0].Pitch = 61
	high, err = scorer.HighScore(other, "p1")
	if nil != err {
		t.Fatal(err)
	}
	if high != 0 {
		t.Fatalf("other chart high score = %v", high)
	}
}
