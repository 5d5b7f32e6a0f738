package score

import (
	"testing"
	"time"

	"github.com/aspagon17/piano-app/internal/game"
)

func testChart() *game.Chart {
	return &game.Chart{
		Notes: []game.Note{
			{Pitch: 60, Time: 0},
			{Pitch: 67, Time: 1000 * time.Millisecond},
			{Pitch: 64, Time: 1150 * time.Millisecond},
			{Pitch: 67, Time: 1300 * time.Millisecond},
		},
		Duration: 3 * time.Second,
	}
}

func TestFindNote(t *testing.T) {
	scorer := DefaultScorer{}

	tests := []struct {
		name    string
		pitch   uint8
		elapsed time.Duration
		want    time.Duration // expected note offset
		found   bool
	}{
		{"inside window", 60, 50 * time.Millisecond, 0, true},
		{"wrong pitch", 61, 50 * time.Millisecond, 0, false},
		{"outside window", 60, 250 * time.Millisecond, 0, false},
		{"closest of two wins", 67, 1250 * time.Millisecond, 1300 * time.Millisecond, true},
		{"equidistant keeps earliest", 67, 1150 * time.Millisecond, 1000 * time.Millisecond, true},
	}

	for _, test := range tests {
		note, _ := scorer.FindNote(testChart(), game.Tracker{}, test.pitch, test.elapsed)
		if !test.found {
			if nil != note {
				t.Errorf("%v: expected no note, got %+v", test.name, note)
			}
			continue
		}
		if nil == note {
			t.Errorf("%v: expected a note", test.name)
			continue
		}
		if note.Time != test.want {
			t.Errorf("%v: got note at %v, want %v", test.name, note.Time, test.want)
		}
	}
}

func TestFindNoteSkipsResolved(t *testing.T) {
	scorer := DefaultScorer{}
	chart := testChart()
	tracker := game.Tracker{}
	tracker.Resolve(1000*time.Millisecond, game.Hit)

	note, _ := scorer.FindNote(chart, tracker, 67, 1050*time.Millisecond)
	if nil == note || note.Time != 1300*time.Millisecond {
		t.Fatalf("resolved note must be skipped, got %+v", note)
	}
}

func TestJudge(t *testing.T) {
	scorer := DefaultScorer{}
	tests := map[time.Duration]int{
		0:                      100,
		50 * time.Millisecond:  100,
		99 * time.Millisecond:  100,
		100 * time.Millisecond: 50,
		150 * time.Millisecond: 50,
		199 * time.Millisecond: 50,
	}
	for distance, points := range tests {
		j := scorer.Judge(distance)
		if nil == j || j.Points != points {
			t.Errorf("judge(%v) = %+v, want %v points", distance, j, points)
		}
	}
	if j := scorer.Judge(200 * time.Millisecond); nil != j {
		t.Errorf("judge(200ms) = %+v, want nil", j)
	}
}

func TestDistance(t *testing.T) {
	n := &game.Note{Time: 1000 * time.Millisecond}
	if d := Distance(n, 950*time.Millisecond); d != 50*time.Millisecond {
		t.Errorf("early press distance = %v", d)
	}
	if d := Distance(n, 1050*time.Millisecond); d != -50*time.Millisecond {
		t.Errorf("late press distance = %v", d)
	}
}
