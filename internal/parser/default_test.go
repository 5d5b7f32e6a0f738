package parser

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aspagon17/piano-app/internal/config"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestParseReaderRejectsGarbage(t *testing.T) {
	p := &DefaultParser{}
	if _, err := p.ParseReader("junk.mid", strings.NewReader("not a midi file")); nil == err {
		t.Fatal("expected an error for malformed input")
	}
}

func TestParseReader(t *testing.T) {
	// Build a one-track file: C4 at 0 and G4 one beat later at 120bpm,
	// so the second note lands at 500ms.
	var track smf.Track
	track.Add(0, smf.MetaTempo(120))
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(480, midi.NoteOff(0, 60))
	track.Add(0, midi.NoteOn(0, 67, 100))
	track.Add(480, midi.NoteOff(0, 67))
	track.Close(0)

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(480)
	if err := file.Add(track); nil != err {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); nil != err {
		t.Fatal(err)
	}

	p := &DefaultParser{}
	chart, err := p.ParseReader("demo.mid", &buf)
	if nil != err {
		t.Fatal(err)
	}

	if chart.Name != "demo" {
		t.Errorf("name = %q, want extension stripped", chart.Name)
	}
	if len(chart.Notes) != 2 {
		t.Fatalf("notes = %v, want 2", len(chart.Notes))
	}
	if chart.Notes[0].Pitch != 60 || chart.Notes[0].Time != 0 {
		t.Errorf("first note = %+v", chart.Notes[0])
	}
	if chart.Notes[1].Pitch != 67 || chart.Notes[1].Time != 500*time.Millisecond {
		t.Errorf("second note = %+v", chart.Notes[1])
	}

	// Duration covers the final event plus the tail buffer.
	if chart.Duration < chart.Notes[1].Time+config.TailBuffer {
		t.Errorf("duration = %v", chart.Duration)
	}
}
