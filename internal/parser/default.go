package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aspagon17/piano-app/internal/config"
	"github.com/aspagon17/piano-app/internal/game"
	"gitlab.com/gomidi/midi/v2/smf"
)

// DefaultParser reads Standard MIDI Files into charts. All tracks are
// collapsed into one note sequence; pitch is the MIDI note number and
// time is milliseconds from file start.
type DefaultParser struct{}

func (p *DefaultParser) Parse(file string) (*game.Chart, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, fmt.Errorf("unable to open chart file: %w", err)
	}
	defer f.Close()

	return p.ParseReader(filepath.Base(file), f)
}

func (p *DefaultParser) ParseReader(name string, r io.Reader) (*game.Chart, error) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	var (
		notes []game.Note
		last  time.Duration
	)

	rd := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		at := time.Duration(te.AbsMicroSeconds) * time.Microsecond
		if at > last {
			last = at
		}
		var channel, key, velocity uint8
		if te.Message.GetNoteStart(&channel, &key, &velocity) {
			notes = append(notes, game.Note{Pitch: key, Time: at})
		}
	})
	if err := rd.Error(); nil != err {
		return nil, fmt.Errorf("unable to parse midi file: %w", err)
	}
	if len(notes) == 0 {
		return nil, errors.New("midi file contains no notes")
	}

	chart := &game.Chart{
		Name:     name,
		Notes:    notes,
		Duration: last + config.TailBuffer,
	}
	chart.Sort()
	return chart, nil
}
