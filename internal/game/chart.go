package game

import (
	"sort"
	"time"
)

type Chart struct {
	Name     string        `json:"name"`
	Notes    []Note        `json:"notes"`
	Duration time.Duration `json:"duration"`
}

// Sort orders the notes by time ascending, stable for simultaneous notes.
func (c *Chart) Sort() {
	sort.SliceStable(c.Notes, func(i, j int) bool {
		return c.Notes[i].Time < c.Notes[j].Time
	})
}

// SampleChart is the built-in demo song, an extended Twinkle Twinkle
// Little Star, playable without uploading anything.
func SampleChart() *Chart {
	return &Chart{
		Name:     "Sample Song",
		Duration: 7000 * time.Millisecond,
		Notes: []Note{
			{Pitch: 60, Time: 0},
			{Pitch: 60, Time: 500 * time.Millisecond},
			{Pitch: 67, Time: 1000 * time.Millisecond},
			{Pitch: 67, Time: 1500 * time.Millisecond},
			{Pitch: 69, Time: 2000 * time.Millisecond},
			{Pitch: 69, Time: 2500 * time.Millisecond},
			{Pitch: 67, Time: 3000 * time.Millisecond},
			{Pitch: 65, Time: 3500 * time.Millisecond},
			{Pitch: 65, Time: 4000 * time.Millisecond},
			{Pitch: 64, Time: 4500 * time.Millisecond},
			{Pitch: 64, Time: 5000 * time.Millisecond},
			{Pitch: 62, Time: 5500 * time.Millisecond},
			{Pitch: 62, Time: 6000 * time.Millisecond},
			{Pitch: 60, Time: 6500 * time.Millisecond},
		},
	}
}
