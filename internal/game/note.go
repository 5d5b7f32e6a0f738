package game

import (
	"time"
)

type Note struct {
	Pitch uint8         `json:"pitch"` // MIDI note number, 0-127
	Time  time.Duration `json:"time"`  // Offset from song start
}

// Resolution is the scoring outcome of a chart note.
type Resolution uint8

const (
	Pending Resolution = iota
	Hit
	Missed
)

// Tracker records which chart offsets have already been resolved.
// Keyed by note time so simultaneous notes resolve together, and
// write-once so a note is never scored twice.
type Tracker map[time.Duration]Resolution

func (t Tracker) Resolve(offset time.Duration, r Resolution) bool {
	if t[offset] != Pending {
		return false
	}
	t[offset] = r
	return true
}

func (t Tracker) Resolved(offset time.Duration) bool {
	return t[offset] != Pending
}
