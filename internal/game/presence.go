package game

// Presence is the ephemeral per-participant record others can see.
type Presence struct {
	Instrument string  `json:"instrument"`
	Notes      []uint8 `json:"notes"` // currently held pitches
}

func NewPresence(instrument string) Presence {
	return Presence{Instrument: instrument, Notes: []uint8{}}
}

// Press adds a held pitch. Pressing an already held pitch is a no-op.
func (p *Presence) Press(pitch uint8) bool {
	for _, n := range p.Notes {
		if n == pitch {
			return false
		}
	}
	p.Notes = append(p.Notes, pitch)
	return true
}

// Release removes a held pitch. Releasing an unheld pitch is a no-op.
func (p *Presence) Release(pitch uint8) bool {
	for i, n := range p.Notes {
		if n == pitch {
			p.Notes = append(p.Notes[:i], p.Notes[i+1:]...)
			return true
		}
	}
	return false
}
