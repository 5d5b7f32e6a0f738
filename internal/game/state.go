package game

// State is the game state shared by every participant of a room.
// Health is clamped to [0,100]; a write that drives it to 0 must also
// stop the game in the same write.
type State struct {
	IsPlaying bool           `json:"isPlaying"`
	StartTime int64          `json:"startTime"` // ms since epoch, countdown end
	Health    int            `json:"health"`
	Combo     int            `json:"combo"`
	Scores    map[string]int `json:"scores"`
}

func NewState() State {
	return State{Health: 100, Scores: map[string]int{}}
}

func (s State) Clone() State {
	c := s
	c.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		c.Scores[k] = v
	}
	return c
}

// ClampHealth applies a health delta, keeps the result in [0,100],
// and stops the game when health runs out.
func (s *State) ClampHealth(delta int) {
	s.Health += delta
	if s.Health > 100 {
		s.Health = 100
	}
	if s.Health <= 0 {
		s.Health = 0
		s.IsPlaying = false
	}
}

// Patch is a field-level state update. Scalar fields are absolute
// values and merge last-writer-wins; Scores merges per key, so two
// players writing their own scores never conflict.
type Patch struct {
	IsPlaying   *bool          `json:"isPlaying,omitempty"`
	StartTime   *int64         `json:"startTime,omitempty"`
	Health      *int           `json:"health,omitempty"`
	Combo       *int           `json:"combo,omitempty"`
	ResetScores bool           `json:"resetScores,omitempty"`
	Scores      map[string]int `json:"scores,omitempty"`
}

func (p Patch) Empty() bool {
	return p.IsPlaying == nil && p.StartTime == nil && p.Health == nil &&
		p.Combo == nil && !p.ResetScores && len(p.Scores) == 0
}

func (p Patch) Apply(s *State) {
	if p.IsPlaying != nil {
		s.IsPlaying = *p.IsPlaying
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.Health != nil {
		s.Health = *p.Health
	}
	if p.Combo != nil {
		s.Combo = *p.Combo
	}
	if p.ResetScores {
		s.Scores = map[string]int{}
	}
	for id, score := range p.Scores {
		if s.Scores == nil {
			s.Scores = map[string]int{}
		}
		s.Scores[id] = score
	}
}

// Diff computes the patch that turns before into after.
func Diff(before, after State) Patch {
	var p Patch
	if before.IsPlaying != after.IsPlaying {
		v := after.IsPlaying
		p.IsPlaying = &v
	}
	if before.StartTime != after.StartTime {
		v := after.StartTime
		p.StartTime = &v
	}
	if before.Health != after.Health {
		v := after.Health
		p.Health = &v
	}
	if before.Combo != after.Combo {
		v := after.Combo
		p.Combo = &v
	}
	for id, score := range after.Scores {
		if old, ok := before.Scores[id]; !ok || old != score {
			if p.Scores == nil {
				p.Scores = map[string]int{}
			}
			p.Scores[id] = score
		}
	}
	if len(after.Scores) == 0 && len(before.Scores) != 0 {
		p.ResetScores = true
	}
	return p
}
