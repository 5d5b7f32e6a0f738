package room

import (
	"github.com/aspagon17/piano-app/internal/auth"
	"github.com/aspagon17/piano-app/internal/game"
)

const (
	// server -> client
	TypeHello = "hello"
	TypeState = "state"
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypeChart = "chart"

	// client -> server, echoed to others
	TypePresence = "presence"

	// client -> server
	TypePatch = "patch"
)

type Participant struct {
	Identity auth.Identity `json:"identity"`
	Presence game.Presence `json:"presence"`
}

type Message struct {
	Type     string         `json:"type"`
	From     string         `json:"from,omitempty"`
	State    *game.State    `json:"state,omitempty"`
	Patch    *game.Patch    `json:"patch,omitempty"`
	Presence *game.Presence `json:"presence,omitempty"`
	Identity *auth.Identity `json:"identity,omitempty"`
	Others   []Participant  `json:"others,omitempty"`
	Chart    *game.Chart    `json:"chart,omitempty"`
}
