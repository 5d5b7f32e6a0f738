package config

import (
	"time"

	"github.com/aspagon17/piano-app/internal/game"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	// serve
	Addr      = kingpin.Flag("addr", "Server listen address").Default(":8031").Short('a').String()
	Secret    = kingpin.Flag("secret", "Room access token secret").Envar("PIANO_SECRET").String()
	RedisAddr = kingpin.Flag("redis", "Redis address for cross-instance room relay").String()
	Announce  = kingpin.Flag("announce", "Advertise the server over mDNS").Bool()

	// play
	Server     = kingpin.Flag("server", "Server base URL").Default("http://127.0.0.1:8031").Short('u').String()
	Room       = kingpin.Flag("room", "Room name to join").Default("lobby").Short('r').String()
	Discover   = kingpin.Flag("discover", "Find a server on the LAN over mDNS").Bool()
	SongFile   = kingpin.Flag("song", "MIDI file to use as the chart").Short('s').ExistingFile()
	Instrument = kingpin.Flag("instrument", "Instrument shown to other players").Default("piano").String()
	DBPath     = kingpin.Flag("db", "High score database path").Default("./scores.db").String()

	// timing
	TickInterval = kingpin.Flag("tick", "Miss sweep interval").Default("100ms").Duration()
	Countdown    = kingpin.Flag("countdown", "Delay between start and the first note").Default("3s").Duration()

	MissWindow   = 300 * time.Millisecond
	TailBuffer   = 2000 * time.Millisecond
	FallDuration = 5 * time.Second // presentation only

	// scoring
	WrongPenalty = -10
	MissPenalty  = -20
	HitHealth    = 2
	WrongHealth  = -2
	MissHealth   = -5
	ComboStep    = 10
	Judgements   []game.Judgement
)

func init() {
	Judgements = []game.Judgement{
		{Window: 100 * time.Millisecond, Points: 100, Name: "Perfect"},
		{Window: 200 * time.Millisecond, Points: 50, Name: "Good"},
	}
}

// HitWindow is the widest window still counted as a hit.
func HitWindow() time.Duration {
	return Judgements[len(Judgements)-1].Window
}
