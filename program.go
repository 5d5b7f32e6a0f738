package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aspagon17/piano-app/internal/auth"
	"github.com/aspagon17/piano-app/internal/config"
	"github.com/aspagon17/piano-app/internal/discovery"
	"github.com/aspagon17/piano-app/internal/engine"
	"github.com/aspagon17/piano-app/internal/game"
	"github.com/aspagon17/piano-app/internal/parser"
	"github.com/aspagon17/piano-app/internal/room"
	"github.com/aspagon17/piano-app/internal/score"
	"github.com/aspagon17/piano-app/internal/store"
	"github.com/cenkalti/backoff"
	"github.com/eiannone/keyboard"
	"github.com/gorilla/websocket"
	"golang.org/x/term"
)

// Chromatic run starting at C4. Terminals report no key-up events, so
// a held note is released automatically after releaseAfter.
const keyMap = "awsedftgyhujkolp"
const basePitch = 60
const releaseAfter = 250 * time.Millisecond

type Program struct {
	Parser parser.Parser
	Scorer *score.DefaultScorer

	serverURL string
	token     string
	identity  auth.Identity

	connMu sync.Mutex
	conn   *websocket.Conn

	store  *store.RemoteStore
	engine *engine.Engine

	keyChannel <-chan keyboard.KeyEvent

	othersMu sync.Mutex
	others   map[string]room.Participant

	judgementMu sync.Mutex
	judgement   string

	scoreSaved     bool
	releaseTimers  map[uint8]*time.Timer
	releaseTimerMu sync.Mutex
}

func (p *Program) Init(ctx context.Context) error {
	p.Parser = &parser.DefaultParser{}
	p.Scorer = &score.DefaultScorer{}
	p.others = map[string]room.Participant{}
	p.releaseTimers = map[uint8]*time.Timer{}

	if err := p.Scorer.Init(); nil != err {
		return fmt.Errorf("unable to open score database: %w", err)
	}

	p.serverURL = strings.TrimSuffix(*config.Server, "/")
	if *config.Discover {
		lookupCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		found, err := discovery.Lookup(lookupCtx)
		if nil != err {
			return err
		}
		p.serverURL = found
	}

	if err := p.authenticate(ctx); nil != err {
		return err
	}
	if err := p.connect(ctx); nil != err {
		return err
	}

	p.store = store.NewRemoteStore(p)
	p.engine = engine.New(p.store, p.Scorer, p.identity.ID)
	p.engine.Presence = p
	p.engine.OnJudgement = func(name string, distance time.Duration) {
		p.setJudgement(name)
	}
	p.engine.SetInstrument(*config.Instrument)

	if *config.SongFile != "" {
		chart, err := p.Parser.Parse(*config.SongFile)
		if nil != err {
			return err
		}
		p.engine.SetChart(chart)
	}

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	p.keyChannel = keyChannel

	return nil
}

func (p *Program) Close() {
	if err := keyboard.Close(); nil != err {
		log.Println("unable to close keyboard:", err)
	}
	p.connMu.Lock()
	if nil != p.conn {
		p.conn.Close()
	}
	p.connMu.Unlock()
	p.Scorer.Deinit()
}

func (p *Program) authenticate(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"room": *config.Room})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/api/auth", bytes.NewReader(body))
	if nil != err {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if nil != err {
		return fmt.Errorf("unable to reach auth endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("auth failed (%d): %s", resp.StatusCode, failure.Error)
	}

	var success struct {
		Token    string        `json:"token"`
		Identity auth.Identity `json:"identity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&success); nil != err {
		return fmt.Errorf("unable to decode auth response: %w", err)
	}
	p.token = success.Token
	p.identity = success.Identity
	return nil
}

func (p *Program) wsURL() string {
	url := strings.Replace(p.serverURL, "http", "ws", 1)
	return url + "/ws?token=" + p.token
}

func (p *Program) connect(ctx context.Context) error {
	dial := func() error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.wsURL(), nil)
		if nil != err {
			return err
		}
		p.connMu.Lock()
		p.conn = conn
		p.connMu.Unlock()
		return nil
	}
	return backoff.Retry(dial, backoff.WithContext(backoff.NewExponentialBackOff(), ctx))
}

func (p *Program) send(m room.Message) error {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	if nil == p.conn {
		return errors.New("not connected")
	}
	return p.conn.WriteJSON(m)
}

// SendPatch implements store.Sender.
func (p *Program) SendPatch(patch game.Patch) error {
	return p.send(room.Message{Type: room.TypePatch, Patch: &patch})
}

// UpdatePresence implements engine.PresenceWriter.
func (p *Program) UpdatePresence(presence game.Presence) {
	if err := p.send(room.Message{Type: room.TypePresence, Presence: &presence}); nil != err {
		logLine("unable to send presence:", err)
	}
}

// readLoop pumps server messages into the local replica, reconnecting
// with exponential backoff when the connection drops.
func (p *Program) readLoop(ctx context.Context) {
	for {
		p.connMu.Lock()
		conn := p.conn
		p.connMu.Unlock()

		var m room.Message
		if err := conn.ReadJSON(&m); nil != err {
			if ctx.Err() != nil {
				return
			}
			logLine("connection lost, reconnecting:", err)
			if err := p.connect(ctx); nil != err {
				return
			}
			continue
		}
		p.handleMessage(m)
	}
}

func (p *Program) handleMessage(m room.Message) {
	switch m.Type {
	case room.TypeHello:
		if nil != m.State {
			p.store.Replace(*m.State)
		}
		p.othersMu.Lock()
		for _, other := range m.Others {
			p.others[other.Identity.ID] = other
		}
		p.othersMu.Unlock()
	case room.TypeState:
		if nil != m.State {
			p.store.Replace(*m.State)
		}
	case room.TypeJoin:
		if nil != m.Identity {
			p.othersMu.Lock()
			p.others[m.Identity.ID] = room.Participant{Identity: *m.Identity}
			p.othersMu.Unlock()
		}
	case room.TypeLeave:
		p.othersMu.Lock()
		delete(p.others, m.From)
		p.othersMu.Unlock()
	case room.TypePresence:
		if nil != m.Presence {
			p.othersMu.Lock()
			other := p.others[m.From]
			other.Presence = *m.Presence
			p.others[m.From] = other
			p.othersMu.Unlock()
		}
	case room.TypeChart:
		if nil != m.Chart {
			p.engine.SetChart(m.Chart)
			logLine("chart changed to", m.Chart.Name)
		}
	}
}

func pitchForRune(r rune) (uint8, bool) {
	i := strings.IndexRune(keyMap, r)
	if i < 0 {
		return 0, false
	}
	return uint8(basePitch + i), true
}

func (p *Program) press(pitch uint8) {
	p.engine.NoteOn(pitch)

	// Refresh or arm the auto-release for this pitch.
	p.releaseTimerMu.Lock()
	defer p.releaseTimerMu.Unlock()
	if t, ok := p.releaseTimers[pitch]; ok {
		t.Reset(releaseAfter)
		return
	}
	p.releaseTimers[pitch] = time.AfterFunc(releaseAfter, func() {
		p.engine.NoteOff(pitch)
		p.releaseTimerMu.Lock()
		delete(p.releaseTimers, pitch)
		p.releaseTimerMu.Unlock()
	})
}

func (p *Program) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go p.readLoop(ctx)
	go p.engine.Run(ctx)

	render := time.NewTicker(200 * time.Millisecond)
	defer render.Stop()

	fmt.Printf("Joined %q as %s. Enter starts a game, Esc quits.\n", *config.Room, p.identity.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-render.C:
			p.renderStatus()
		case key := <-p.keyChannel:
			if nil != key.Err {
				return key.Err
			}
			switch {
			case key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC:
				return nil
			case key.Key == keyboard.KeyEnter:
				p.scoreSaved = false
				p.setJudgement("")
				p.engine.StartGame()
			default:
				if pitch, ok := pitchForRune(key.Rune); ok {
					p.press(pitch)
				}
			}
		}
	}
}

func (p *Program) renderStatus() {
	s := p.store.Snapshot()
	myScore := s.Scores[p.identity.ID]

	if p.engine.GameOver() && !p.scoreSaved {
		p.scoreSaved = true
		high, beaten, err := p.engine.RecordHighScore()
		if nil != err {
			logLine("unable to record high score:", err)
		} else if beaten {
			fmt.Printf("\nGame over! New high score: %v\n", high)
		} else {
			fmt.Printf("\nGame over! Score %v (high score %v)\n", myScore, high)
		}
		return
	}

	p.othersMu.Lock()
	playerCount := len(p.others) + 1
	p.othersMu.Unlock()

	status := fmt.Sprintf("\r%s | score %6d  combo %3dx  health %3d  players %d  %-8s%s",
		p.engine.Chart().Name, myScore, s.Combo, s.Health, playerCount, p.lastJudgement(), p.upcoming(s))

	p.clip(&status)
	fmt.Print(status)
}

// judgement is written from the engine's tick goroutine and the key
// loop, and read by the render loop.
func (p *Program) setJudgement(name string) {
	p.judgementMu.Lock()
	p.judgement = name
	p.judgementMu.Unlock()
}

func (p *Program) lastJudgement() string {
	p.judgementMu.Lock()
	defer p.judgementMu.Unlock()
	return p.judgement
}

// logLine breaks out of the \r-anchored status line before logging,
// so background goroutines do not print over it.
func logLine(v ...interface{}) {
	fmt.Print("\n")
	log.Println(v...)
}

// upcoming names the next chart note falling within the fall window,
// with the key that plays it.
func (p *Program) upcoming(s game.State) string {
	if !s.IsPlaying {
		return ""
	}
	elapsed := time.Duration(time.Now().UnixMilli()-s.StartTime) * time.Millisecond
	for _, n := range p.engine.Chart().Notes {
		if n.Time < elapsed {
			continue
		}
		if n.Time-elapsed >= config.FallDuration {
			break
		}
		i := int(n.Pitch) - basePitch
		if i < 0 || i >= len(keyMap) {
			return ""
		}
		return fmt.Sprintf("next [%c] in %4dms", keyMap[i], (n.Time-elapsed).Milliseconds())
	}
	return ""
}

// clip truncates to the terminal width so the line never wraps.
func (p *Program) clip(status *string) {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); nil == err && len(*status) > width {
		*status = (*status)[:width]
	}
}
