package store

import (
	"log"
	"sync"

	"github.com/aspagon17/piano-app/internal/game"
)

// Sender delivers a state patch to the room server. Writes are
// fire-and-forget; the transport's own reconnect logic is trusted.
type Sender interface {
	SendPatch(p game.Patch) error
}

// RemoteStore is the client-side replica of a room's state. Update
// mutates the local copy immediately and ships the resulting patch;
// broadcasts from the server replace the replica. Concurrent writers
// to the same shared field race last-writer-wins, which is accepted.
type RemoteStore struct {
	sender Sender

	mu    sync.Mutex
	state game.State

	subMu   sync.Mutex
	subs    map[int]func(game.State)
	nextSub int
}

func NewRemoteStore(sender Sender) *RemoteStore {
	return &RemoteStore{
		sender: sender,
		state:  game.NewState(),
		subs:   map[int]func(game.State){},
	}
}

func (r *RemoteStore) Snapshot() game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

func (r *RemoteStore) Update(fn func(*game.State)) {
	r.mu.Lock()
	before := r.state.Clone()
	fn(&r.state)
	after := r.state.Clone()
	r.mu.Unlock()

	patch := game.Diff(before, after)
	if !patch.Empty() {
		if err := r.sender.SendPatch(patch); nil != err {
			log.Println("unable to send state patch:", err)
		}
	}
	r.notify(after)
}

// Replace installs a state broadcast by the server.
func (r *RemoteStore) Replace(s game.State) {
	r.mu.Lock()
	r.state = s.Clone()
	r.mu.Unlock()
	r.notify(s)
}

func (r *RemoteStore) Subscribe(fn func(game.State)) func() {
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *RemoteStore) notify(s game.State) {
	r.subMu.Lock()
	subs := make([]func(game.State), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
