package store

import (
	"sync"

	"github.com/aspagon17/piano-app/internal/game"
)

// MemoryStore is the authoritative in-process implementation, used by
// the server's rooms and as the engine's test double.
type MemoryStore struct {
	mu    sync.Mutex
	state game.State

	subMu   sync.Mutex
	subs    map[int]func(game.State)
	nextSub int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: game.NewState(), subs: map[int]func(game.State){}}
}

func (m *MemoryStore) Snapshot() game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *MemoryStore) Update(fn func(*game.State)) {
	m.mu.Lock()
	fn(&m.state)
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notify(snapshot)
}

// Merge applies a remote patch as one write.
func (m *MemoryStore) Merge(p game.Patch) game.State {
	m.mu.Lock()
	p.Apply(&m.state)
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notify(snapshot)
	return snapshot
}

func (m *MemoryStore) Subscribe(fn func(game.State)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *MemoryStore) notify(s game.State) {
	m.subMu.Lock()
	subs := make([]func(game.State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
