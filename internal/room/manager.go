package room

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Manager creates rooms on first use and keeps them alive for the
// lifetime of the process. Rooms are never deleted, only overwritten.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Hub

	ctx context.Context
	rdb *redis.Client
}

func NewManager(ctx context.Context, rdb *redis.Client) *Manager {
	return &Manager{rooms: make(map[string]*Hub), ctx: ctx, rdb: rdb}
}

func (m *Manager) Get(name string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.rooms[name]; ok {
		return hub
	}
	hub := NewHub(name)
	if nil != m.rdb {
		bridge := NewRedisBridge(m.ctx, m.rdb, hub)
		hub.SetBridge(bridge)
		go bridge.Run()
	}
	go hub.Run()
	m.rooms[name] = hub
	return hub
}
