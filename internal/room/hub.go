// Package room hosts the websocket rooms: one hub per room owns the
// authoritative game state, tracks presences, and fans writes out to
// every connected participant.
package room

import (
	"encoding/json"
	"log"

	"github.com/aspagon17/piano-app/internal/game"
	"github.com/aspagon17/piano-app/internal/store"
)

// Bridge relays patches between server instances hosting the same
// room. May be nil on single-instance deployments.
type Bridge interface {
	Publish(p game.Patch)
}

type inbound struct {
	client  *Client
	message Message
}

type Hub struct {
	Name  string
	State *store.MemoryStore

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan []byte
	Input      chan inbound
	Remote     chan game.Patch

	bridge  Bridge
	clients map[*Client]bool
}

func NewHub(name string) *Hub {
	return &Hub{
		Name:       name,
		State:      store.NewMemoryStore(),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan []byte, 64),
		Input:      make(chan inbound, 64),
		Remote:     make(chan game.Patch, 64),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) SetBridge(b Bridge) { h.bridge = b }

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.Register:
			h.clients[c] = true
			c.sendJSON(Message{
				Type:     TypeHello,
				Identity: &c.identity,
				State:    h.snapshotPtr(),
				Others:   h.participants(c),
			})
			h.broadcastExcept(c, Message{Type: TypeJoin, From: c.identity.ID, Identity: &c.identity})
		case c := <-h.Unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.broadcastExcept(nil, Message{Type: TypeLeave, From: c.identity.ID})
			}
		case in := <-h.Input:
			h.handle(in)
		case p := <-h.Remote:
			// A patch applied on another server instance.
			h.State.Merge(p)
			h.broadcastExcept(nil, Message{Type: TypeState, State: h.snapshotPtr()})
		case msg := <-h.Broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

func (h *Hub) handle(in inbound) {
	switch in.message.Type {
	case TypePatch:
		if nil == in.message.Patch {
			return
		}
		// Patches apply in arrival order; shared fields are
		// last-writer-wins, score entries merge per key.
		h.State.Merge(*in.message.Patch)
		h.broadcastExcept(nil, Message{Type: TypeState, State: h.snapshotPtr()})
		if nil != h.bridge {
			h.bridge.Publish(*in.message.Patch)
		}
	case TypePresence:
		if nil == in.message.Presence {
			return
		}
		in.client.presence = *in.message.Presence
		h.broadcastExcept(in.client, Message{
			Type:     TypePresence,
			From:     in.client.identity.ID,
			Presence: in.message.Presence,
		})
	default:
		log.Println("dropping message of unknown type:", in.message.Type)
	}
}

// BroadcastChart pushes a newly uploaded chart to the whole room.
func (h *Hub) BroadcastChart(c *game.Chart) {
	b, err := json.Marshal(Message{Type: TypeChart, Chart: c})
	if nil != err {
		log.Println("unable to marshal chart:", err)
		return
	}
	h.Broadcast <- b
}

func (h *Hub) snapshotPtr() *game.State {
	s := h.State.Snapshot()
	return &s
}

func (h *Hub) participants(except *Client) []Participant {
	others := []Participant{}
	for c := range h.clients {
		if c == except {
			continue
		}
		others = append(others, Participant{Identity: c.identity, Presence: c.presence})
	}
	return others
}

func (h *Hub) broadcastExcept(except *Client, m Message) {
	b, err := json.Marshal(m)
	if nil != err {
		log.Println("unable to marshal message:", err)
		return
	}
	for c := range h.clients {
		if c == except {
			continue
		}
		select {
		case c.send <- b:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}
