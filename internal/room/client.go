package room

import (
	"encoding/json"
	"log"
	"time"

	"github.com/aspagon17/piano-app/internal/auth"
	"github.com/aspagon17/piano-app/internal/game"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
	maxMessage = 1 << 20
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	identity auth.Identity
	presence game.Presence
}

func NewClient(hub *Hub, conn *websocket.Conn, identity auth.Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		identity: identity,
		presence: game.NewPresence("piano"),
	}
}

func (c *Client) sendJSON(m Message) {
	b, err := json.Marshal(m)
	if nil != err {
		log.Println("unable to marshal message:", err)
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var m Message
		if err := c.conn.ReadJSON(&m); nil != err {
			return
		}
		m.From = c.identity.ID
		c.hub.Input <- inbound{client: c, message: m}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); nil != err {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); nil != err {
				return
			}
		}
	}
}
