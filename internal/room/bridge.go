package room

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aspagon17/piano-app/internal/game"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBridge relays room patches through a redis channel so several
// server instances can host the same room. Messages are tagged with an
// origin id to keep an instance from replaying its own writes.
type RedisBridge struct {
	ctx    context.Context
	rdb    *redis.Client
	hub    *Hub
	origin string
}

type bridgeEnvelope struct {
	Origin string     `json:"origin"`
	Patch  game.Patch `json:"patch"`
}

func NewRedisBridge(ctx context.Context, rdb *redis.Client, hub *Hub) *RedisBridge {
	return &RedisBridge{ctx: ctx, rdb: rdb, hub: hub, origin: uuid.NewString()}
}

func (b *RedisBridge) channel() string {
	return "piano:room:" + b.hub.Name
}

func (b *RedisBridge) Publish(p game.Patch) {
	payload, err := json.Marshal(bridgeEnvelope{Origin: b.origin, Patch: p})
	if nil != err {
		log.Println("unable to marshal bridge envelope:", err)
		return
	}
	if err := b.rdb.Publish(b.ctx, b.channel(), payload).Err(); nil != err {
		log.Println("unable to publish room patch:", err)
	}
}

func (b *RedisBridge) Run() {
	pubsub := b.rdb.Subscribe(b.ctx, b.channel())
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env bridgeEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); nil != err {
			log.Println("unable to unmarshal bridge envelope:", err)
			continue
		}
		if env.Origin == b.origin {
			continue
		}
		b.hub.Remote <- env.Patch
	}
}
