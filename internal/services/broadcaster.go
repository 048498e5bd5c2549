package services

import (
	"context"
	"log"
	"strings"

	"taskdeck/internal/models"
)

// Broadcaster fans events out to local connections and, when Redis is
// configured, relays them to the other instances. Exclusion of the
// originating connection is purely local since connection IDs never leave
// their instance.
type Broadcaster struct {
	conns   *ConnectionManager
	pubsub  *PubSubService
	metrics *Metrics
}

// NewBroadcaster creates a broadcaster. pubsub and metrics may be nil.
func NewBroadcaster(conns *ConnectionManager, pubsub *PubSubService, metrics *Metrics) *Broadcaster {
	b := &Broadcaster{conns: conns, pubsub: pubsub, metrics: metrics}
	if pubsub != nil {
		pubsub.Subscribe("room:*", b.onRemoteRoomEvent)
		pubsub.Subscribe("user:*", b.onRemoteUserEvent)
		pubsub.Subscribe("presence:*", b.onRemoteUserEvent)
	}
	return b
}

// ToRoom delivers an event to every room subscriber except the originator.
func (b *Broadcaster) ToRoom(ctx context.Context, room string, evt models.ServerEvent, excludeConnID string) {
	sent := b.conns.Broadcast(room, evt, excludeConnID)
	if b.metrics != nil {
		b.metrics.RecordBroadcast(sent)
	}
	if b.pubsub != nil {
		if err := b.pubsub.PublishToRoom(ctx, room, evt); err != nil {
			log.Printf("⚠️ Failed to relay %s to %s: %v", evt.Event, room, err)
		}
	}
}

// ToUser delivers an event to all of a user's connections on every instance.
func (b *Broadcaster) ToUser(ctx context.Context, userID string, evt models.ServerEvent) {
	b.conns.SendToUser(userID, evt)
	if b.pubsub != nil {
		if err := b.pubsub.PublishToUser(ctx, userID, evt); err != nil {
			log.Printf("⚠️ Failed to relay %s to user %s: %v", evt.Event, userID, err)
		}
	}
}

// Presence announces a user's online/offline transition to everyone sharing
// a room with them, on this and other instances.
func (b *Broadcaster) Presence(ctx context.Context, userID string, evt models.ServerEvent) {
	b.deliverPresence(userID, evt)
	if b.pubsub != nil {
		if err := b.pubsub.PublishPresence(ctx, userID, evt); err != nil {
			log.Printf("⚠️ Failed to relay presence for %s: %v", userID, err)
		}
	}
}

func (b *Broadcaster) onRemoteRoomEvent(channel string, msg *PubSubMessage) {
	room := strings.TrimPrefix(channel, "room:")
	b.conns.Broadcast(room, msg.Event, "")
}

func (b *Broadcaster) onRemoteUserEvent(channel string, msg *PubSubMessage) {
	if msg.UserID == "" {
		return
	}
	if strings.HasPrefix(channel, "presence:") {
		b.deliverPresence(msg.UserID, msg.Event)
		return
	}
	b.conns.SendToUser(msg.UserID, msg.Event)
}

// deliverPresence sends a presence event to every local connection except
// the subject's own.
func (b *Broadcaster) deliverPresence(userID string, evt models.ServerEvent) {
	seen := make(map[string]bool)
	for _, conn := range b.conns.GetAll() {
		if conn.UserID == userID || seen[conn.ConnID] {
			continue
		}
		conn.SafeSend(evt)
		seen[conn.ConnID] = true
	}
}
