package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"taskdeck/internal/models"

	"github.com/redis/go-redis/v9"
)

// PubSubService relays room broadcasts and presence changes between
// instances over Redis pub/sub. A single instance works without it.
type PubSubService struct {
	redis      *RedisService
	pubsub     *redis.PubSub
	handlers   map[string][]MessageHandler
	mu         sync.RWMutex
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

// MessageHandler is a callback for handling pub/sub messages
type MessageHandler func(channel string, message *PubSubMessage)

// PubSubMessage is the wire format between instances.
type PubSubMessage struct {
	Room       string             `json:"room,omitempty"`   // Target room for broadcasts
	UserID     string             `json:"userId,omitempty"` // Target user for direct sends
	InstanceID string             `json:"instanceId"`       // Source instance ID
	Event      models.ServerEvent `json:"event"`
}

// NewPubSubService creates a new pub/sub service
func NewPubSubService(redisService *RedisService, instanceID string) *PubSubService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PubSubService{
		redis:      redisService,
		handlers:   make(map[string][]MessageHandler),
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Subscribe registers a handler for a channel pattern.
func (s *PubSubService) Subscribe(pattern string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[pattern] = append(s.handlers[pattern], handler)
	log.Printf("📡 [PUBSUB] Subscribed to pattern: %s", pattern)
}

// Start begins listening for pub/sub messages
func (s *PubSubService) Start() error {
	client := s.redis.Client()

	s.pubsub = client.PSubscribe(s.ctx,
		"room:*",     // Room broadcasts (boards and conversations)
		"user:*",     // Direct-to-user events
		"presence:*", // Online/offline announcements
	)

	// Wait for subscription confirmation
	_, err := s.pubsub.Receive(s.ctx)
	if err != nil {
		return err
	}

	go s.processMessages()

	log.Printf("✅ [PUBSUB] Started listening for messages (instance: %s)", s.instanceID)
	return nil
}

// processMessages handles incoming pub/sub messages
func (s *PubSubService) processMessages() {
	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

// handleMessage processes a single pub/sub message
func (s *PubSubService) handleMessage(msg *redis.Message) {
	var message PubSubMessage
	if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to unmarshal message: %v", err)
		return
	}

	// Skip messages from this instance (avoid loops)
	if message.InstanceID == s.instanceID {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for pattern, handlers := range s.handlers {
		if matchPattern(pattern, msg.Channel) {
			for _, handler := range handlers {
				go handler(msg.Channel, &message)
			}
		}
	}
}

// PublishToRoom relays a room broadcast to the other instances.
func (s *PubSubService) PublishToRoom(ctx context.Context, room string, evt models.ServerEvent) error {
	message := &PubSubMessage{
		Room:       room,
		InstanceID: s.instanceID,
		Event:      evt,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.redis.Client().Publish(ctx, "room:"+room, data).Err()
}

// PublishToUser relays a direct-to-user event to the other instances.
func (s *PubSubService) PublishToUser(ctx context.Context, userID string, evt models.ServerEvent) error {
	message := &PubSubMessage{
		UserID:     userID,
		InstanceID: s.instanceID,
		Event:      evt,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.redis.Client().Publish(ctx, "user:"+userID, data).Err()
}

// PublishPresence announces a user coming online or going offline.
func (s *PubSubService) PublishPresence(ctx context.Context, userID string, evt models.ServerEvent) error {
	message := &PubSubMessage{
		UserID:     userID,
		InstanceID: s.instanceID,
		Event:      evt,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.redis.Client().Publish(ctx, "presence:"+userID, data).Err()
}

// Stop stops the pub/sub service
func (s *PubSubService) Stop() error {
	s.cancel()
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

// matchPattern checks if a channel matches a pattern (simplified glob)
func matchPattern(pattern, channel string) bool {
	if pattern == channel {
		return true
	}

	patternParts := splitChannel(pattern)
	channelParts := splitChannel(channel)

	for i, part := range patternParts {
		// A trailing "*" swallows the rest, room names contain ":" themselves.
		if part == "*" && i == len(patternParts)-1 {
			return len(channelParts) > i
		}
		if i >= len(channelParts) {
			return false
		}
		if part != "*" && part != channelParts[i] {
			return false
		}
	}

	return len(patternParts) == len(channelParts)
}

// splitChannel splits a channel name by ":"
func splitChannel(channel string) []string {
	var parts []string
	current := ""
	for _, c := range channel {
		if c == ':' {
			parts = append(parts, current)
			current = ""
		} else {
			current += string(c)
		}
	}
	parts = append(parts, current)
	return parts
}
