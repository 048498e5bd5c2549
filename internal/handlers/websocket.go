package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/policy"
	"taskdeck/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// presenceSetKey is the Redis set of user IDs online across all instances.
const presenceSetKey = "presence:online"

// WebSocketHandler owns the realtime gateway: one goroutine pair per
// connection, room membership driven by client join/leave events, presence
// fan-out on first-online and last-offline transitions.
type WebSocketHandler struct {
	connManager *services.ConnectionManager
	boards      *services.BoardService
	chat        *services.ChatService
	broadcaster *services.Broadcaster
	redis       *services.RedisService // optional, nil when Redis is disabled
	metrics     *services.Metrics

	pingInterval time.Duration
	readTimeout  time.Duration
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	connManager *services.ConnectionManager,
	boards *services.BoardService,
	chat *services.ChatService,
	broadcaster *services.Broadcaster,
	redis *services.RedisService,
	metrics *services.Metrics,
	pingInterval, readTimeout time.Duration,
) *WebSocketHandler {
	return &WebSocketHandler{
		connManager:  connManager,
		boards:       boards,
		chat:         chat,
		broadcaster:  broadcaster,
		redis:        redis,
		metrics:      metrics,
		pingInterval: pingInterval,
		readTimeout:  readTimeout,
	}
}

// Handle handles a new WebSocket connection
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	connID := uuid.New().String()
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		c.Close()
		return
	}
	clientIP, _ := c.Locals("client_ip").(string)

	done := make(chan struct{})

	userConn := &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		ClientIP:  clientIP,
		Conn:      c,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.ServerEvent, 100),
		StopChan:  make(chan bool, 1),
		// 10 events/sec sustained, bursts of 20. Typing indicators are the
		// chattiest legitimate traffic and fit comfortably.
		Limiter: rate.NewLimiter(rate.Limit(10), 20),
	}

	firstOnline := h.connManager.Add(userConn)
	if h.metrics != nil {
		h.metrics.RecordWebSocketConnect()
	}

	defer func() {
		close(done)
		lastOffline := h.connManager.Remove(connID)
		if h.metrics != nil {
			h.metrics.RecordWebSocketDisconnect()
		}
		if lastOffline {
			h.setPresence(userID, false)
		}
	}()

	c.SetReadDeadline(time.Now().Add(h.readTimeout))
	c.SetPongHandler(func(appData string) error {
		userConn.Touch()
		c.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(userConn, done)
	go h.writeLoop(userConn)

	userConn.SafeSend(models.ServerEvent{
		Event:   "connected",
		Payload: map[string]interface{}{"connId": connID, "userId": userID},
	})

	if firstOnline {
		h.setPresence(userID, true)
	}

	log.Printf("🔌 WebSocket connected: user=%s conn=%s", userID, connID)
	h.readLoop(userConn)
}

// pingLoop keeps the connection alive with periodic control pings.
func (h *WebSocketHandler) pingLoop(userConn *models.UserConnection, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			userConn.Mutex.Lock()
			err := userConn.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			userConn.Mutex.Unlock()
			if err != nil {
				log.Printf("⚠️ Ping failed for %s: %v", userConn.ConnID, err)
				return
			}
		}
	}
}

// writeLoop owns the socket for writes. All outbound events funnel through
// WriteChan so frames never interleave.
func (h *WebSocketHandler) writeLoop(userConn *models.UserConnection) {
	for {
		select {
		case evt, ok := <-userConn.WriteChan:
			if !ok {
				// Channel closed by Remove; nothing more to deliver.
				return
			}
			userConn.Mutex.Lock()
			err := userConn.Conn.WriteJSON(evt)
			userConn.Mutex.Unlock()
			if err != nil {
				log.Printf("⚠️ Write failed for %s: %v", userConn.ConnID, err)
				userConn.MarkClosed()
				return
			}
			if h.metrics != nil {
				h.metrics.RecordWebSocketMessage(evt.Event, "out")
			}
		case <-userConn.StopChan:
			return
		}
	}
}

// readLoop dispatches inbound client events until the connection drops.
func (h *WebSocketHandler) readLoop(userConn *models.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in readLoop: %v", r)
		}
	}()

	for {
		_, raw, err := userConn.Conn.ReadMessage()
		if err != nil {
			log.Printf("🔌 WebSocket disconnected: conn=%s (%v)", userConn.ConnID, err)
			return
		}

		userConn.Touch()
		userConn.Conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		var evt models.ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.sendError(userConn, "invalid_format", "Invalid message format")
			continue
		}

		if h.metrics != nil {
			h.metrics.RecordWebSocketMessage(evt.Event, "in")
		}

		// Heartbeats bypass the limiter so a throttled client does not
		// also get disconnected as stale.
		if evt.Event == "ping" {
			userConn.SafeSend(models.ServerEvent{Event: "pong"})
			continue
		}

		if !userConn.Limiter.Allow() {
			h.sendError(userConn, "rate_limited", "Too many events. Slow down.")
			continue
		}

		ctx := context.Background()

		switch evt.Event {
		case "join:board":
			h.handleJoinBoard(ctx, userConn, evt)
		case "leave:board":
			h.handleLeaveRoom(ctx, userConn, services.BoardRoom(evt.BoardID), "user:left-board",
				map[string]interface{}{"boardId": evt.BoardID, "userId": userConn.UserID})
		case "join:conversation":
			h.handleJoinConversation(ctx, userConn, evt)
		case "leave:conversation":
			h.handleLeaveRoom(ctx, userConn, services.ConversationRoom(evt.ConversationID), "user:left-conversation",
				map[string]interface{}{"conversationId": evt.ConversationID, "userId": userConn.UserID})
		case "send:message":
			h.handleSendMessage(ctx, userConn, evt)
		case "typing:start", "typing:stop":
			h.handleTyping(ctx, userConn, evt)
		case "message:read":
			h.handleMessageRead(ctx, userConn, evt)
		case "card:moved":
			h.handleCardMovedRelay(ctx, userConn, evt)
		case "card:updated":
			h.handleCardUpdatedRelay(ctx, userConn, evt)
		default:
			h.sendError(userConn, "unknown_event", "Unknown event: "+evt.Event)
		}
	}
}

func (h *WebSocketHandler) handleJoinBoard(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	if evt.BoardID == "" {
		h.sendError(userConn, "missing_board", "boardId is required")
		return
	}
	if _, err := h.boards.Authorize(ctx, evt.BoardID, userConn.UserID, policy.ActionViewBoard); err != nil {
		h.sendError(userConn, "forbidden", "You do not have access to this board")
		return
	}

	room := services.BoardRoom(evt.BoardID)
	h.connManager.Join(userConn.ConnID, room)

	userConn.SafeSend(models.ServerEvent{
		Event: "joined:board",
		Payload: map[string]interface{}{
			"boardId": evt.BoardID,
			"viewers": h.connManager.RoomMembers(room),
		},
	})
	h.broadcaster.ToRoom(ctx, room, models.ServerEvent{
		Event:   "user:joined-board",
		Payload: map[string]interface{}{"boardId": evt.BoardID, "userId": userConn.UserID},
	}, userConn.ConnID)
}

// handleLeaveRoom drops the room membership and tells the remaining members.
func (h *WebSocketHandler) handleLeaveRoom(ctx context.Context, userConn *models.UserConnection, room, event string, payload map[string]interface{}) {
	if !h.connManager.InRoom(userConn.ConnID, room) {
		return
	}
	h.connManager.Leave(userConn.ConnID, room)
	h.broadcaster.ToRoom(ctx, room, models.ServerEvent{Event: event, Payload: payload}, userConn.ConnID)
}

func (h *WebSocketHandler) handleJoinConversation(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	if evt.ConversationID == "" {
		h.sendError(userConn, "missing_conversation", "conversationId is required")
		return
	}
	if _, err := h.chat.GetConversation(ctx, userConn.UserID, evt.ConversationID); err != nil {
		h.sendError(userConn, "forbidden", "You are not a participant in this conversation")
		return
	}

	room := services.ConversationRoom(evt.ConversationID)
	h.connManager.Join(userConn.ConnID, room)

	userConn.SafeSend(models.ServerEvent{
		Event:   "joined:conversation",
		Payload: map[string]interface{}{"conversationId": evt.ConversationID},
	})
	h.broadcaster.ToRoom(ctx, room, models.ServerEvent{
		Event:   "user:joined-conversation",
		Payload: map[string]interface{}{"conversationId": evt.ConversationID, "userId": userConn.UserID},
	}, userConn.ConnID)
}

func (h *WebSocketHandler) handleSendMessage(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	if evt.ConversationID == "" {
		h.sendError(userConn, "missing_conversation", "conversationId is required")
		return
	}

	msg, err := h.chat.SendMessage(ctx, userConn.UserID, evt.ConversationID, models.SendMessageRequest{
		Content:   evt.Content,
		ReplyToID: evt.ReplyToID,
	})
	if err != nil {
		h.sendServiceError(userConn, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMessageSent()
	}

	// Sender gets an ack with the persisted message; everyone else in the
	// room gets the broadcast.
	userConn.SafeSend(models.ServerEvent{
		Event:   "message:sent",
		Payload: map[string]interface{}{"conversationId": evt.ConversationID, "message": msg},
	})
	h.broadcaster.ToRoom(ctx, services.ConversationRoom(evt.ConversationID), models.ServerEvent{
		Event:   "message:received",
		Payload: map[string]interface{}{"conversationId": evt.ConversationID, "message": msg},
	}, userConn.ConnID)
}

func (h *WebSocketHandler) handleTyping(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	room := services.ConversationRoom(evt.ConversationID)
	if evt.ConversationID == "" || !h.connManager.InRoom(userConn.ConnID, room) {
		return
	}

	out := "typing:user-started"
	if evt.Event == "typing:stop" {
		out = "typing:user-stopped"
	}

	// Transient, never persisted.
	h.broadcaster.ToRoom(ctx, room, models.ServerEvent{
		Event:   out,
		Payload: map[string]interface{}{"conversationId": evt.ConversationID, "userId": userConn.UserID},
	}, userConn.ConnID)
}

func (h *WebSocketHandler) handleMessageRead(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	if evt.ConversationID == "" || evt.MessageID == "" {
		h.sendError(userConn, "missing_fields", "conversationId and messageId are required")
		return
	}

	if err := h.chat.MarkRead(ctx, userConn.UserID, evt.ConversationID, evt.MessageID); err != nil {
		h.sendServiceError(userConn, err)
		return
	}

	h.broadcaster.ToRoom(ctx, services.ConversationRoom(evt.ConversationID), models.ServerEvent{
		Event: "message:read-receipt",
		Payload: map[string]interface{}{
			"conversationId": evt.ConversationID,
			"messageId":      evt.MessageID,
			"userId":         userConn.UserID,
		},
	}, userConn.ConnID)
}

// handleCardMovedRelay relays a move notification from a client that already
// committed the move over REST. The database is not touched here; membership
// in the board room is the authorization check.
func (h *WebSocketHandler) handleCardMovedRelay(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	room := services.BoardRoom(evt.BoardID)
	if evt.BoardID == "" || evt.CardID == "" || !h.connManager.InRoom(userConn.ConnID, room) {
		return
	}

	h.broadcaster.ToRoom(ctx, room, models.ServerEvent{
		Event: "card:moved",
		Payload: map[string]interface{}{
			"boardId":    evt.BoardID,
			"cardId":     evt.CardID,
			"fromListId": evt.FromListID,
			"toListId":   evt.ToListID,
			"newOrder":   evt.NewOrder,
			"userId":     userConn.UserID,
		},
	}, userConn.ConnID)
}

func (h *WebSocketHandler) handleCardUpdatedRelay(ctx context.Context, userConn *models.UserConnection, evt models.ClientEvent) {
	room := services.BoardRoom(evt.BoardID)
	if evt.BoardID == "" || evt.CardID == "" || !h.connManager.InRoom(userConn.ConnID, room) {
		return
	}

	h.broadcaster.ToRoom(ctx, room, models.ServerEvent{
		Event: "card:updated",
		Payload: map[string]interface{}{
			"boardId": evt.BoardID,
			"cardId":  evt.CardID,
			"changes": evt.Changes,
			"userId":  userConn.UserID,
		},
	}, userConn.ConnID)
}

// Online returns the users currently online. With Redis it covers every
// instance via the shared presence set; without it, just this one.
// GET /api/presence/online
func (h *WebSocketHandler) Online(c *fiber.Ctx) error {
	if h.redis != nil {
		users, err := h.redis.SMembers(c.Context(), presenceSetKey)
		if err == nil {
			return c.JSON(fiber.Map{"users": users})
		}
		log.Printf("⚠️ Failed to read presence set, falling back to local: %v", err)
	}
	return c.JSON(fiber.Map{"users": h.connManager.OnlineUsers(nil)})
}

// setPresence announces an online/offline transition and keeps the shared
// Redis presence set in sync when Redis is configured.
func (h *WebSocketHandler) setPresence(userID string, online bool) {
	ctx := context.Background()
	event := "user:offline"
	if online {
		event = "user:online"
	}

	if h.redis != nil {
		var err error
		if online {
			_, err = h.redis.SAdd(ctx, presenceSetKey, userID)
		} else {
			_, err = h.redis.SRem(ctx, presenceSetKey, userID)
		}
		if err != nil {
			log.Printf("⚠️ Failed to update presence set: %v", err)
		}
	}

	h.broadcaster.Presence(ctx, userID, models.ServerEvent{
		Event:   event,
		Payload: map[string]interface{}{"userId": userID},
	})
}

func (h *WebSocketHandler) sendError(userConn *models.UserConnection, code, message string) {
	userConn.SafeSend(models.ServerEvent{
		Event:        "error",
		ErrorCode:    code,
		ErrorMessage: message,
	})
}

// sendServiceError maps service sentinels onto websocket error events. The
// connection always survives; errors go only to the offending client.
func (h *WebSocketHandler) sendServiceError(userConn *models.UserConnection, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.sendError(userConn, "not_found", "Resource not found")
	case errors.Is(err, services.ErrForbidden):
		h.sendError(userConn, "forbidden", "You do not have permission to do that")
	case errors.Is(err, services.ErrInvalidOperation):
		h.sendError(userConn, "invalid_operation", "Invalid operation")
	case errors.Is(err, services.ErrLimitExceeded):
		h.sendError(userConn, "limit_exceeded", "Plan limit exceeded")
	default:
		h.sendError(userConn, "internal_error", "Something went wrong")
	}
}
