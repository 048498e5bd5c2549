package models

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"
)

// ClientEvent is a message from a connected client. Event selects the
// operation; the remaining fields are populated per event type.
type ClientEvent struct {
	Event string `json:"event"`

	// Room targeting
	BoardID        string `json:"boardId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`

	// send:message
	Content   string `json:"content,omitempty"`
	ReplyToID string `json:"replyToId,omitempty"`

	// message:read
	MessageID string `json:"messageId,omitempty"`

	// card:moved / card:updated passthrough
	CardID     string                 `json:"cardId,omitempty"`
	FromListID string                 `json:"fromListId,omitempty"`
	ToListID   string                 `json:"toListId,omitempty"`
	NewOrder   int                    `json:"newOrder,omitempty"`
	Changes    map[string]interface{} `json:"changes,omitempty"`
}

// ServerEvent is a message sent to a client. Errors are delivered only to the
// originating connection and never disconnect it.
type ServerEvent struct {
	Event        string                 `json:"event"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	ErrorCode    string                 `json:"code,omitempty"`
	ErrorMessage string                 `json:"message,omitempty"`
}

// UserConnection is a single authenticated websocket connection. A user with
// several tabs has several independent connections. Writes go through
// WriteChan so the write loop owns the socket; delivery order per connection
// follows send order.
type UserConnection struct {
	ConnID    string
	UserID    string
	UserName  string
	ClientIP  string
	Conn      *websocket.Conn
	CreatedAt time.Time

	WriteChan chan ServerEvent
	StopChan  chan bool

	// Throttles inbound events (typing spam, runaway clients).
	Limiter *rate.Limiter

	Mutex    sync.Mutex
	closed   bool
	lastSeen time.Time
}

// SafeSend queues an event, returning false if the connection is closed. A
// full buffer drops the event rather than blocking the broadcaster; delivery
// is best-effort and clients reconcile via the REST layer.
func (uc *UserConnection) SafeSend(evt ServerEvent) bool {
	uc.Mutex.Lock()
	if uc.closed {
		uc.Mutex.Unlock()
		return false
	}
	uc.Mutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			// Send on closed channel: mark and move on.
			uc.MarkClosed()
		}
	}()

	select {
	case uc.WriteChan <- evt:
		return true
	default:
		return false
	}
}

// MarkClosed marks the connection as closed.
func (uc *UserConnection) MarkClosed() {
	uc.Mutex.Lock()
	uc.closed = true
	uc.Mutex.Unlock()
}

// IsClosed reports whether the connection has been marked closed.
func (uc *UserConnection) IsClosed() bool {
	uc.Mutex.Lock()
	defer uc.Mutex.Unlock()
	return uc.closed
}

// Touch records read activity for the stale-connection sweep.
func (uc *UserConnection) Touch() {
	uc.Mutex.Lock()
	uc.lastSeen = time.Now()
	uc.Mutex.Unlock()
}

// LastSeen returns the time of the last read activity.
func (uc *UserConnection) LastSeen() time.Time {
	uc.Mutex.Lock()
	defer uc.Mutex.Unlock()
	if uc.lastSeen.IsZero() {
		return uc.CreatedAt
	}
	return uc.lastSeen
}
