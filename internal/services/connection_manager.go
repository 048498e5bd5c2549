package services

import (
	"log"
	"sync"
	"time"

	"taskdeck/internal/models"
)

// Room name helpers. Board and conversation rooms share one namespace, the
// prefix keeps them apart.
func BoardRoom(boardID string) string       { return "board:" + boardID }
func ConversationRoom(convID string) string { return "conversation:" + convID }

// ConnectionManager tracks active WebSocket connections, their room
// memberships and per-user presence. All fan-out goes through it.
type ConnectionManager struct {
	connections map[string]*models.UserConnection // connID -> connection
	rooms       map[string]map[string]bool        // room -> set of connIDs
	roomsByConn map[string]map[string]bool        // connID -> set of rooms
	userConns   map[string]map[string]bool        // userID -> set of connIDs
	mutex       sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*models.UserConnection),
		rooms:       make(map[string]map[string]bool),
		roomsByConn: make(map[string]map[string]bool),
		userConns:   make(map[string]map[string]bool),
	}
}

// Add registers a connection. Returns true if this is the user's first open
// connection, meaning they just came online.
func (cm *ConnectionManager) Add(conn *models.UserConnection) bool {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.connections[conn.ConnID] = conn
	cm.roomsByConn[conn.ConnID] = make(map[string]bool)

	first := len(cm.userConns[conn.UserID]) == 0
	if cm.userConns[conn.UserID] == nil {
		cm.userConns[conn.UserID] = make(map[string]bool)
	}
	cm.userConns[conn.UserID][conn.ConnID] = true

	log.Printf("✅ Connection added: %s user=%s (Total: %d)", conn.ConnID, conn.UserID, len(cm.connections))
	return first
}

// Remove unregisters a connection and leaves all its rooms. Returns true if
// the user has no connections left, meaning they went offline.
func (cm *ConnectionManager) Remove(connID string) bool {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	conn, exists := cm.connections[connID]
	if !exists {
		return false
	}

	conn.MarkClosed()
	close(conn.WriteChan)
	close(conn.StopChan)

	for room := range cm.roomsByConn[connID] {
		delete(cm.rooms[room], connID)
		if len(cm.rooms[room]) == 0 {
			delete(cm.rooms, room)
		}
	}
	delete(cm.roomsByConn, connID)
	delete(cm.connections, connID)

	delete(cm.userConns[conn.UserID], connID)
	last := len(cm.userConns[conn.UserID]) == 0
	if last {
		delete(cm.userConns, conn.UserID)
	}

	log.Printf("❌ Connection removed: %s user=%s (Total: %d)", connID, conn.UserID, len(cm.connections))
	return last
}

// Get retrieves a connection by ID
func (cm *ConnectionManager) Get(connID string) (*models.UserConnection, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	conn, exists := cm.connections[connID]
	return conn, exists
}

// Join subscribes a connection to a room.
func (cm *ConnectionManager) Join(connID, room string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, exists := cm.connections[connID]; !exists {
		return
	}
	if cm.rooms[room] == nil {
		cm.rooms[room] = make(map[string]bool)
	}
	cm.rooms[room][connID] = true
	cm.roomsByConn[connID][room] = true
}

// Leave unsubscribes a connection from a room.
func (cm *ConnectionManager) Leave(connID, room string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	delete(cm.rooms[room], connID)
	if len(cm.rooms[room]) == 0 {
		delete(cm.rooms, room)
	}
	if cm.roomsByConn[connID] != nil {
		delete(cm.roomsByConn[connID], room)
	}
}

// InRoom reports whether the connection is subscribed to the room.
func (cm *ConnectionManager) InRoom(connID, room string) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.rooms[room][connID]
}

// Broadcast sends an event to every connection in a room except the
// originator. Each subscribed connection receives the event at most once;
// delivery is best-effort (slow consumers drop).
func (cm *ConnectionManager) Broadcast(room string, evt models.ServerEvent, excludeConnID string) int {
	cm.mutex.RLock()
	targets := make([]*models.UserConnection, 0, len(cm.rooms[room]))
	for connID := range cm.rooms[room] {
		if connID == excludeConnID {
			continue
		}
		if conn, ok := cm.connections[connID]; ok {
			targets = append(targets, conn)
		}
	}
	cm.mutex.RUnlock()

	sent := 0
	for _, conn := range targets {
		if conn.SafeSend(evt) {
			sent++
		}
	}
	return sent
}

// SendToUser sends an event to all of a user's connections.
func (cm *ConnectionManager) SendToUser(userID string, evt models.ServerEvent) int {
	cm.mutex.RLock()
	targets := make([]*models.UserConnection, 0, len(cm.userConns[userID]))
	for connID := range cm.userConns[userID] {
		if conn, ok := cm.connections[connID]; ok {
			targets = append(targets, conn)
		}
	}
	cm.mutex.RUnlock()

	sent := 0
	for _, conn := range targets {
		if conn.SafeSend(evt) {
			sent++
		}
	}
	return sent
}

// IsOnline reports whether the user has at least one open connection.
func (cm *ConnectionManager) IsOnline(userID string) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.userConns[userID]) > 0
}

// OnlineUsers returns the set of user IDs with open connections, filtered to
// the given candidates. Pass nil for all online users.
func (cm *ConnectionManager) OnlineUsers(candidates []string) []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if candidates == nil {
		users := make([]string, 0, len(cm.userConns))
		for userID := range cm.userConns {
			users = append(users, userID)
		}
		return users
	}

	var online []string
	for _, userID := range candidates {
		if len(cm.userConns[userID]) > 0 {
			online = append(online, userID)
		}
	}
	return online
}

// RoomMembers returns the distinct user IDs currently in a room.
func (cm *ConnectionManager) RoomMembers(room string) []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	seen := make(map[string]bool)
	var users []string
	for connID := range cm.rooms[room] {
		if conn, ok := cm.connections[connID]; ok && !seen[conn.UserID] {
			seen[conn.UserID] = true
			users = append(users, conn.UserID)
		}
	}
	return users
}

// Count returns the number of active connections
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections)
}

// GetAll returns all active connections
func (cm *ConnectionManager) GetAll() []*models.UserConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	conns := make([]*models.UserConnection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		conns = append(conns, conn)
	}
	return conns
}

// Stale returns connections with no read activity since the cutoff. The
// sweep job closes them.
func (cm *ConnectionManager) Stale(cutoff time.Time) []*models.UserConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var stale []*models.UserConnection
	for _, conn := range cm.connections {
		if conn.LastSeen().Before(cutoff) {
			stale = append(stale, conn)
		}
	}
	return stale
}
