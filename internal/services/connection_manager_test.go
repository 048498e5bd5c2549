package services

import (
	"testing"
	"time"

	"taskdeck/internal/models"
)

func newTestConn(connID, userID string) *models.UserConnection {
	return &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.ServerEvent, 10),
		StopChan:  make(chan bool, 1),
	}
}

func TestAddRemovePresenceTransitions(t *testing.T) {
	cm := NewConnectionManager()

	tab1 := newTestConn("c1", "u1")
	tab2 := newTestConn("c2", "u1")

	if !cm.Add(tab1) {
		t.Error("First connection should report first-online")
	}
	if cm.Add(tab2) {
		t.Error("Second tab should not report first-online")
	}
	if !cm.IsOnline("u1") {
		t.Error("User should be online")
	}

	if cm.Remove("c1") {
		t.Error("Removing one of two tabs should not report last-offline")
	}
	if !cm.Remove("c2") {
		t.Error("Removing the final tab should report last-offline")
	}
	if cm.IsOnline("u1") {
		t.Error("User should be offline")
	}
}

func TestBroadcastExcludesOriginator(t *testing.T) {
	cm := NewConnectionManager()

	origin := newTestConn("c1", "u1")
	peer := newTestConn("c2", "u2")
	outsider := newTestConn("c3", "u3")
	cm.Add(origin)
	cm.Add(peer)
	cm.Add(outsider)

	room := BoardRoom("b1")
	cm.Join("c1", room)
	cm.Join("c2", room)

	sent := cm.Broadcast(room, models.ServerEvent{Event: "card:moved"}, "c1")
	if sent != 1 {
		t.Errorf("Expected exactly 1 recipient, got %d", sent)
	}

	select {
	case evt := <-peer.WriteChan:
		if evt.Event != "card:moved" {
			t.Errorf("Expected card:moved, got %s", evt.Event)
		}
	default:
		t.Error("Peer in room should have received the event")
	}

	select {
	case <-origin.WriteChan:
		t.Error("Originator must not receive its own broadcast")
	default:
	}
	select {
	case <-outsider.WriteChan:
		t.Error("Connection outside the room must not receive the event")
	default:
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	cm := NewConnectionManager()
	conn := newTestConn("c1", "u1")
	cm.Add(conn)

	room := ConversationRoom("conv1")
	cm.Join("c1", room)
	cm.Leave("c1", room)

	if cm.InRoom("c1", room) {
		t.Error("Connection should have left the room")
	}
	if sent := cm.Broadcast(room, models.ServerEvent{Event: "message:received"}, ""); sent != 0 {
		t.Errorf("Expected 0 recipients after leave, got %d", sent)
	}
}

func TestSendToUserReachesAllTabs(t *testing.T) {
	cm := NewConnectionManager()
	tab1 := newTestConn("c1", "u1")
	tab2 := newTestConn("c2", "u1")
	cm.Add(tab1)
	cm.Add(tab2)

	if sent := cm.SendToUser("u1", models.ServerEvent{Event: "user:online"}); sent != 2 {
		t.Errorf("Expected 2 deliveries, got %d", sent)
	}
}

func TestRoomMembersDistinctUsers(t *testing.T) {
	cm := NewConnectionManager()
	cm.Add(newTestConn("c1", "u1"))
	cm.Add(newTestConn("c2", "u1"))
	cm.Add(newTestConn("c3", "u2"))

	room := BoardRoom("b1")
	cm.Join("c1", room)
	cm.Join("c2", room)
	cm.Join("c3", room)

	members := cm.RoomMembers(room)
	if len(members) != 2 {
		t.Errorf("Expected 2 distinct users, got %v", members)
	}
}

func TestStale(t *testing.T) {
	cm := NewConnectionManager()
	old := newTestConn("c1", "u1")
	old.CreatedAt = time.Now().Add(-10 * time.Minute)
	fresh := newTestConn("c2", "u2")
	fresh.Touch()
	cm.Add(old)
	cm.Add(fresh)

	stale := cm.Stale(time.Now().Add(-5 * time.Minute))
	if len(stale) != 1 || stale[0].ConnID != "c1" {
		t.Errorf("Expected only c1 stale, got %d", len(stale))
	}
}

func TestRemoveClosesChannels(t *testing.T) {
	cm := NewConnectionManager()
	conn := newTestConn("c1", "u1")
	cm.Add(conn)
	cm.Remove("c1")

	if !conn.IsClosed() {
		t.Error("Connection should be marked closed after Remove")
	}

	// Both channels must read as closed so the write loop terminates instead
	// of draining zero-value events.
	if _, ok := <-conn.WriteChan; ok {
		t.Error("WriteChan should be closed after Remove")
	}
	if _, ok := <-conn.StopChan; ok {
		t.Error("StopChan should be closed after Remove")
	}

	if conn.SafeSend(models.ServerEvent{Event: "user:online"}) {
		t.Error("SafeSend should report failure on a removed connection")
	}
}
