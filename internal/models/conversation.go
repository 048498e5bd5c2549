package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationType distinguishes the three conversation shapes.
type ConversationType string

const (
	ConversationDirect     ConversationType = "DIRECT"
	ConversationGroup      ConversationType = "GROUP"
	ConversationCardThread ConversationType = "CARD_THREAD"
)

// Conversation is a chat room scoped to an organization. CARD_THREAD
// conversations additionally reference the card they discuss.
type Conversation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID string             `bson:"organizationId" json:"organizationId"`
	Type           ConversationType   `bson:"type" json:"type"`
	Title          string             `bson:"title,omitempty" json:"title,omitempty"`
	CardID         string             `bson:"cardId,omitempty" json:"cardId,omitempty"`
	Participants   []Participant      `bson:"participants" json:"participants"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Participant is a conversation member. Role is "admin" for the creator,
// "member" otherwise.
type Participant struct {
	UserID   string    `bson:"userId" json:"userId"`
	Role     string    `bson:"role" json:"role"`
	JoinedAt time.Time `bson:"joinedAt" json:"joinedAt"`
}

// HasParticipant reports whether userID is a current participant.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Message belongs to exactly one conversation. ReplyToID references another
// message in the same conversation when set.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversationId" json:"conversationId"`
	SenderID       string             `bson:"senderId" json:"senderId"`
	Content        string             `bson:"content" json:"content"`
	ReplyToID      string             `bson:"replyToId,omitempty" json:"replyToId,omitempty"`
	ReadBy         []string           `bson:"readBy,omitempty" json:"readBy,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// CreateConversationRequest is the body for POST /api/chat/conversations.
type CreateConversationRequest struct {
	OrganizationID string           `json:"organizationId"`
	Type           ConversationType `json:"type"`
	Title          string           `json:"title,omitempty"`
	CardID         string           `json:"cardId,omitempty"`
	ParticipantIDs []string         `json:"participantIds"`
}

// SendMessageRequest is the body for POST /api/chat/conversations/:id/messages
// and the payload of the send:message websocket event.
type SendMessageRequest struct {
	Content   string `json:"content"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// AddParticipantRequest is the body for POST /api/chat/conversations/:id/participants.
type AddParticipantRequest struct {
	UserID string `json:"userId"`
}
