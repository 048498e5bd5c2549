package handlers

import (
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler handles conversation and message endpoints. Real-time fan-out
// goes to the conversation room; the websocket gateway handles joins.
type ChatHandler struct {
	chat        *services.ChatService
	broadcaster *services.Broadcaster
	metrics     *services.Metrics
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, broadcaster *services.Broadcaster, metrics *services.Metrics) *ChatHandler {
	return &ChatHandler{chat: chat, broadcaster: broadcaster, metrics: metrics}
}

// CreateConversation starts a DIRECT, GROUP, or CARD_THREAD conversation.
// DIRECT pairs and CARD_THREAD cards dedupe to the existing conversation.
// POST /api/chat/conversations
func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	var req models.CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	conv, err := h.chat.CreateConversation(c.Context(), currentUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

// ListConversations returns the caller's conversations in an organization,
// most recently active first
// GET /api/chat/conversations?organizationId=...
func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	orgID := c.Query("organizationId")
	if orgID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "organizationId query parameter is required"})
	}

	convs, err := h.chat.ListConversations(c.Context(), currentUserID(c), orgID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// GetConversation returns one conversation the caller participates in
// GET /api/chat/conversations/:id
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.chat.GetConversation(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(conv)
}

// AddParticipant adds a user to a GROUP conversation
// POST /api/chat/conversations/:id/participants
func (h *ChatHandler) AddParticipant(c *fiber.Ctx) error {
	var req models.AddParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	conv, err := h.chat.AddParticipant(c.Context(), currentUserID(c), c.Params("id"), req.UserID)
	if err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.ConversationRoom(c.Params("id")), models.ServerEvent{
		Event:   "participant:added",
		Payload: fiber.Map{"conversationId": c.Params("id"), "userId": req.UserID, "addedBy": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(conv)
}

// RemoveParticipant removes a user from a GROUP conversation. Participants
// may leave on their own; removing someone else requires the admin role.
// DELETE /api/chat/conversations/:id/participants/:userId
func (h *ChatHandler) RemoveParticipant(c *fiber.Ctx) error {
	err := h.chat.RemoveParticipant(c.Context(), currentUserID(c), c.Params("id"), c.Params("userId"))
	if err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.ConversationRoom(c.Params("id")), models.ServerEvent{
		Event:   "participant:removed",
		Payload: fiber.Map{"conversationId": c.Params("id"), "userId": c.Params("userId"), "removedBy": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(fiber.Map{"message": "Participant removed"})
}

// SendMessage posts a message and fans it out to the conversation room
// POST /api/chat/conversations/:id/messages
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req models.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	msg, err := h.chat.SendMessage(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordMessageSent()
	}

	h.broadcaster.ToRoom(c.Context(), services.ConversationRoom(c.Params("id")), models.ServerEvent{
		Event:   "message:received",
		Payload: fiber.Map{"conversationId": c.Params("id"), "message": msg},
	}, originConnID(c))

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// ListMessages pages backwards through a conversation's history
// GET /api/chat/conversations/:id/messages?before=RFC3339&limit=50
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	var before time.Time
	if v := c.Query("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "before must be an RFC 3339 timestamp"})
		}
		before = t
	}

	msgs, err := h.chat.ListMessages(c.Context(), currentUserID(c), c.Params("id"), before, c.QueryInt("limit"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// MarkRead records that the caller has read a message
// POST /api/chat/conversations/:id/messages/:messageId/read
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	err := h.chat.MarkRead(c.Context(), currentUserID(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.ConversationRoom(c.Params("id")), models.ServerEvent{
		Event:   "message:read-receipt",
		Payload: fiber.Map{"conversationId": c.Params("id"), "messageId": c.Params("messageId"), "userId": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(fiber.Map{"message": "Marked as read"})
}
