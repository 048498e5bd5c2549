package handlers

import (
	"log"
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CardHandler handles card endpoints, including the move operation that
// drives drag-and-drop clients.
type CardHandler struct {
	cards       *services.CardService
	chat        *services.ChatService
	broadcaster *services.Broadcaster
	metrics     *services.Metrics
}

// NewCardHandler creates a new card handler
func NewCardHandler(cards *services.CardService, chat *services.ChatService, broadcaster *services.Broadcaster, metrics *services.Metrics) *CardHandler {
	return &CardHandler{cards: cards, chat: chat, broadcaster: broadcaster, metrics: metrics}
}

// Create appends a card at the bottom of a list
// POST /api/cards
func (h *CardHandler) Create(c *fiber.Ctx) error {
	var req models.CreateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	card, err := h.cards.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}

	// A card assigned to several people gets its own discussion thread.
	if len(req.MemberIDs) > 1 && h.chat != nil {
		if orgID, oerr := h.cards.OrgForCard(c.Context(), card.ID); oerr == nil {
			if _, cerr := h.chat.CreateConversation(c.Context(), currentUserID(c), models.CreateConversationRequest{
				OrganizationID: orgID,
				Type:           models.ConversationCardThread,
				Title:          card.Title,
				CardID:         card.ID,
				ParticipantIDs: req.MemberIDs,
			}); cerr != nil {
				log.Printf("⚠️ Failed to create card thread for %s: %v", card.ID, cerr)
			}
		}
	}

	if boardID, berr := h.cards.BoardForCard(c.Context(), card.ID); berr == nil {
		h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
			Event:   "card:created",
			Payload: fiber.Map{"boardId": boardID, "listId": card.ListID, "card": card, "userId": currentUserID(c)},
		}, originConnID(c))
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

// Get returns a card with members and comments
// GET /api/cards/:id
func (h *CardHandler) Get(c *fiber.Ctx) error {
	card, err := h.cards.Get(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(card)
}

// List returns a list's cards in position order. CLIENT role members only
// see cards they are assigned to.
// GET /api/cards?listId=
func (h *CardHandler) List(c *fiber.Ctx) error {
	listID := c.Query("listId")
	if listID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "listId query parameter is required"})
	}

	cards, err := h.cards.ListForList(c.Context(), currentUserID(c), listID)
	if err != nil {
		return serviceError(c, err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return c.JSON(cards)
}

// Archive marks a card completed without touching its position
// POST /api/cards/:id/archive
func (h *CardHandler) Archive(c *fiber.Ctx) error {
	return h.setArchived(c, true)
}

// Unarchive restores an archived card
// POST /api/cards/:id/unarchive
func (h *CardHandler) Unarchive(c *fiber.Ctx) error {
	return h.setArchived(c, false)
}

func (h *CardHandler) setArchived(c *fiber.Ctx, archived bool) error {
	card, err := h.cards.SetArchived(c.Context(), currentUserID(c), c.Params("id"), archived)
	if err != nil {
		return serviceError(c, err)
	}

	if boardID, berr := h.cards.BoardForCard(c.Context(), card.ID); berr == nil {
		h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
			Event:   "card:updated",
			Payload: fiber.Map{"boardId": boardID, "card": card, "userId": currentUserID(c)},
		}, originConnID(c))
	}

	return c.JSON(card)
}

// Update edits card fields. Position is never touched here; moves go
// through Move so the ordering invariants hold.
// PUT /api/cards/:id
func (h *CardHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	card, err := h.cards.Update(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err)
	}

	if boardID, berr := h.cards.BoardForCard(c.Context(), card.ID); berr == nil {
		h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
			Event:   "card:updated",
			Payload: fiber.Map{"boardId": boardID, "card": card, "userId": currentUserID(c)},
		}, originConnID(c))
	}

	return c.JSON(card)
}

// Delete removes a card and closes the position gap in its list
// DELETE /api/cards/:id
func (h *CardHandler) Delete(c *fiber.Ctx) error {
	cardID := c.Params("id")

	boardID, err := h.cards.BoardForCard(c.Context(), cardID)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.cards.Delete(c.Context(), currentUserID(c), cardID); err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
		Event:   "card:deleted",
		Payload: fiber.Map{"boardId": boardID, "cardId": cardID, "userId": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(fiber.Map{"message": "Card deleted"})
}

// Move relocates a card within or across lists in one transaction, then
// broadcasts the committed result to everyone else viewing the board.
// PATCH /api/cards/:id/move
func (h *CardHandler) Move(c *fiber.Ctx) error {
	var req models.MoveCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	start := time.Now()
	result, err := h.cards.Move(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		if err == services.ErrConcurrencyConflict && h.metrics != nil {
			h.metrics.RecordMoveConflict()
		}
		return serviceError(c, err)
	}

	kind := "same_list"
	if result.FromListID != result.ToListID {
		kind = "cross_list"
	}
	if h.metrics != nil {
		h.metrics.RecordCardMove(kind, time.Since(start).Seconds())
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(result.BoardID), models.ServerEvent{
		Event: "card:moved",
		Payload: fiber.Map{
			"boardId":    result.BoardID,
			"cardId":     result.Card.ID,
			"fromListId": result.FromListID,
			"toListId":   result.ToListID,
			"newOrder":   result.Card.Position,
			"card":       result.Card,
			"userId":     currentUserID(c),
		},
	}, originConnID(c))

	return c.JSON(result.Card)
}

// AddMember assigns an org member to a card
// POST /api/cards/:id/members
func (h *CardHandler) AddMember(c *fiber.Ctx) error {
	var req models.AddCardMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.cards.AddMember(c.Context(), currentUserID(c), c.Params("id"), req.UserID); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Member added"})
}

// RemoveMember unassigns a member from a card
// DELETE /api/cards/:id/members/:userId
func (h *CardHandler) RemoveMember(c *fiber.Ctx) error {
	if err := h.cards.RemoveMember(c.Context(), currentUserID(c), c.Params("id"), c.Params("userId")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// AddComment posts a comment on a card. CLIENT members may comment on
// boards shared with them.
// POST /api/cards/:id/comments
func (h *CardHandler) AddComment(c *fiber.Ctx) error {
	var req models.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	comment, err := h.cards.AddComment(c.Context(), currentUserID(c), c.Params("id"), req.Content)
	if err != nil {
		return serviceError(c, err)
	}

	if boardID, berr := h.cards.BoardForCard(c.Context(), c.Params("id")); berr == nil {
		h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
			Event:   "comment:added",
			Payload: fiber.Map{"boardId": boardID, "cardId": c.Params("id"), "comment": comment, "userId": currentUserID(c)},
		}, originConnID(c))
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment removes a comment. Authors delete their own; admins can
// delete anyone's.
// DELETE /api/cards/:id/comments/:commentId
func (h *CardHandler) DeleteComment(c *fiber.Ctx) error {
	err := h.cards.DeleteComment(c.Context(), currentUserID(c), c.Params("id"), c.Params("commentId"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
