package handlers

import (
	"taskdeck/internal/models"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ListHandler handles list endpoints
type ListHandler struct {
	lists       *services.ListService
	broadcaster *services.Broadcaster
}

// NewListHandler creates a new list handler
func NewListHandler(lists *services.ListService, broadcaster *services.Broadcaster) *ListHandler {
	return &ListHandler{lists: lists, broadcaster: broadcaster}
}

// Create appends a list at the right end of its board
// POST /api/lists
func (h *ListHandler) Create(c *fiber.Ctx) error {
	var req models.CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	list, err := h.lists.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(list.BoardID), models.ServerEvent{
		Event:   "list:created",
		Payload: fiber.Map{"boardId": list.BoardID, "list": list, "userId": currentUserID(c)},
	}, originConnID(c))

	return c.Status(fiber.StatusCreated).JSON(list)
}

// Get returns a list with its cards in position order
// GET /api/lists/:id
func (h *ListHandler) Get(c *fiber.Ctx) error {
	list, err := h.lists.Get(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(list)
}

// Update renames a list
// PUT /api/lists/:id
func (h *ListHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	list, err := h.lists.Update(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(list.BoardID), models.ServerEvent{
		Event:   "list:updated",
		Payload: fiber.Map{"boardId": list.BoardID, "listId": list.ID, "title": list.Title, "userId": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(list)
}

// Delete removes a list and its cards
// DELETE /api/lists/:id
func (h *ListHandler) Delete(c *fiber.Ctx) error {
	listID := c.Params("id")

	boardID, err := h.lists.BoardForList(c.Context(), listID)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.lists.Delete(c.Context(), currentUserID(c), listID); err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
		Event:   "list:deleted",
		Payload: fiber.Map{"boardId": boardID, "listId": listID, "userId": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(fiber.Map{"message": "List deleted"})
}
