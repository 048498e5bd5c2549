package handlers

import (
	"taskdeck/internal/models"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// BoardHandler handles board endpoints. Mutations broadcast to the board
// room after commit, excluding the originator's connection when the client
// sent X-Connection-ID.
type BoardHandler struct {
	boards      *services.BoardService
	export      *services.ExportService
	broadcaster *services.Broadcaster
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boards *services.BoardService, export *services.ExportService, broadcaster *services.Broadcaster) *BoardHandler {
	return &BoardHandler{boards: boards, export: export, broadcaster: broadcaster}
}

// Create creates a board
// POST /api/boards
func (h *BoardHandler) Create(c *fiber.Ctx) error {
	var req models.CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	board, err := h.boards.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(board)
}

// List returns boards visible to the caller in an organization
// GET /api/boards?organizationId= and GET /api/organizations/:id/boards
func (h *BoardHandler) List(c *fiber.Ctx) error {
	orgID := c.Params("id")
	if orgID == "" {
		orgID = c.Query("organizationId")
	}
	if orgID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "organizationId is required"})
	}

	boards, err := h.boards.ListForOrg(c.Context(), currentUserID(c), orgID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"boards": boards})
}

// Get returns a board with lists and cards in position order
// GET /api/boards/:id
func (h *BoardHandler) Get(c *fiber.Ctx) error {
	board, err := h.boards.Get(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(board)
}

// Update renames a board
// PUT /api/boards/:id
func (h *BoardHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	board, err := h.boards.Update(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(board.ID), models.ServerEvent{
		Event: "board:updated",
		Payload: fiber.Map{
			"boardId": board.ID,
			"title":   board.Title,
			"userId":  currentUserID(c),
		},
	}, originConnID(c))

	return c.JSON(board)
}

// Delete removes a board
// DELETE /api/boards/:id
func (h *BoardHandler) Delete(c *fiber.Ctx) error {
	boardID := c.Params("id")
	if err := h.boards.Delete(c.Context(), currentUserID(c), boardID); err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
		Event:   "board:deleted",
		Payload: fiber.Map{"boardId": boardID, "userId": currentUserID(c)},
	}, originConnID(c))

	return c.JSON(fiber.Map{"message": "Board deleted"})
}

// ReorderLists applies a complete new list order atomically
// POST /api/boards/:id/reorder-lists
func (h *BoardHandler) ReorderLists(c *fiber.Ctx) error {
	boardID := c.Params("id")

	var req models.ReorderListsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.boards.ReorderLists(c.Context(), currentUserID(c), boardID, req); err != nil {
		return serviceError(c, err)
	}

	h.broadcaster.ToRoom(c.Context(), services.BoardRoom(boardID), models.ServerEvent{
		Event: "lists:reordered",
		Payload: fiber.Map{
			"boardId": boardID,
			"listIds": req.ListIDs,
			"userId":  currentUserID(c),
		},
	}, originConnID(c))

	return c.JSON(fiber.Map{"message": "Lists reordered"})
}

// ShareWithClient grants a CLIENT member view access to the board
// POST /api/boards/:id/clients
func (h *BoardHandler) ShareWithClient(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.boards.ShareWithClient(c.Context(), currentUserID(c), c.Params("id"), req.UserID); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Board shared"})
}

// RevokeClient removes a client's view access
// DELETE /api/boards/:id/clients/:userId
func (h *BoardHandler) RevokeClient(c *fiber.Ctx) error {
	if err := h.boards.RevokeClient(c.Context(), currentUserID(c), c.Params("id"), c.Params("userId")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Access revoked"})
}

// Export downloads the board as an XLSX workbook
// GET /api/boards/:id/export
func (h *BoardHandler) Export(c *fiber.Ctx) error {
	data, filename, err := h.export.ExportBoardXLSX(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
