package handlers

import (
	"errors"

	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps service sentinel errors onto HTTP responses. Anything
// unrecognized becomes a 500 with a generic body so internals never leak.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidOperation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrLimitExceeded):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "The board changed while your request was in flight. Please retry.",
			"retry": true,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// currentUserID reads the authenticated user ID set by the auth middleware.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// originConnID reads the optional connection ID header clients send so their
// own websocket connection is excluded from the resulting broadcast.
func originConnID(c *fiber.Ctx) string {
	return c.Get("X-Connection-ID")
}
