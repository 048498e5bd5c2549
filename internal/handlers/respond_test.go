package handlers

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

func TestServiceErrorMapping(t *testing.T) {
	app := fiber.New()

	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, fiber.StatusNotFound},
		{services.ErrForbidden, fiber.StatusForbidden},
		{services.ErrInvalidOperation, fiber.StatusBadRequest},
		{services.ErrDuplicate, fiber.StatusConflict},
		{services.ErrLimitExceeded, fiber.StatusPaymentRequired},
		{services.ErrConcurrencyConflict, fiber.StatusConflict},
		{fmt.Errorf("database exploded"), fiber.StatusInternalServerError},
	}

	for i, tc := range cases {
		path := fmt.Sprintf("/err/%d", i)
		failing := tc.err
		app.Get(path, func(c *fiber.Ctx) error { return serviceError(c, failing) })

		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != tc.want {
			t.Errorf("serviceError(%v): expected status %d, got %d", tc.err, tc.want, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestWrappedErrorsStillMap(t *testing.T) {
	app := fiber.New()
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return serviceError(c, fmt.Errorf("%w: board", services.ErrNotFound))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/wrapped", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404 for wrapped ErrNotFound, got %d", resp.StatusCode)
	}
}
