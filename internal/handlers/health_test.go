package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"taskdeck/internal/database"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

func TestHealthReportsDegradedComponents(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	// No Mongo, no Redis: the endpoint still answers 200 and flags what is down.
	h := NewHealthHandler(db, nil, nil, services.NewConnectionManager())
	app := fiber.New()
	app.Get("/health", h.Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("Expected degraded status without Mongo, got %q", body.Status)
	}
	if body.Components["database"] != "up" {
		t.Errorf("Expected database up, got %q", body.Components["database"])
	}
	if body.Components["mongodb"] != "down" {
		t.Errorf("Expected mongodb down, got %q", body.Components["mongodb"])
	}
}
