package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/middleware"
	"taskdeck/internal/services"
	"taskdeck/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

func newAuthTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	jwtAuth, err := auth.NewLocalJWTAuth("test-secret-key-for-handler-tests", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create JWT auth: %v", err)
	}

	users := services.NewUserService(db)
	h := NewLocalAuthHandler(jwtAuth, users)
	requireAuth := middleware.LocalAuthMiddleware(jwtAuth)

	app := fiber.New()
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)
	app.Get("/api/auth/me", requireAuth, h.GetCurrentUser)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestRegisterLoginFlow(t *testing.T) {
	app := newAuthTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":    "Ana@Example.com",
		"name":     "Ana",
		"password": "Sup3rSecret!",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201 on register, got %d (%v)", status, body)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatal("Expected an access token in the register response")
	}

	// Email is stored lowercased, so login with the canonical form works.
	status, body = doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "Sup3rSecret!",
	})
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 on login, got %d (%v)", status, body)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("Expected an access token in the login response")
	}

	status, body = doJSON(t, app, "GET", "/api/auth/me", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 on /me, got %d (%v)", status, body)
	}
	if body["email"] != "ana@example.com" {
		t.Errorf("Expected canonical email, got %v", body["email"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newAuthTestApp(t)

	payload := map[string]string{"email": "bob@example.com", "name": "Bob", "password": "Sup3rSecret!"}
	if status, _ := doJSON(t, app, "POST", "/api/auth/register", "", payload); status != fiber.StatusCreated {
		t.Fatalf("Expected 201 on first register, got %d", status)
	}
	if status, _ := doJSON(t, app, "POST", "/api/auth/register", "", payload); status != fiber.StatusConflict {
		t.Errorf("Expected 409 on duplicate register, got %d", status)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app := newAuthTestApp(t)

	doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email": "eve@example.com", "name": "Eve", "password": "Sup3rSecret!",
	})
	status, _ := doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email": "eve@example.com", "password": "wrong-password",
	})
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for bad password, got %d", status)
	}
}

func TestMeRequiresToken(t *testing.T) {
	app := newAuthTestApp(t)

	if status, _ := doJSON(t, app, "GET", "/api/auth/me", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", status)
	}
	if status, _ := doJSON(t, app, "GET", "/api/auth/me", "not-a-jwt", nil); status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 with a garbage token, got %d", status)
	}
}

func TestWeakPasswordRejected(t *testing.T) {
	app := newAuthTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email": "weak@example.com", "name": "Weak", "password": "short",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for a weak password, got %d (%v)", status, body)
	}
}
