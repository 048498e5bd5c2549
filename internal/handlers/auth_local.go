package handlers

import (
	"log"
	"strings"
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/services"
	"taskdeck/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// LocalAuthHandler handles local JWT authentication endpoints
type LocalAuthHandler struct {
	jwtAuth     *auth.LocalJWTAuth
	userService *services.UserService
}

// NewLocalAuthHandler creates a new local auth handler
func NewLocalAuthHandler(jwtAuth *auth.LocalJWTAuth, userService *services.UserService) *LocalAuthHandler {
	return &LocalAuthHandler{
		jwtAuth:     jwtAuth,
		userService: userService,
	}
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest is the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is the response for successful authentication
type AuthResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
	ExpiresIn    int                 `json:"expires_in"` // seconds
}

// Register creates a new user account
// POST /api/auth/register
func (h *LocalAuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Valid email address is required",
		})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	passwordHash, err := h.jwtAuth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create account",
		})
	}

	user, err := h.userService.Create(c.Context(), req.Email, req.Name, passwordHash)
	if err != nil {
		return serviceError(c, err)
	}

	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate authentication tokens",
		})
	}

	h.setRefreshCookie(c, refreshToken)

	log.Printf("✅ User registered: %s (%s)", user.Email, user.ID)

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
		ExpiresIn:    int(h.jwtAuth.AccessTokenExpiry.Seconds()),
	})
}

// Login authenticates a user
// POST /api/auth/login
func (h *LocalAuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.userService.GetByEmail(c.Context(), req.Email)
	if err != nil {
		// Constant-time-ish response to prevent email enumeration
		time.Sleep(200 * time.Millisecond)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	valid, err := h.jwtAuth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !valid {
		log.Printf("⚠️ Failed login attempt for user: %s", req.Email)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if err := h.userService.TouchLogin(c.Context(), user.ID); err != nil {
		log.Printf("⚠️ Failed to update last login time: %v", err)
		// Non-critical, continue
	}

	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate authentication tokens",
		})
	}

	h.setRefreshCookie(c, refreshToken)

	log.Printf("✅ User logged in: %s (%s)", user.Email, user.ID)

	return c.JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
		ExpiresIn:    int(h.jwtAuth.AccessTokenExpiry.Seconds()),
	})
}

// RefreshToken generates a new access token from a refresh token
// POST /api/auth/refresh
func (h *LocalAuthHandler) RefreshToken(c *fiber.Ctx) error {
	// Try to get refresh token from cookie first
	refreshToken := c.Cookies("refresh_token")

	// Fallback to request body
	if refreshToken == "" {
		var req RefreshTokenRequest
		if err := c.BodyParser(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	if refreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Refresh token is required",
		})
	}

	claims, err := h.jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired refresh token",
		})
	}

	user, err := h.userService.GetByID(c.Context(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// New access token only; the refresh token stays valid until expiry
	newAccessToken, _, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("❌ Failed to generate new access token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to refresh token",
		})
	}

	return c.JSON(fiber.Map{
		"access_token": newAccessToken,
		"expires_in":   int(h.jwtAuth.AccessTokenExpiry.Seconds()),
	})
}

// Logout clears the refresh token cookie
// POST /api/auth/logout
func (h *LocalAuthHandler) Logout(c *fiber.Ctx) error {
	c.ClearCookie("refresh_token")
	if userID := currentUserID(c); userID != "" {
		log.Printf("✅ User logged out: %s", userID)
	}
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the currently authenticated user
// GET /api/auth/me
func (h *LocalAuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	user, err := h.userService.GetByID(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(user.Public())
}

// UpdateProfileRequest is the request body for profile updates
type UpdateProfileRequest struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// UpdateProfile updates the current user's profile
// PUT /api/auth/me
func (h *LocalAuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.userService.UpdateProfile(c.Context(), userID, req.Name, req.Avatar)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(user.Public())
}

// SearchUsers finds users by email prefix for member pickers
// GET /api/users/search?q=prefix
func (h *LocalAuthHandler) SearchUsers(c *fiber.Ctx) error {
	results, err := h.userService.SearchByEmail(c.Context(), c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"users": results})
}

func (h *LocalAuthHandler) setRefreshCookie(c *fiber.Ctx, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(h.jwtAuth.RefreshTokenExpiry),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: "Strict",
		Path:     "/api/auth",
	})
}
