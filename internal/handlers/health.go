package handlers

import (
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db          *database.DB
	mongo       *database.MongoDB
	redis       *services.RedisService // optional
	connManager *services.ConnectionManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, mongo *database.MongoDB, redis *services.RedisService, connManager *services.ConnectionManager) *HealthHandler {
	return &HealthHandler{db: db, mongo: mongo, redis: redis, connManager: connManager}
}

// Handle responds with server health status. Degraded dependencies are
// reported per component; the endpoint itself stays 200 so load balancers
// keep routing while operators investigate.
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	components := fiber.Map{}
	status := "healthy"

	if err := h.db.PingContext(c.Context()); err != nil {
		components["database"] = "down"
		status = "degraded"
	} else {
		components["database"] = "up"
	}

	if err := h.mongo.Ping(c.Context()); err != nil {
		components["mongodb"] = "down"
		status = "degraded"
	} else {
		components["mongodb"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Context()); err != nil {
			components["redis"] = "down"
			status = "degraded"
		} else {
			components["redis"] = "up"
		}
	}

	return c.JSON(fiber.Map{
		"status":      status,
		"components":  components,
		"connections": h.connManager.Count(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
