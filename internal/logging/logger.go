package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithUser returns a logger with the acting user attached.
func WithUser(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

// WithBoard returns a logger scoped to a board, for move and reorder paths.
func WithBoard(logger *slog.Logger, boardID string) *slog.Logger {
	return logger.With("board_id", boardID)
}
