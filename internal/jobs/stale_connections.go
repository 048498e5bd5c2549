package jobs

import (
	"context"
	"log"
	"time"

	"taskdeck/internal/services"
)

// StaleConnectionSweeper closes websocket connections that have produced no
// reads or pongs within the timeout. Closing the socket unwinds the
// connection's read loop, which handles room cleanup and presence.
type StaleConnectionSweeper struct {
	connManager *services.ConnectionManager
	timeout     time.Duration
}

// NewStaleConnectionSweeper creates a sweeper with the given idle timeout.
func NewStaleConnectionSweeper(connManager *services.ConnectionManager, timeout time.Duration) *StaleConnectionSweeper {
	return &StaleConnectionSweeper{connManager: connManager, timeout: timeout}
}

// Run closes every connection idle past the timeout.
func (j *StaleConnectionSweeper) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.timeout)
	stale := j.connManager.Stale(cutoff)
	if len(stale) == 0 {
		return nil
	}

	for _, conn := range stale {
		log.Printf("🧹 Closing stale connection %s (user %s, last seen %s)",
			conn.ConnID, conn.UserID, conn.LastSeen().Format(time.RFC3339))
		conn.MarkClosed()
		conn.Conn.Close()
	}

	log.Printf("🧹 Closed %d stale connections", len(stale))
	return nil
}
