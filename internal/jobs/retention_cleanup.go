package jobs

import (
	"context"
	"log"
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/services"
)

// RetentionCleanup purges chat messages past each plan's retention window.
// Plans with a retention of 0 keep messages forever.
type RetentionCleanup struct {
	db    *database.DB
	chat  *services.ChatService
	tiers *services.TierService
}

// NewRetentionCleanup creates the retention job.
func NewRetentionCleanup(db *database.DB, chat *services.ChatService, tiers *services.TierService) *RetentionCleanup {
	return &RetentionCleanup{db: db, chat: chat, tiers: tiers}
}

// Run walks every plan, finds organizations on it, and purges their messages
// older than the plan's retention window.
func (j *RetentionCleanup) Run(ctx context.Context) error {
	var totalPurged int64

	for _, plan := range j.tiers.PlanNames() {
		limits := j.tiers.Limits(plan)
		if limits.MessageRetentionDays <= 0 {
			continue
		}
		cutoff := time.Now().AddDate(0, 0, -limits.MessageRetentionDays)

		orgIDs, err := j.orgsOnPlan(ctx, plan)
		if err != nil {
			return err
		}

		for _, orgID := range orgIDs {
			purged, err := j.chat.PurgeOldMessagesForOrg(ctx, orgID, cutoff)
			if err != nil {
				log.Printf("⚠️ Retention purge failed for org %s: %v", orgID, err)
				continue
			}
			totalPurged += purged
		}
	}

	if totalPurged > 0 {
		log.Printf("🧹 Retention cleanup purged %d messages", totalPurged)
	}
	return nil
}

func (j *RetentionCleanup) orgsOnPlan(ctx context.Context, plan string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT id FROM organizations WHERE plan = ?`, plan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
