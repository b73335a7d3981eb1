package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WebhookEventRepository tracks provider event ids that were fully processed.
type WebhookEventRepository interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, providerCreatedAt time.Time) error
}

type webhookEventRepo struct {
	db *sql.DB
}

func NewWebhookEventRepo(db *sql.DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)`
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check webhook event %s: %w", eventID, err)
	}
	return exists, nil
}

func (r *webhookEventRepo) MarkProcessed(ctx context.Context, eventID, eventType string, providerCreatedAt time.Time) error {
	const q = `
        INSERT INTO webhook_events (event_id, event_type, provider_created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (event_id) DO NOTHING
    `
	if _, err := r.db.ExecContext(ctx, q, eventID, eventType, providerCreatedAt); err != nil {
		return fmt.Errorf("record webhook event %s: %w", eventID, err)
	}
	return nil
}
