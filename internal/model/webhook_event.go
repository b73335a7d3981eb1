package model

import "time"

// WebhookEvent marks a provider event id as processed.
type WebhookEvent struct {
	EventID           string    `db:"event_id"`
	EventType         string    `db:"event_type"`
	ProviderCreatedAt time.Time `db:"provider_created_at"`
	ProcessedAt       time.Time `db:"processed_at"`
}
