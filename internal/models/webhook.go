package models

import "time"

// ProcessedWebhook is the row shape of the processed_webhooks table. The
// unique constraint on (webhook_type, tracking_key) backs idempotency across
// instances.
type ProcessedWebhook struct {
	WebhookID   string    `db:"webhook_id"`
	WebhookType string    `db:"webhook_type"`
	TrackingKey string    `db:"tracking_key"`
	PayloadHash string    `db:"payload_hash"`
	Outcome     string    `db:"outcome"`
	SourceIP    string    `db:"source_ip"`
	ProcessedAt time.Time `db:"processed_at"`
}
