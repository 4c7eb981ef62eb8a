package domain

import "time"

// WebhookType distinguishes the two inbound payload shapes the banking partner
// sends.
type WebhookType string

const (
	// WebhookDeposit notifies an inbound SPEI deposit to one of our CLABEs.
	WebhookDeposit WebhookType = "deposit"
	// WebhookOrderStatus reports a status change of a previously dispatched
	// outgoing order.
	WebhookOrderStatus WebhookType = "order_status"
)

// WebhookOutcome records how a processed webhook ended.
type WebhookOutcome string

const (
	WebhookSuccess   WebhookOutcome = "success"
	WebhookFailure   WebhookOutcome = "failed"
	WebhookDuplicate WebhookOutcome = "duplicate"
)

// ProcessedWebhook is the idempotency record for one inbound notification,
// keyed by (type, tracking key). Its existence means "already handled".
type ProcessedWebhook struct {
	WebhookID   string      `json:"webhookID"`
	Type        WebhookType `json:"type"`
	TrackingKey string      `json:"trackingKey"`
	// PayloadHash is the SHA-256 of the raw payload, kept for forensic
	// comparison when a replay arrives with different contents.
	PayloadHash string         `json:"payloadHash"`
	Outcome     WebhookOutcome `json:"outcome"`
	SourceIP    string         `json:"sourceIP"`
	ProcessedAt time.Time      `json:"processedAt"`
}
