package domain

import "time"

// ChangeSource identifies what triggered a status transition.
type ChangeSource string

const (
	SourceAPI     ChangeSource = "api"
	SourceWebhook ChangeSource = "webhook"
	SourceCron    ChangeSource = "cron"
	SourceManual  ChangeSource = "manual"
)

// StateTransitionLogEntry is the append-only audit record of one status
// change. Entries are never updated or deleted.
type StateTransitionLogEntry struct {
	EntryID        string            `json:"entryID"`
	TransactionID  string            `json:"transactionID"`
	PreviousStatus TransactionStatus `json:"previousStatus"`
	NewStatus      TransactionStatus `json:"newStatus"`
	Actor          string            `json:"actor"` // user id or "system"
	Source         ChangeSource      `json:"source"`
	OriginIP       string            `json:"originIP"`
	Metadata       map[string]string `json:"metadata"`
	OccurredAt     time.Time         `json:"occurredAt"`
}

// EventSeverity grades security events for alerting and forensics.
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// SecurityEvent is an append-only security audit record: rejected webhook
// sources, illegal transition attempts, signature mismatches.
type SecurityEvent struct {
	EventID    string            `json:"eventID"`
	Action     string            `json:"action"`
	Severity   EventSeverity     `json:"severity"`
	Actor      string            `json:"actor"`
	OriginIP   string            `json:"originIP"`
	Detail     string            `json:"detail"`
	Metadata   map[string]string `json:"metadata"`
	OccurredAt time.Time         `json:"occurredAt"`
}
