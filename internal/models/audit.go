package models

import "time"

// StateTransitionLogEntry is the row shape of the state_transition_log table.
// Append-only: no update or delete path exists in the repositories.
type StateTransitionLogEntry struct {
	EntryID        string    `db:"entry_id"`
	TransactionID  string    `db:"transaction_id"`
	PreviousStatus string    `db:"previous_status"`
	NewStatus      string    `db:"new_status"`
	Actor          string    `db:"actor"`
	Source         string    `db:"source"`
	OriginIP       string    `db:"origin_ip"`
	Metadata       []byte    `db:"metadata"` // jsonb
	OccurredAt     time.Time `db:"occurred_at"`
}

// SecurityEvent is the row shape of the security_events table. Append-only.
type SecurityEvent struct {
	EventID    string    `db:"event_id"`
	Action     string    `db:"action"`
	Severity   string    `db:"severity"`
	Actor      string    `db:"actor"`
	OriginIP   string    `db:"origin_ip"`
	Detail     string    `db:"detail"`
	Metadata   []byte    `db:"metadata"` // jsonb
	OccurredAt time.Time `db:"occurred_at"`
}
