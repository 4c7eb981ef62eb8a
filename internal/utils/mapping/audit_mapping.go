package mapping

import (
	"encoding/json"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/models"
)

// ToModelTransitionLogEntry converts a domain StateTransitionLogEntry to its model.
// Metadata marshals to jsonb; a nil map becomes SQL NULL.
func ToModelTransitionLogEntry(d domain.StateTransitionLogEntry) models.StateTransitionLogEntry {
	var metadata []byte
	if len(d.Metadata) > 0 {
		metadata, _ = json.Marshal(d.Metadata)
	}
	return models.StateTransitionLogEntry{
		EntryID:        d.EntryID,
		TransactionID:  d.TransactionID,
		PreviousStatus: string(d.PreviousStatus),
		NewStatus:      string(d.NewStatus),
		Actor:          d.Actor,
		Source:         string(d.Source),
		OriginIP:       d.OriginIP,
		Metadata:       metadata,
		OccurredAt:     d.OccurredAt,
	}
}

// ToDomainTransitionLogEntry converts a model StateTransitionLogEntry to its domain form.
func ToDomainTransitionLogEntry(m models.StateTransitionLogEntry) domain.StateTransitionLogEntry {
	var metadata map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return domain.StateTransitionLogEntry{
		EntryID:        m.EntryID,
		TransactionID:  m.TransactionID,
		PreviousStatus: domain.TransactionStatus(m.PreviousStatus),
		NewStatus:      domain.TransactionStatus(m.NewStatus),
		Actor:          m.Actor,
		Source:         domain.ChangeSource(m.Source),
		OriginIP:       m.OriginIP,
		Metadata:       metadata,
		OccurredAt:     m.OccurredAt,
	}
}

// ToDomainTransitionLogSlice converts model log entries to domain ones.
func ToDomainTransitionLogSlice(ms []models.StateTransitionLogEntry) []domain.StateTransitionLogEntry {
	ds := make([]domain.StateTransitionLogEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransitionLogEntry(m)
	}
	return ds
}

// ToModelSecurityEvent converts a domain SecurityEvent to its model.
func ToModelSecurityEvent(d domain.SecurityEvent) models.SecurityEvent {
	var metadata []byte
	if len(d.Metadata) > 0 {
		metadata, _ = json.Marshal(d.Metadata)
	}
	return models.SecurityEvent{
		EventID:    d.EventID,
		Action:     d.Action,
		Severity:   string(d.Severity),
		Actor:      d.Actor,
		OriginIP:   d.OriginIP,
		Detail:     d.Detail,
		Metadata:   metadata,
		OccurredAt: d.OccurredAt,
	}
}

// ToDomainSecurityEvent converts a model SecurityEvent to its domain form.
func ToDomainSecurityEvent(m models.SecurityEvent) domain.SecurityEvent {
	var metadata map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return domain.SecurityEvent{
		EventID:    m.EventID,
		Action:     m.Action,
		Severity:   domain.EventSeverity(m.Severity),
		Actor:      m.Actor,
		OriginIP:   m.OriginIP,
		Detail:     m.Detail,
		Metadata:   metadata,
		OccurredAt: m.OccurredAt,
	}
}

// ToDomainSecurityEventSlice converts model security events to domain ones.
func ToDomainSecurityEventSlice(ms []models.SecurityEvent) []domain.SecurityEvent {
	ds := make([]domain.SecurityEvent, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSecurityEvent(m)
	}
	return ds
}
