package repositories

import (
	"context"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

// SecurityEventFilter narrows security event queries for forensics.
type SecurityEventFilter struct {
	Action   string
	Actor    string
	Severity domain.EventSeverity
	Limit    int
}

// AuditRepositoryFacade defines persistence for the append-only security
// audit trail. There is deliberately no update or delete operation.
type AuditRepositoryFacade interface {
	AppendSecurityEvent(ctx context.Context, event domain.SecurityEvent) error
	ListSecurityEvents(ctx context.Context, filter SecurityEventFilter) ([]domain.SecurityEvent, error)
}
