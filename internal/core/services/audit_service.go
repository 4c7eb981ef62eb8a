package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
)

// AuditService persists security events. Recording is fire-and-forget: an
// audit write must never fail the operation that triggered it.
type AuditService struct {
	auditRepo portsrepo.AuditRepositoryFacade
}

// NewAuditService creates a new AuditService.
func NewAuditService(ar portsrepo.AuditRepositoryFacade) portssvc.AuditSvcFacade {
	return &AuditService{auditRepo: ar}
}

var _ portssvc.AuditSvcFacade = (*AuditService)(nil)

// RecordSecurityEvent appends a security event to the audit trail. Failures
// are logged and swallowed.
func (s *AuditService) RecordSecurityEvent(ctx context.Context, event domain.SecurityEvent) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if err := s.auditRepo.AppendSecurityEvent(ctx, event); err != nil {
		logger.Error("Failed to append security event",
			slog.String("action", event.Action),
			slog.String("severity", string(event.Severity)),
			slog.String("error", err.Error()))
	}
}

// ListSecurityEvents returns recorded security events matching the filter.
func (s *AuditService) ListSecurityEvents(ctx context.Context, action, actor string, severity domain.EventSeverity, limit int) ([]domain.SecurityEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.auditRepo.ListSecurityEvents(ctx, portsrepo.SecurityEventFilter{
		Action:   action,
		Actor:    actor,
		Severity: severity,
		Limit:    limit,
	})
}
