package services

import (
	"context"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

// CutoffRunSummary reports one daily cutoff run across all companies.
type CutoffRunSummary struct {
	CompaniesProcessed int
	CutoffsCreated     int
	CutoffsSkipped     int // already existed for the day
	CutoffsFailed      int
}

// CommissionSvcFacade accrues commissions and runs the daily cutoff.
type CommissionSvcFacade interface {
	// AccrueForTransaction creates the pending commission for one settled
	// inbound transaction, exactly once per source transaction. Companies
	// with a zero percentage accrue nothing.
	AccrueForTransaction(ctx context.Context, txn domain.Transaction) error

	// RunDailyCutoff consolidates every company's pending commissions for the
	// given calendar day into one outgoing transfer each. Idempotent per
	// company per day: re-running is safe and skips existing cutoffs.
	RunDailyCutoff(ctx context.Context, date time.Time) (*CutoffRunSummary, error)
}

// AuditSvcFacade records and queries the security audit trail.
type AuditSvcFacade interface {
	RecordSecurityEvent(ctx context.Context, event domain.SecurityEvent)
	ListSecurityEvents(ctx context.Context, action, actor string, severity domain.EventSeverity, limit int) ([]domain.SecurityEvent, error)
}
