package repositories

import (
	"context"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

// CommissionRepositoryFacade defines persistence operations for commission
// accrual and the daily cutoff.
type CommissionRepositoryFacade interface {
	// CreatePendingCommission inserts the accrual record. The unique
	// constraint on source_transaction_id backs the exactly-once guarantee;
	// a duplicate accrual surfaces as apperrors.ErrDuplicate.
	CreatePendingCommission(ctx context.Context, commission domain.PendingCommission) error

	// ListCompaniesWithPending returns the ids of companies holding at least
	// one pending commission.
	ListCompaniesWithPending(ctx context.Context) ([]string, error)

	// ListPendingByCompany returns the company's pending commissions.
	ListPendingByCompany(ctx context.Context, companyID string) ([]domain.PendingCommission, error)

	// CreateCutoff inserts the cutoff row. The unique constraint on
	// (company_id, cutoff_date) makes the daily run idempotent; a second run
	// for the same day surfaces as apperrors.ErrDuplicate.
	CreateCutoff(ctx context.Context, cutoff domain.CommissionCutoff) error

	// FindCutoff returns the cutoff for one company and calendar day.
	FindCutoff(ctx context.Context, companyID string, date time.Time) (*domain.CommissionCutoff, error)

	// MarkCommissions moves the listed commissions to the given status and
	// links them to the cutoff.
	MarkCommissions(ctx context.Context, commissionIDs []string, status domain.CommissionStatus, cutoffID string) error

	// UpdateCutoffStatus advances the cutoff lifecycle and links the
	// consolidated outgoing transaction once it exists.
	UpdateCutoffStatus(ctx context.Context, cutoffID string, status domain.CutoffStatus, transactionID *string, errorDetail *string) error
}
