package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	"github.com/dispersa-mx/spei_ledger/internal/models"
	"github.com/dispersa-mx/spei_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxCommissionRepository persists pending commissions and daily cutoffs.
type PgxCommissionRepository struct {
	BaseRepository
}

// NewCommissionRepository creates a new repository for commission data.
func NewCommissionRepository(pool *pgxpool.Pool) portsrepo.CommissionRepositoryFacade {
	return &PgxCommissionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CommissionRepositoryFacade = (*PgxCommissionRepository)(nil)

// CreatePendingCommission inserts the accrual record. The unique constraint
// on source_transaction_id guards against double accrual.
func (r *PgxCommissionRepository) CreatePendingCommission(ctx context.Context, commission domain.PendingCommission) error {
	m := mapping.ToModelPendingCommission(commission)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO pending_commissions (
			commission_id, company_id, source_transaction_id, amount, percent_applied,
			status, cutoff_id, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		m.CommissionID, m.CompanyID, m.SourceTransactionID, m.Amount, m.PercentApplied,
		m.Status, m.CutoffID, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isPgError(err, pgErrUniqueViolation) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert pending commission for transaction "+commission.SourceTransactionID, err)
	}
	return nil
}

// ListCompaniesWithPending returns the companies holding pending commissions.
func (r *PgxCommissionRepository) ListCompaniesWithPending(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT DISTINCT company_id FROM pending_commissions WHERE status = 'pending' ORDER BY company_id;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query companies with pending commissions", err)
	}
	defer rows.Close()

	var companyIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan company id", err)
		}
		companyIDs = append(companyIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating company ids", err)
	}
	return companyIDs, nil
}

// ListPendingByCompany returns the company's pending commissions, oldest first.
func (r *PgxCommissionRepository) ListPendingByCompany(ctx context.Context, companyID string) ([]domain.PendingCommission, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT commission_id, company_id, source_transaction_id, amount, percent_applied,
		       status, cutoff_id, created_at, created_by, last_updated_at, last_updated_by
		FROM pending_commissions
		WHERE company_id = $1 AND status = 'pending'
		ORDER BY created_at;`,
		companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query pending commissions for company "+companyID, err)
	}
	defer rows.Close()

	commissions := []models.PendingCommission{}
	for rows.Next() {
		var m models.PendingCommission
		if err := rows.Scan(
			&m.CommissionID, &m.CompanyID, &m.SourceTransactionID, &m.Amount, &m.PercentApplied,
			&m.Status, &m.CutoffID, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan pending commission row", err)
		}
		commissions = append(commissions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating pending commission rows", err)
	}
	return mapping.ToDomainPendingCommissionSlice(commissions), nil
}

// CreateCutoff inserts the cutoff row. The unique constraint on
// (company_id, cutoff_date) keeps the daily run idempotent.
func (r *PgxCommissionRepository) CreateCutoff(ctx context.Context, cutoff domain.CommissionCutoff) error {
	m := mapping.ToModelCommissionCutoff(cutoff)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO commission_cutoffs (
			cutoff_id, company_id, target_account, total_amount, commission_count,
			status, transaction_id, cutoff_date, error_detail,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
		m.CutoffID, m.CompanyID, m.TargetAccount, m.TotalAmount, m.CommissionCount,
		m.Status, m.TransactionID, m.CutoffDate, m.ErrorDetail,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isPgError(err, pgErrUniqueViolation) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert cutoff for company "+cutoff.CompanyID, err)
	}
	return nil
}

// FindCutoff returns the cutoff for one company and calendar day.
func (r *PgxCommissionRepository) FindCutoff(ctx context.Context, companyID string, date time.Time) (*domain.CommissionCutoff, error) {
	var m models.CommissionCutoff
	err := r.Pool.QueryRow(ctx, `
		SELECT cutoff_id, company_id, target_account, total_amount, commission_count,
		       status, transaction_id, cutoff_date, error_detail,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM commission_cutoffs
		WHERE company_id = $1 AND cutoff_date = $2;`,
		companyID, date,
	).Scan(
		&m.CutoffID, &m.CompanyID, &m.TargetAccount, &m.TotalAmount, &m.CommissionCount,
		&m.Status, &m.TransactionID, &m.CutoffDate, &m.ErrorDetail,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find cutoff for company "+companyID, err)
	}
	d := mapping.ToDomainCommissionCutoff(m)
	return &d, nil
}

// MarkCommissions moves the listed commissions to the given status and links
// them to their cutoff.
func (r *PgxCommissionRepository) MarkCommissions(ctx context.Context, commissionIDs []string, status domain.CommissionStatus, cutoffID string) error {
	if len(commissionIDs) == 0 {
		return nil
	}
	_, err := r.Pool.Exec(ctx, `
		UPDATE pending_commissions
		SET status = $1, cutoff_id = $2, last_updated_at = now()
		WHERE commission_id = ANY($3);`,
		string(status), cutoffID, commissionIDs,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark commissions for cutoff "+cutoffID, err)
	}
	return nil
}

// UpdateCutoffStatus advances the cutoff lifecycle.
func (r *PgxCommissionRepository) UpdateCutoffStatus(ctx context.Context, cutoffID string, status domain.CutoffStatus, transactionID *string, errorDetail *string) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE commission_cutoffs
		SET status = $1,
		    transaction_id = COALESCE($2, transaction_id),
		    error_detail = COALESCE($3, error_detail),
		    last_updated_at = now()
		WHERE cutoff_id = $4;`,
		string(status), transactionID, errorDetail, cutoffID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update cutoff "+cutoffID, err)
	}
	return nil
}
