package pgsql

import (
	"context"
	"errors"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	"github.com/dispersa-mx/spei_ledger/internal/models"
	"github.com/dispersa-mx/spei_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxClabeAccountRepository persists sub-accounts and companies.
type PgxClabeAccountRepository struct {
	BaseRepository
}

// NewClabeAccountRepository creates a new repository for sub-account data.
func NewClabeAccountRepository(pool *pgxpool.Pool) portsrepo.ClabeAccountRepositoryFacade {
	return &PgxClabeAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ClabeAccountRepositoryFacade = (*PgxClabeAccountRepository)(nil)

const selectAccountColumns = `
	clabe_account_id, company_id, clabe, alias, is_active, is_concentrator,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanClabeAccount(row pgx.Row) (*domain.ClabeAccount, error) {
	var m models.ClabeAccount
	err := row.Scan(
		&m.ClabeAccountID, &m.CompanyID, &m.Clabe, &m.Alias, &m.IsActive, &m.IsConcentrator,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan sub-account row", err)
	}
	d := mapping.ToDomainClabeAccount(m)
	return &d, nil
}

// FindAccountByID retrieves a sub-account by its ID.
func (r *PgxClabeAccountRepository) FindAccountByID(ctx context.Context, clabeAccountID string) (*domain.ClabeAccount, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+selectAccountColumns+` FROM clabe_accounts WHERE clabe_account_id = $1;`,
		clabeAccountID)
	return scanClabeAccount(row)
}

// FindAccountByClabe resolves an 18-digit account number to its sub-account.
func (r *PgxClabeAccountRepository) FindAccountByClabe(ctx context.Context, clabe string) (*domain.ClabeAccount, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+selectAccountColumns+` FROM clabe_accounts WHERE clabe = $1;`,
		clabe)
	return scanClabeAccount(row)
}

// FindConcentratorByCompany returns the company's main sub-account.
func (r *PgxClabeAccountRepository) FindConcentratorByCompany(ctx context.Context, companyID string) (*domain.ClabeAccount, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+selectAccountColumns+`
		 FROM clabe_accounts
		 WHERE company_id = $1 AND is_concentrator AND is_active;`,
		companyID)
	return scanClabeAccount(row)
}

// FindCompanyByID retrieves a company by its ID.
func (r *PgxClabeAccountRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	var m models.Company
	err := r.Pool.QueryRow(ctx, `
		SELECT company_id, name, commission_percent, parent_account, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM companies
		WHERE company_id = $1;`,
		companyID,
	).Scan(
		&m.CompanyID, &m.Name, &m.CommissionPercent, &m.ParentAccount, &m.IsActive,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find company "+companyID, err)
	}
	d := mapping.ToDomainCompany(m)
	return &d, nil
}
