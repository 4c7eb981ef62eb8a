package repositories

import (
	"context"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

// ClabeAccountRepositoryFacade defines persistence operations for sub-accounts
// and their owning companies.
type ClabeAccountRepositoryFacade interface {
	// FindAccountByID returns the sub-account or apperrors.ErrNotFound.
	FindAccountByID(ctx context.Context, clabeAccountID string) (*domain.ClabeAccount, error)
	// FindAccountByClabe resolves the 18-digit account number, used to assign
	// inbound deposits.
	FindAccountByClabe(ctx context.Context, clabe string) (*domain.ClabeAccount, error)
	// FindConcentratorByCompany returns the company's main sub-account, the
	// one daily cutoffs debit.
	FindConcentratorByCompany(ctx context.Context, companyID string) (*domain.ClabeAccount, error)
	// FindCompanyByID returns the tenant company or apperrors.ErrNotFound.
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
}
