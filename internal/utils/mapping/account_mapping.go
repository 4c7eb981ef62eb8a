package mapping

import (
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/models"
)

// ToModelClabeAccount converts a domain ClabeAccount to a model ClabeAccount
func ToModelClabeAccount(d domain.ClabeAccount) models.ClabeAccount {
	return models.ClabeAccount{
		ClabeAccountID: d.ClabeAccountID,
		CompanyID:      d.CompanyID,
		Clabe:          d.Clabe,
		Alias:          d.Alias,
		IsActive:       d.IsActive,
		IsConcentrator: d.IsConcentrator,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainClabeAccount converts a model ClabeAccount to a domain ClabeAccount
func ToDomainClabeAccount(m models.ClabeAccount) domain.ClabeAccount {
	return domain.ClabeAccount{
		ClabeAccountID: m.ClabeAccountID,
		CompanyID:      m.CompanyID,
		Clabe:          m.Clabe,
		Alias:          m.Alias,
		IsActive:       m.IsActive,
		IsConcentrator: m.IsConcentrator,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCompany converts a model Company to a domain Company
func ToDomainCompany(m models.Company) domain.Company {
	return domain.Company{
		CompanyID:         m.CompanyID,
		Name:              m.Name,
		CommissionPercent: m.CommissionPercent,
		ParentAccount:     strOrEmpty(m.ParentAccount),
		IsActive:          m.IsActive,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainClabeAccountSlice converts a slice of model ClabeAccounts to domain ones
func ToDomainClabeAccountSlice(ms []models.ClabeAccount) []domain.ClabeAccount {
	ds := make([]domain.ClabeAccount, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainClabeAccount(m)
	}
	return ds
}
