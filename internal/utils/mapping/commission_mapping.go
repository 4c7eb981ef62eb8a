package mapping

import (
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/models"
)

// ToModelPendingCommission converts a domain PendingCommission to its model
func ToModelPendingCommission(d domain.PendingCommission) models.PendingCommission {
	return models.PendingCommission{
		CommissionID:        d.CommissionID,
		CompanyID:           d.CompanyID,
		SourceTransactionID: d.SourceTransactionID,
		Amount:              d.Amount,
		PercentApplied:      d.PercentApplied,
		Status:              string(d.Status),
		CutoffID:            d.CutoffID,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPendingCommission converts a model PendingCommission to its domain form
func ToDomainPendingCommission(m models.PendingCommission) domain.PendingCommission {
	return domain.PendingCommission{
		CommissionID:        m.CommissionID,
		CompanyID:           m.CompanyID,
		SourceTransactionID: m.SourceTransactionID,
		Amount:              m.Amount,
		PercentApplied:      m.PercentApplied,
		Status:              domain.CommissionStatus(m.Status),
		CutoffID:            m.CutoffID,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPendingCommissionSlice converts a slice of model PendingCommissions
func ToDomainPendingCommissionSlice(ms []models.PendingCommission) []domain.PendingCommission {
	ds := make([]domain.PendingCommission, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPendingCommission(m)
	}
	return ds
}

// ToModelCommissionCutoff converts a domain CommissionCutoff to its model
func ToModelCommissionCutoff(d domain.CommissionCutoff) models.CommissionCutoff {
	return models.CommissionCutoff{
		CutoffID:        d.CutoffID,
		CompanyID:       d.CompanyID,
		TargetAccount:   d.TargetAccount,
		TotalAmount:     d.TotalAmount,
		CommissionCount: d.CommissionCount,
		Status:          string(d.Status),
		TransactionID:   d.TransactionID,
		CutoffDate:      d.CutoffDate,
		ErrorDetail:     d.ErrorDetail,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCommissionCutoff converts a model CommissionCutoff to its domain form
func ToDomainCommissionCutoff(m models.CommissionCutoff) domain.CommissionCutoff {
	return domain.CommissionCutoff{
		CutoffID:        m.CutoffID,
		CompanyID:       m.CompanyID,
		TargetAccount:   m.TargetAccount,
		TotalAmount:     m.TotalAmount,
		CommissionCount: m.CommissionCount,
		Status:          domain.CutoffStatus(m.Status),
		TransactionID:   m.TransactionID,
		CutoffDate:      m.CutoffDate,
		ErrorDetail:     m.ErrorDetail,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}
