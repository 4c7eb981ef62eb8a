package mapping

import (
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/models"
)

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:        d.TransactionID,
		ClabeAccountID:       d.ClabeAccountID,
		CompanyID:            d.CompanyID,
		Direction:            string(d.Direction),
		Status:               string(d.Status),
		Amount:               d.Amount,
		Concept:              d.Concept,
		TrackingKey:          d.TrackingKey,
		Reference:            d.Reference,
		BeneficiaryAccount:   strPtrOrNil(d.Beneficiary.Account),
		BeneficiaryBank:      strPtrOrNil(d.Beneficiary.Bank),
		BeneficiaryName:      strPtrOrNil(d.Beneficiary.Name),
		BeneficiaryTaxID:     strPtrOrNil(d.Beneficiary.TaxID),
		PayerAccount:         strPtrOrNil(d.Payer.Account),
		PayerBank:            strPtrOrNil(d.Payer.Bank),
		PayerName:            strPtrOrNil(d.Payer.Name),
		PayerTaxID:           strPtrOrNil(d.Payer.TaxID),
		ExternalOrderID:      d.ExternalOrderID,
		ErrorDetail:          d.ErrorDetail,
		SettledAt:            d.SettledAt,
		ConfirmedAt:          d.ConfirmedAt,
		ConfirmationDeadline: d.ConfirmationDeadline,
		DeferredOrder:        d.DeferredOrder,
		Signature:            strPtrOrNil(d.Signature),
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:  m.TransactionID,
		ClabeAccountID: m.ClabeAccountID,
		CompanyID:      m.CompanyID,
		Direction:      domain.TransactionDirection(m.Direction),
		Status:         domain.TransactionStatus(m.Status),
		Amount:         m.Amount,
		Concept:        m.Concept,
		TrackingKey:    m.TrackingKey,
		Reference:      m.Reference,
		Beneficiary: domain.Counterparty{
			Account: strOrEmpty(m.BeneficiaryAccount),
			Bank:    strOrEmpty(m.BeneficiaryBank),
			Name:    strOrEmpty(m.BeneficiaryName),
			TaxID:   strOrEmpty(m.BeneficiaryTaxID),
		},
		Payer: domain.Counterparty{
			Account: strOrEmpty(m.PayerAccount),
			Bank:    strOrEmpty(m.PayerBank),
			Name:    strOrEmpty(m.PayerName),
			TaxID:   strOrEmpty(m.PayerTaxID),
		},
		ExternalOrderID:      m.ExternalOrderID,
		ErrorDetail:          m.ErrorDetail,
		SettledAt:            m.SettledAt,
		ConfirmedAt:          m.ConfirmedAt,
		ConfirmationDeadline: m.ConfirmationDeadline,
		DeferredOrder:        m.DeferredOrder,
		Signature:            strOrEmpty(m.Signature),
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
