package domain

import (
	"github.com/shopspring/decimal"
)

// ClabeAccount is a cost-center sub-account identified by an 18-digit CLABE.
// Its balance is never stored; it is always derived from transaction history.
type ClabeAccount struct {
	ClabeAccountID string `json:"clabeAccountID"`
	CompanyID      string `json:"companyID"`
	Clabe          string `json:"clabe"` // 18-digit account number
	Alias          string `json:"alias"`
	IsActive       bool   `json:"isActive"`
	// IsConcentrator marks the company's main account, the one the daily
	// commission cutoff debits.
	IsConcentrator bool `json:"isConcentrator"`
	AuditFields
}

// Company is the tenant owning a set of sub-accounts.
type Company struct {
	CompanyID string `json:"companyID"`
	Name      string `json:"name"`
	// CommissionPercent is the fee applied to each settled inbound transfer,
	// e.g. 2.5 means 2.5%. Zero disables commission accrual.
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	// ParentAccount is the CLABE that receives the daily commission cutoff.
	// Empty means accrual still happens but cutoffs fail until configured.
	ParentAccount string `json:"parentAccount"`
	IsActive      bool   `json:"isActive"`
	AuditFields
}

// Balance is the derived position of one sub-account. Each sub-account is an
// independent cost center: it can only spend what it itself has received.
type Balance struct {
	ClabeAccountID string `json:"clabeAccountID"`
	// SettledIncoming sums incoming transactions in status scattered.
	SettledIncoming decimal.Decimal `json:"settledIncoming"`
	// SettledOutgoing sums outgoing transactions in status sent or scattered.
	SettledOutgoing decimal.Decimal `json:"settledOutgoing"`
	// InTransit sums outgoing transactions already committed to spend but not
	// yet settled (pending_confirmation, pending, sent, queued). A sent
	// transaction is counted here and in SettledOutgoing on purpose: it is
	// both spent and still in-flight risk, so available is under- rather than
	// over-estimated.
	InTransit decimal.Decimal `json:"inTransit"`
	Available decimal.Decimal `json:"available"`
}
