package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingCommission is the row shape of the pending_commissions table.
type PendingCommission struct {
	CommissionID        string          `db:"commission_id"`
	CompanyID           string          `db:"company_id"`
	SourceTransactionID string          `db:"source_transaction_id"`
	Amount              decimal.Decimal `db:"amount"`
	PercentApplied      decimal.Decimal `db:"percent_applied"`
	Status              string          `db:"status"`
	CutoffID            *string         `db:"cutoff_id"`
	AuditFields
}

// CommissionCutoff is the row shape of the commission_cutoffs table.
type CommissionCutoff struct {
	CutoffID        string          `db:"cutoff_id"`
	CompanyID       string          `db:"company_id"`
	TargetAccount   string          `db:"target_account"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	CommissionCount int             `db:"commission_count"`
	Status          string          `db:"status"`
	TransactionID   *string         `db:"transaction_id"`
	CutoffDate      time.Time       `db:"cutoff_date"`
	ErrorDetail     *string         `db:"error_detail"`
	AuditFields
}
