package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus is the lifecycle of an accrued commission record.
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionProcessed CommissionStatus = "processed"
	CommissionFailed    CommissionStatus = "failed"
)

// PendingCommission is the fee accrued for one settled inbound transaction.
// Created at most once per source transaction.
type PendingCommission struct {
	CommissionID string `json:"commissionID"`
	CompanyID    string `json:"companyID"`
	// SourceTransactionID is the settled inbound transaction the fee applies to.
	SourceTransactionID string           `json:"sourceTransactionID"`
	Amount              decimal.Decimal  `json:"amount"`
	PercentApplied      decimal.Decimal  `json:"percentApplied"`
	Status              CommissionStatus `json:"status"`
	CutoffID            *string          `json:"cutoffID"`
	AuditFields
}

// CutoffStatus is the lifecycle of a daily commission cutoff.
type CutoffStatus string

const (
	CutoffPending    CutoffStatus = "pending"
	CutoffProcessing CutoffStatus = "processing"
	CutoffSent       CutoffStatus = "sent"
	CutoffFailed     CutoffStatus = "failed"
)

// CommissionCutoff consolidates all pending commissions of one company for one
// calendar day into a single outgoing transfer to the parent account. At most
// one cutoff exists per company per day.
type CommissionCutoff struct {
	CutoffID      string          `json:"cutoffID"`
	CompanyID     string          `json:"companyID"`
	TargetAccount string          `json:"targetAccount"` // parent CLABE
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	// CommissionCount is how many pending commissions were folded in.
	CommissionCount int          `json:"commissionCount"`
	Status          CutoffStatus `json:"status"`
	// TransactionID links the consolidated outgoing transaction once created.
	TransactionID *string   `json:"transactionID"`
	CutoffDate    time.Time `json:"cutoffDate"` // calendar day, not an instant
	ErrorDetail   *string   `json:"errorDetail"`
	AuditFields
}
