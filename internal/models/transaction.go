package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the row shape of the transactions table.
type Transaction struct {
	TransactionID        string          `db:"transaction_id"`
	ClabeAccountID       *string         `db:"clabe_account_id"`
	CompanyID            string          `db:"company_id"`
	Direction            string          `db:"direction"`
	Status               string          `db:"status"`
	Amount               decimal.Decimal `db:"amount"`
	Concept              string          `db:"concept"`
	TrackingKey          string          `db:"tracking_key"`
	Reference            *int64          `db:"reference"`
	BeneficiaryAccount   *string         `db:"beneficiary_account"`
	BeneficiaryBank      *string         `db:"beneficiary_bank"`
	BeneficiaryName      *string         `db:"beneficiary_name"`
	BeneficiaryTaxID     *string         `db:"beneficiary_tax_id"`
	PayerAccount         *string         `db:"payer_account"`
	PayerBank            *string         `db:"payer_bank"`
	PayerName            *string         `db:"payer_name"`
	PayerTaxID           *string         `db:"payer_tax_id"`
	ExternalOrderID      *string         `db:"external_order_id"`
	ErrorDetail          *string         `db:"error_detail"`
	SettledAt            *time.Time      `db:"settled_at"`
	ConfirmedAt          *time.Time      `db:"confirmed_at"`
	ConfirmationDeadline *time.Time      `db:"confirmation_deadline"`
	DeferredOrder        []byte          `db:"deferred_order"`
	Signature            *string         `db:"signature"`
	AuditFields
}
