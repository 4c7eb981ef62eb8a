package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether money enters or leaves a sub-account.
type TransactionDirection string

const (
	Incoming TransactionDirection = "incoming"
	Outgoing TransactionDirection = "outgoing"
)

// TransactionStatus is the lifecycle state of a SPEI transaction.
type TransactionStatus string

const (
	// StatusPendingConfirmation is the grace-period hold: the order is stashed,
	// not dispatched, and the client may still cancel before the deadline.
	StatusPendingConfirmation TransactionStatus = "pending_confirmation"
	// StatusPending means the transaction is confirmed and awaiting dispatch.
	StatusPending TransactionStatus = "pending"
	// StatusSent means the order was handed to the banking gateway.
	StatusSent TransactionStatus = "sent"
	// StatusQueued means the gateway accepted the order for deferred dispatch.
	StatusQueued TransactionStatus = "queued"
	// StatusScattered is the settled terminal-ish state ("dispersada"): money
	// actually moved. Only a refund (returned) is legal from here.
	StatusScattered TransactionStatus = "scattered"
	// StatusReturned means the counterparty bank bounced the transfer back.
	StatusReturned TransactionStatus = "returned"
	// StatusCanceled means the hold was canceled inside the grace period.
	StatusCanceled TransactionStatus = "canceled"
	// StatusFailed means dispatch or settlement failed; a manual retry may
	// move it back to pending.
	StatusFailed TransactionStatus = "failed"
)

// Counterparty holds the beneficiary or payer identity on the far side of a
// transfer. All fields are optional on incoming notifications.
type Counterparty struct {
	Account string `json:"account"` // CLABE or card number
	Bank    string `json:"bank"`    // bank code from the external catalog
	Name    string `json:"name"`
	TaxID   string `json:"taxID"` // RFC/CURP
}

// Transaction is the central entity: one SPEI leg, incoming or outgoing.
// It is never deleted and becomes immutable once in a terminal state.
type Transaction struct {
	TransactionID  string               `json:"transactionID"`
	ClabeAccountID *string              `json:"clabeAccountID"` // nil for unassigned inbound deposits
	CompanyID      string               `json:"companyID"`
	Direction      TransactionDirection `json:"direction"`
	Status         TransactionStatus    `json:"status"`
	Amount         decimal.Decimal      `json:"amount"` // always > 0, 2 decimals
	Concept        string               `json:"concept"`
	TrackingKey    string               `json:"trackingKey"` // globally unique (clave de rastreo)
	Reference      *int64               `json:"reference"`   // optional numeric reference
	Beneficiary    Counterparty         `json:"beneficiary"`
	Payer          Counterparty         `json:"payer"`
	// ExternalOrderID is the banking gateway's id for a dispatched order.
	ExternalOrderID *string `json:"externalOrderID"`
	ErrorDetail     *string `json:"errorDetail"`
	SettledAt       *time.Time `json:"settledAt"`
	ConfirmedAt     *time.Time `json:"confirmedAt"`
	// ConfirmationDeadline is set only while status is pending_confirmation.
	ConfirmationDeadline *time.Time `json:"confirmationDeadline"`
	// DeferredOrder stashes the would-be gateway order parameters as JSON while
	// the transaction sits in the grace period. Discarded on cancel.
	DeferredOrder []byte `json:"-"`
	// Signature is the HMAC over the canonical serialization of the immutable
	// fields. Empty means integrity cannot be verified.
	Signature string `json:"signature"`
	AuditFields
}

// IsTerminal reports whether the transaction reached a state from which no
// forward transition exists (refund from scattered excepted).
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case StatusScattered, StatusCanceled, StatusReturned:
		return true
	}
	return false
}

// InGracePeriod reports whether the transaction is still cancelable at the
// given instant.
func (t *Transaction) InGracePeriod(now time.Time) bool {
	return t.Status == StatusPendingConfirmation &&
		t.ConfirmationDeadline != nil &&
		now.Before(*t.ConfirmationDeadline)
}
