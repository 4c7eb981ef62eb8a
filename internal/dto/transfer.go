package dto

import (
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransferRequest is the inbound shape for creating an outgoing transfer.
type CreateTransferRequest struct {
	ClabeAccountID     string          `json:"clabeAccountID" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	Concept            string          `json:"concept" binding:"required,max=210"`
	Reference          *int64          `json:"reference"`
	BeneficiaryAccount string          `json:"beneficiaryAccount" binding:"required,spei_account"`
	BeneficiaryBank    string          `json:"beneficiaryBank" binding:"required"`
	BeneficiaryName    string          `json:"beneficiaryName" binding:"required,max=40"`
	BeneficiaryTaxID   string          `json:"beneficiaryTaxID"`
}

// TransferResponse is the outbound shape of a transaction.
type TransferResponse struct {
	TransactionID        string     `json:"transactionID"`
	ClabeAccountID       *string    `json:"clabeAccountID"`
	Direction            string     `json:"direction"`
	Status               string     `json:"status"`
	Amount               string     `json:"amount"`
	Concept              string     `json:"concept"`
	TrackingKey          string     `json:"trackingKey"`
	Reference            *int64     `json:"reference,omitempty"`
	BeneficiaryAccount   string     `json:"beneficiaryAccount,omitempty"`
	BeneficiaryName      string     `json:"beneficiaryName,omitempty"`
	ExternalOrderID      *string    `json:"externalOrderID,omitempty"`
	ConfirmationDeadline *time.Time `json:"confirmationDeadline,omitempty"`
	SettledAt            *time.Time `json:"settledAt,omitempty"`
	Signed               bool       `json:"signed"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ToTransferResponse maps a domain transaction to its response shape.
func ToTransferResponse(txn *domain.Transaction) TransferResponse {
	return TransferResponse{
		TransactionID:        txn.TransactionID,
		ClabeAccountID:       txn.ClabeAccountID,
		Direction:            string(txn.Direction),
		Status:               string(txn.Status),
		Amount:               txn.Amount.StringFixed(2),
		Concept:              txn.Concept,
		TrackingKey:          txn.TrackingKey,
		Reference:            txn.Reference,
		BeneficiaryAccount:   txn.Beneficiary.Account,
		BeneficiaryName:      txn.Beneficiary.Name,
		ExternalOrderID:      txn.ExternalOrderID,
		ConfirmationDeadline: txn.ConfirmationDeadline,
		SettledAt:            txn.SettledAt,
		Signed:               txn.Signature != "",
		CreatedAt:            txn.CreatedAt,
	}
}

// BalanceResponse is the outbound shape of a derived balance.
type BalanceResponse struct {
	ClabeAccountID  string `json:"clabeAccountID"`
	SettledIncoming string `json:"settledIncoming"`
	SettledOutgoing string `json:"settledOutgoing"`
	InTransit       string `json:"inTransit"`
	Available       string `json:"available"`
}

// ToBalanceResponse maps a domain balance to its response shape.
func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		ClabeAccountID:  b.ClabeAccountID,
		SettledIncoming: b.SettledIncoming.StringFixed(2),
		SettledOutgoing: b.SettledOutgoing.StringFixed(2),
		InTransit:       b.InTransit.StringFixed(2),
		Available:       b.Available.StringFixed(2),
	}
}

// TransitionResponse is one entry of a transaction's status history.
type TransitionResponse struct {
	PreviousStatus string            `json:"previousStatus"`
	NewStatus      string            `json:"newStatus"`
	Actor          string            `json:"actor"`
	Source         string            `json:"source"`
	OriginIP       string            `json:"originIP,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
}

// ToTransitionResponseSlice maps transition log entries to their response shape.
func ToTransitionResponseSlice(entries []domain.StateTransitionLogEntry) []TransitionResponse {
	out := make([]TransitionResponse, len(entries))
	for i, e := range entries {
		out[i] = TransitionResponse{
			PreviousStatus: string(e.PreviousStatus),
			NewStatus:      string(e.NewStatus),
			Actor:          e.Actor,
			Source:         string(e.Source),
			OriginIP:       e.OriginIP,
			Metadata:       e.Metadata,
			OccurredAt:     e.OccurredAt,
		}
	}
	return out
}
