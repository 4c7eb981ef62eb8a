package gateways

import (
	"context"

	"github.com/shopspring/decimal"
)

// SpeiOrder is the payload handed to the banking gateway for dispatch. It is
// also what gets stashed as JSON while a transaction sits in the grace period.
type SpeiOrder struct {
	TrackingKey        string          `json:"trackingKey"`
	Amount             decimal.Decimal `json:"amount"`
	Concept            string          `json:"concept"`
	Reference          *int64          `json:"reference,omitempty"`
	BeneficiaryAccount string          `json:"beneficiaryAccount"`
	BeneficiaryBank    string          `json:"beneficiaryBank"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	OriginAccount      string          `json:"originAccount"`
}

// BankGateway is the external SPEI network collaborator. The core only
// decides whether and how much to move; dispatch happens out of process and
// settlement comes back through the webhook gateway or the returned order id.
type BankGateway interface {
	// Dispatch submits the order and returns the gateway's order id.
	Dispatch(ctx context.Context, order SpeiOrder) (externalOrderID string, err error)
}
