package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// The banking partner sends two payload shapes, each either flat or wrapped in
// an envelope: {"type":"supply","data":{...}} for deposits and
// {"type":"orderStatus","data":{...}} for order status updates. Structural
// validation happens here, before any idempotency or state processing.

// DepositEvent is a validated inbound deposit notification.
type DepositEvent struct {
	TrackingKey        string          `json:"trackingKey"`
	Amount             decimal.Decimal `json:"amount"`
	BeneficiaryAccount string          `json:"beneficiaryAccount"`
	PayerAccount       string          `json:"payerAccount"`
	PayerBank          string          `json:"payerBank"`
	PayerName          string          `json:"payerName"`
	PayerTaxID         string          `json:"payerTaxID"`
	Concept            string          `json:"concept"`
	Reference          *int64          `json:"reference"`
}

// OrderStatusEvent is a validated order status notification. The partner
// sends the order id as either "orderId" or "id".
type OrderStatusEvent struct {
	OrderID     string  `json:"orderId"`
	AltID       string  `json:"id"`
	Status      string  `json:"status"`
	ErrorDetail *string `json:"cause"`
}

// EffectiveOrderID returns whichever order id field the partner populated.
func (e OrderStatusEvent) EffectiveOrderID() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.AltID
}

type webhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// unwrap peels the optional {type, data} envelope, checking the type tag when
// present.
func unwrap(raw []byte, wantType string) ([]byte, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object", apperrors.ErrMalformedWebhookPayload)
	}
	if env.Type == "" {
		return raw, nil
	}
	if !strings.EqualFold(env.Type, wantType) {
		return nil, fmt.Errorf("%w: unexpected type %q", apperrors.ErrMalformedWebhookPayload, env.Type)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: envelope has no data", apperrors.ErrMalformedWebhookPayload)
	}
	return env.Data, nil
}

// ParseDepositPayload validates and decodes a deposit notification.
func ParseDepositPayload(raw []byte) (DepositEvent, error) {
	var event DepositEvent
	data, err := unwrap(raw, "supply")
	if err != nil {
		return event, err
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("%w: %v", apperrors.ErrMalformedWebhookPayload, err)
	}
	if event.TrackingKey == "" {
		return event, fmt.Errorf("%w: missing trackingKey", apperrors.ErrMalformedWebhookPayload)
	}
	if !event.Amount.IsPositive() {
		return event, fmt.Errorf("%w: amount must be positive", apperrors.ErrMalformedWebhookPayload)
	}
	if event.BeneficiaryAccount == "" {
		return event, fmt.Errorf("%w: missing beneficiaryAccount", apperrors.ErrMalformedWebhookPayload)
	}
	return event, nil
}

// ParseOrderStatusPayload validates and decodes an order status notification.
func ParseOrderStatusPayload(raw []byte) (OrderStatusEvent, error) {
	var event OrderStatusEvent
	data, err := unwrap(raw, "orderStatus")
	if err != nil {
		return event, err
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("%w: %v", apperrors.ErrMalformedWebhookPayload, err)
	}
	if event.EffectiveOrderID() == "" {
		return event, fmt.Errorf("%w: missing order id", apperrors.ErrMalformedWebhookPayload)
	}
	if event.Status == "" {
		return event, fmt.Errorf("%w: missing status", apperrors.ErrMalformedWebhookPayload)
	}
	return event, nil
}
