package dto_test

import (
	"testing"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepositPayload_Flat(t *testing.T) {
	raw := []byte(`{"trackingKey":"TRK001","amount":150.75,"beneficiaryAccount":"646180157000000004","payerName":"ACME"}`)

	event, err := dto.ParseDepositPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "TRK001", event.TrackingKey)
	assert.Equal(t, "150.75", event.Amount.StringFixed(2))
	assert.Equal(t, "646180157000000004", event.BeneficiaryAccount)
	assert.Equal(t, "ACME", event.PayerName)
}

func TestParseDepositPayload_Enveloped(t *testing.T) {
	raw := []byte(`{"type":"supply","data":{"trackingKey":"TRK002","amount":99.99,"beneficiaryAccount":"646180157000000004"}}`)

	event, err := dto.ParseDepositPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "TRK002", event.TrackingKey)
}

func TestParseDepositPayload_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `tracking=TRK001`},
		{"missing tracking key", `{"amount":10,"beneficiaryAccount":"646180157000000004"}`},
		{"zero amount", `{"trackingKey":"TRK003","amount":0,"beneficiaryAccount":"646180157000000004"}`},
		{"negative amount", `{"trackingKey":"TRK003","amount":-5,"beneficiaryAccount":"646180157000000004"}`},
		{"missing beneficiary", `{"trackingKey":"TRK003","amount":10}`},
		{"wrong envelope type", `{"type":"orderStatus","data":{"trackingKey":"TRK003","amount":10,"beneficiaryAccount":"646180157000000004"}}`},
		{"empty envelope data", `{"type":"supply"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dto.ParseDepositPayload([]byte(tt.raw))
			assert.ErrorIs(t, err, apperrors.ErrMalformedWebhookPayload)
		})
	}
}

func TestParseOrderStatusPayload(t *testing.T) {
	event, err := dto.ParseOrderStatusPayload([]byte(`{"orderId":"ORD-9","status":"settled"}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-9", event.EffectiveOrderID())
	assert.Equal(t, "settled", event.Status)

	// Partner sometimes sends "id" instead of "orderId".
	event, err = dto.ParseOrderStatusPayload([]byte(`{"id":"ORD-10","status":"returned"}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-10", event.EffectiveOrderID())

	// Enveloped variant.
	event, err = dto.ParseOrderStatusPayload([]byte(`{"type":"orderStatus","data":{"orderId":"ORD-11","status":"failed","cause":"account closed"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-11", event.EffectiveOrderID())
	require.NotNil(t, event.ErrorDetail)
	assert.Equal(t, "account closed", *event.ErrorDetail)
}

func TestParseOrderStatusPayload_Malformed(t *testing.T) {
	_, err := dto.ParseOrderStatusPayload([]byte(`{"status":"settled"}`))
	assert.ErrorIs(t, err, apperrors.ErrMalformedWebhookPayload)

	_, err = dto.ParseOrderStatusPayload([]byte(`{"orderId":"ORD-9"}`))
	assert.ErrorIs(t, err, apperrors.ErrMalformedWebhookPayload)
}
