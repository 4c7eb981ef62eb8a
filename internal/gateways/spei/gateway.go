// Package spei holds the banking gateway adapters. The HTTP adapter to the
// real SPEI participant is deployment-specific and injected at build time;
// the log gateway here is what local and test environments run against.
package spei

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dispersa-mx/spei_ledger/internal/core/ports/gateways"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
)

// LogGateway accepts every order and fabricates an order id. It never settles
// anything on its own; order status webhooks drive the rest of the lifecycle
// just like with a real gateway.
type LogGateway struct{}

// NewLogGateway creates the local development gateway.
func NewLogGateway() *LogGateway {
	return &LogGateway{}
}

var _ gateways.BankGateway = (*LogGateway)(nil)

// Dispatch logs the order and returns a synthetic order id.
func (g *LogGateway) Dispatch(ctx context.Context, order gateways.SpeiOrder) (string, error) {
	externalOrderID := "SPEI-" + uuid.NewString()
	middleware.GetLoggerFromCtx(ctx).Info("Dispatching SPEI order",
		slog.String("tracking_key", order.TrackingKey),
		slog.String("amount", order.Amount.StringFixed(2)),
		slog.String("beneficiary_account", order.BeneficiaryAccount),
		slog.String("external_order_id", externalOrderID))
	return externalOrderID, nil
}
