package services

import (
	"context"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
)

// WebhookSvcFacade processes trusted inbound bank notifications. Source trust
// is enforced upstream by middleware; this service owns idempotency and the
// resulting state transitions.
type WebhookSvcFacade interface {
	// ProcessDeposit handles an inbound deposit notification: records the
	// incoming settled transaction, triggers commission accrual and persists
	// the idempotency record. A replay returns domain.WebhookDuplicate with
	// zero state change.
	ProcessDeposit(ctx context.Context, event dto.DepositEvent, rawPayload []byte, sourceIP string) (domain.WebhookOutcome, error)

	// ProcessOrderStatus advances a previously dispatched outgoing
	// transaction through the state machine.
	ProcessOrderStatus(ctx context.Context, event dto.OrderStatusEvent, rawPayload []byte, sourceIP string) (domain.WebhookOutcome, error)
}
