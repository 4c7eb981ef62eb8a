package repositories

import (
	"context"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

// WebhookRepositoryFacade defines persistence for webhook idempotency records.
type WebhookRepositoryFacade interface {
	// FindProcessed looks up the idempotency record for (type, tracking key),
	// returning apperrors.ErrNotFound when the event was never handled.
	FindProcessed(ctx context.Context, webhookType domain.WebhookType, trackingKey string) (*domain.ProcessedWebhook, error)

	// RecordProcessed persists the outcome of a handled event. The unique
	// constraint on (webhook_type, tracking_key) surfaces a concurrent
	// duplicate as apperrors.ErrDuplicate.
	RecordProcessed(ctx context.Context, record domain.ProcessedWebhook) error
}
