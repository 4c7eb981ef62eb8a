package pgsql

import (
	"context"
	"errors"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	"github.com/dispersa-mx/spei_ledger/internal/models"
	"github.com/dispersa-mx/spei_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxWebhookRepository persists webhook idempotency records.
type PgxWebhookRepository struct {
	BaseRepository
}

// NewWebhookRepository creates a new repository for processed-webhook data.
func NewWebhookRepository(pool *pgxpool.Pool) portsrepo.WebhookRepositoryFacade {
	return &PgxWebhookRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WebhookRepositoryFacade = (*PgxWebhookRepository)(nil)

// FindProcessed looks up the idempotency record for (type, tracking key).
func (r *PgxWebhookRepository) FindProcessed(ctx context.Context, webhookType domain.WebhookType, trackingKey string) (*domain.ProcessedWebhook, error) {
	var m models.ProcessedWebhook
	err := r.Pool.QueryRow(ctx, `
		SELECT webhook_id, webhook_type, tracking_key, payload_hash, outcome, source_ip, processed_at
		FROM processed_webhooks
		WHERE webhook_type = $1 AND tracking_key = $2;`,
		string(webhookType), trackingKey,
	).Scan(&m.WebhookID, &m.WebhookType, &m.TrackingKey, &m.PayloadHash, &m.Outcome, &m.SourceIP, &m.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find processed webhook "+trackingKey, err)
	}
	d := mapping.ToDomainProcessedWebhook(m)
	return &d, nil
}

// RecordProcessed persists the outcome of a handled event. The unique index
// on (webhook_type, tracking_key) is the cross-instance dedup backstop.
func (r *PgxWebhookRepository) RecordProcessed(ctx context.Context, record domain.ProcessedWebhook) error {
	m := mapping.ToModelProcessedWebhook(record)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO processed_webhooks (webhook_id, webhook_type, tracking_key, payload_hash, outcome, source_ip, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		m.WebhookID, m.WebhookType, m.TrackingKey, m.PayloadHash, m.Outcome, m.SourceIP, m.ProcessedAt,
	)
	if err != nil {
		if isPgError(err, pgErrUniqueViolation) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to record processed webhook "+record.TrackingKey, err)
	}
	return nil
}
