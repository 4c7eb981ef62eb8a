package mapping

import (
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/models"
)

// ToModelProcessedWebhook converts a domain ProcessedWebhook to its model.
func ToModelProcessedWebhook(d domain.ProcessedWebhook) models.ProcessedWebhook {
	return models.ProcessedWebhook{
		WebhookID:   d.WebhookID,
		WebhookType: string(d.Type),
		TrackingKey: d.TrackingKey,
		PayloadHash: d.PayloadHash,
		Outcome:     string(d.Outcome),
		SourceIP:    d.SourceIP,
		ProcessedAt: d.ProcessedAt,
	}
}

// ToDomainProcessedWebhook converts a model ProcessedWebhook to its domain form.
func ToDomainProcessedWebhook(m models.ProcessedWebhook) domain.ProcessedWebhook {
	return domain.ProcessedWebhook{
		WebhookID:   m.WebhookID,
		Type:        domain.WebhookType(m.WebhookType),
		TrackingKey: m.TrackingKey,
		PayloadHash: m.PayloadHash,
		Outcome:     domain.WebhookOutcome(m.Outcome),
		SourceIP:    m.SourceIP,
		ProcessedAt: m.ProcessedAt,
	}
}
