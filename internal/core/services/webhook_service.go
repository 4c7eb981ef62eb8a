package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
	"github.com/dispersa-mx/spei_ledger/internal/platform/cache"
	"github.com/dispersa-mx/spei_ledger/internal/utils/signing"
)

const (
	webhookActor    = "bank-webhook"
	webhookDedupTTL = 24 * time.Hour
)

// WebhookService owns idempotency and state processing for inbound bank
// notifications. Source trust is already enforced by middleware when a
// request reaches it.
//
// Deduplication is two-tier: a shared cache absorbs rapid replays cheaply,
// and the processed_webhooks unique constraint is the durable guarantee.
type WebhookService struct {
	webhookRepo   portsrepo.WebhookRepositoryFacade
	txnRepo       portsrepo.TransactionRepositoryFacade
	accountRepo   portsrepo.ClabeAccountRepositoryFacade
	commissionSvc portssvc.CommissionSvcFacade
	auditSvc      portssvc.AuditSvcFacade
	dedupCache    cache.Store
	signer        *signing.Signer
	now           func() time.Time
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	wr portsrepo.WebhookRepositoryFacade,
	tr portsrepo.TransactionRepositoryFacade,
	ar portsrepo.ClabeAccountRepositoryFacade,
	cs portssvc.CommissionSvcFacade,
	as portssvc.AuditSvcFacade,
	dedupCache cache.Store,
	signer *signing.Signer,
) *WebhookService {
	return &WebhookService{
		webhookRepo:   wr,
		txnRepo:       tr,
		accountRepo:   ar,
		commissionSvc: cs,
		auditSvc:      as,
		dedupCache:    dedupCache,
		signer:        signer,
		now:           time.Now,
	}
}

var _ portssvc.WebhookSvcFacade = (*WebhookService)(nil)

func dedupCacheKey(webhookType domain.WebhookType, trackingKey string) string {
	return "webhook:" + string(webhookType) + ":" + trackingKey
}

func payloadHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// isDuplicate checks the cache fast path and then the durable idempotency
// record for (type, tracking key).
func (s *WebhookService) isDuplicate(ctx context.Context, webhookType domain.WebhookType, trackingKey string) (bool, error) {
	if _, ok, err := s.dedupCache.Get(ctx, dedupCacheKey(webhookType, trackingKey)); err == nil && ok {
		return true, nil
	}

	_, err := s.webhookRepo.FindProcessed(ctx, webhookType, trackingKey)
	if err == nil {
		// Re-populate the cache so the next replay short-circuits earlier.
		_, _ = s.dedupCache.SetNX(ctx, dedupCacheKey(webhookType, trackingKey), "1", webhookDedupTTL)
		return true, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// recordOutcome persists the idempotency record and primes the dedup cache.
func (s *WebhookService) recordOutcome(ctx context.Context, webhookType domain.WebhookType, trackingKey, hash string, outcome domain.WebhookOutcome, sourceIP string) {
	logger := middleware.GetLoggerFromCtx(ctx)

	record := domain.ProcessedWebhook{
		WebhookID:   uuid.NewString(),
		Type:        webhookType,
		TrackingKey: trackingKey,
		PayloadHash: hash,
		Outcome:     outcome,
		SourceIP:    sourceIP,
		ProcessedAt: s.now().UTC(),
	}
	if err := s.webhookRepo.RecordProcessed(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A concurrent request beat us to the record; the constraint did
			// its job.
			logger.Warn("Concurrent webhook already recorded",
				slog.String("type", string(webhookType)), slog.String("tracking_key", trackingKey))
		} else {
			logger.Error("Failed to record processed webhook",
				slog.String("type", string(webhookType)), slog.String("tracking_key", trackingKey),
				slog.String("error", err.Error()))
		}
		return
	}
	_, _ = s.dedupCache.SetNX(ctx, dedupCacheKey(webhookType, trackingKey), "1", webhookDedupTTL)
}

// ProcessDeposit records an inbound settled deposit: a new incoming
// transaction in scattered, commission accrual for the owning company, and
// the idempotency record. Replays return duplicate with zero state change.
func (s *WebhookService) ProcessDeposit(ctx context.Context, event dto.DepositEvent, rawPayload []byte, sourceIP string) (domain.WebhookOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	dup, err := s.isDuplicate(ctx, domain.WebhookDeposit, event.TrackingKey)
	if err != nil {
		return domain.WebhookFailure, fmt.Errorf("failed to check webhook idempotency: %w", err)
	}
	if dup {
		logger.Info("Duplicate deposit webhook ignored", slog.String("tracking_key", event.TrackingKey))
		return domain.WebhookDuplicate, nil
	}

	now := s.now().UTC()

	// An unknown CLABE still gets recorded: unassigned inbound money must not
	// vanish, it just has no owning sub-account yet.
	var clabeAccountID *string
	var companyID string
	account, err := s.accountRepo.FindAccountByClabe(ctx, event.BeneficiaryAccount)
	switch {
	case err == nil:
		clabeAccountID = &account.ClabeAccountID
		companyID = account.CompanyID
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Deposit for unknown CLABE recorded as unassigned",
			slog.String("clabe", event.BeneficiaryAccount), slog.String("tracking_key", event.TrackingKey))
	default:
		return domain.WebhookFailure, fmt.Errorf("failed to resolve beneficiary account: %w", err)
	}

	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		ClabeAccountID: clabeAccountID,
		CompanyID:      companyID,
		Direction:      domain.Incoming,
		Status:         domain.StatusScattered,
		Amount:         event.Amount,
		Concept:        event.Concept,
		TrackingKey:    event.TrackingKey,
		Reference:      event.Reference,
		Beneficiary:    domain.Counterparty{Account: event.BeneficiaryAccount},
		Payer: domain.Counterparty{
			Account: event.PayerAccount,
			Bank:    event.PayerBank,
			Name:    event.PayerName,
			TaxID:   event.PayerTaxID,
		},
		SettledAt: &now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     webhookActor,
			LastUpdatedAt: now,
			LastUpdatedBy: webhookActor,
		},
	}
	txn.Signature = s.signer.Sign(txn)

	entry := newTransitionEntry(txn.TransactionID, txn.Status, txn.Status, webhookActor, domain.SourceWebhook, sourceIP, now)
	if err := s.txnRepo.CreateIncoming(ctx, txn, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// The tracking key already landed through a concurrent request.
			logger.Info("Deposit already recorded under its tracking key", slog.String("tracking_key", event.TrackingKey))
			s.recordOutcome(ctx, domain.WebhookDeposit, event.TrackingKey, payloadHash(rawPayload), domain.WebhookDuplicate, sourceIP)
			return domain.WebhookDuplicate, nil
		}
		return domain.WebhookFailure, fmt.Errorf("failed to record deposit: %w", err)
	}

	logger.Info("Deposit recorded",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("tracking_key", txn.TrackingKey),
		slog.String("amount", txn.Amount.StringFixed(2)))

	if companyID != "" {
		if err := s.commissionSvc.AccrueForTransaction(ctx, txn); err != nil {
			// The deposit is already committed; accrual problems are an
			// operator concern, not a reason to bounce the bank.
			logger.Error("Commission accrual failed",
				slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		}
	}

	s.recordOutcome(ctx, domain.WebhookDeposit, event.TrackingKey, payloadHash(rawPayload), domain.WebhookSuccess, sourceIP)
	return domain.WebhookSuccess, nil
}

// orderStatusTarget maps the gateway's vocabulary onto the internal state
// machine.
func orderStatusTarget(status string) (domain.TransactionStatus, bool) {
	switch strings.ToLower(status) {
	case "settled", "liquidated":
		return domain.StatusScattered, true
	case "returned":
		return domain.StatusReturned, true
	case "failed":
		return domain.StatusFailed, true
	case "sent":
		return domain.StatusSent, true
	case "queued":
		return domain.StatusQueued, true
	}
	return "", false
}

// ProcessOrderStatus advances a dispatched outgoing transaction to the state
// the gateway reports. The idempotency key includes the reported status so an
// order can legally progress through several updates while exact replays are
// still rejected.
func (s *WebhookService) ProcessOrderStatus(ctx context.Context, event dto.OrderStatusEvent, rawPayload []byte, sourceIP string) (domain.WebhookOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	orderID := event.EffectiveOrderID()
	eventKey := orderID + ":" + strings.ToLower(event.Status)

	dup, err := s.isDuplicate(ctx, domain.WebhookOrderStatus, eventKey)
	if err != nil {
		return domain.WebhookFailure, fmt.Errorf("failed to check webhook idempotency: %w", err)
	}
	if dup {
		logger.Info("Duplicate order status webhook ignored", slog.String("order_id", orderID), slog.String("status", event.Status))
		return domain.WebhookDuplicate, nil
	}

	hash := payloadHash(rawPayload)

	target, known := orderStatusTarget(event.Status)
	if !known {
		logger.Warn("Order status webhook with unknown status", slog.String("order_id", orderID), slog.String("status", event.Status))
		s.recordOutcome(ctx, domain.WebhookOrderStatus, eventKey, hash, domain.WebhookFailure, sourceIP)
		return domain.WebhookFailure, fmt.Errorf("%w: unknown status %q", apperrors.ErrMalformedWebhookPayload, event.Status)
	}

	txn, err := s.findOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Order status webhook for unknown order", slog.String("order_id", orderID))
			s.auditSvc.RecordSecurityEvent(ctx, domain.SecurityEvent{
				Action:   "webhook_unknown_order",
				Severity: domain.SeverityWarning,
				Actor:    webhookActor,
				OriginIP: sourceIP,
				Detail:   "order status update for an order this ledger never dispatched",
				Metadata: map[string]string{"order_id": orderID, "status": event.Status},
			})
			s.recordOutcome(ctx, domain.WebhookOrderStatus, eventKey, hash, domain.WebhookFailure, sourceIP)
		}
		return domain.WebhookFailure, err
	}

	now := s.now().UTC()
	update := portsrepo.StatusUpdate{ClearDeferredOrder: true}
	switch target {
	case domain.StatusScattered:
		update.SettledAt = &now
	case domain.StatusFailed, domain.StatusReturned:
		update.ErrorDetail = event.ErrorDetail
	}

	entry := newTransitionEntry(txn.TransactionID, txn.Status, target, webhookActor, domain.SourceWebhook, sourceIP, now)
	entry.Metadata = map[string]string{"order_id": orderID, "reported_status": event.Status}
	if err := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, txn.Status, target, update, entry); err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			logger.Warn("Order status webhook rejected by state machine",
				slog.String("transaction_id", txn.TransactionID),
				slog.String("from", string(txn.Status)), slog.String("to", string(target)))
			s.auditSvc.RecordSecurityEvent(ctx, domain.SecurityEvent{
				Action:   "webhook_invalid_transition",
				Severity: domain.SeverityWarning,
				Actor:    webhookActor,
				OriginIP: sourceIP,
				Detail:   "gateway reported a status the state machine does not allow from the current one",
				Metadata: map[string]string{
					"transaction_id": txn.TransactionID,
					"from":           string(txn.Status),
					"to":             string(target),
				},
			})
			s.recordOutcome(ctx, domain.WebhookOrderStatus, eventKey, hash, domain.WebhookFailure, sourceIP)
			return domain.WebhookFailure, err
		}
		return domain.WebhookFailure, err
	}

	logger.Info("Order status applied",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("from", string(txn.Status)), slog.String("to", string(target)))

	s.recordOutcome(ctx, domain.WebhookOrderStatus, eventKey, hash, domain.WebhookSuccess, sourceIP)
	return domain.WebhookSuccess, nil
}

// findOrder resolves the gateway's order id against, in order, the stored
// external order id, the tracking key and our own transaction id.
func (s *WebhookService) findOrder(ctx context.Context, orderID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindByExternalOrderID(ctx, orderID)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	txn, err = s.txnRepo.FindByTrackingKey(ctx, orderID)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.txnRepo.FindByID(ctx, orderID)
}
