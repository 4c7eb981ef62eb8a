package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/core/ports/gateways"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
	"github.com/dispersa-mx/spei_ledger/internal/utils/signing"
)

const defaultSweepBatch = 100

// SweeperActor is recorded on transitions performed by the background sweep.
const SweeperActor = "sweeper"

// TransferService is the atomic transaction writer. Every money-committing
// write funnels through it: outgoing creation with the balance check, the
// grace-period hold, cancelation, the expiry sweep and manual retries.
type TransferService struct {
	txnRepo     portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.ClabeAccountRepositoryFacade
	gateway     gateways.BankGateway
	signer      *signing.Signer
	auditSvc    portssvc.AuditSvcFacade
	gracePeriod time.Duration
	sweepBatch  int
	now         func() time.Time
}

// NewTransferService creates a new TransferService. A zero grace period means
// outgoing transfers dispatch immediately instead of holding.
func NewTransferService(
	tr portsrepo.TransactionRepositoryFacade,
	ar portsrepo.ClabeAccountRepositoryFacade,
	gw gateways.BankGateway,
	signer *signing.Signer,
	auditSvc portssvc.AuditSvcFacade,
	gracePeriod time.Duration,
) *TransferService {
	return &TransferService{
		txnRepo:     tr,
		accountRepo: ar,
		gateway:     gw,
		signer:      signer,
		auditSvc:    auditSvc,
		gracePeriod: gracePeriod,
		sweepBatch:  defaultSweepBatch,
		now:         time.Now,
	}
}

var _ portssvc.TransferSvcFacade = (*TransferService)(nil)

// newTrackingKey builds a SPEI tracking key (clave de rastreo): date prefix
// plus random suffix, 29 alphanumeric characters, globally unique.
func newTrackingKey(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "DSP" + now.UTC().Format("20060102") + random[:18]
}

func newTransitionEntry(transactionID string, from, to domain.TransactionStatus, actor string, source domain.ChangeSource, originIP string, now time.Time) domain.StateTransitionLogEntry {
	return domain.StateTransitionLogEntry{
		EntryID:        uuid.NewString(),
		TransactionID:  transactionID,
		PreviousStatus: from,
		NewStatus:      to,
		Actor:          actor,
		Source:         source,
		OriginIP:       originIP,
		OccurredAt:     now,
	}
}

// CreateOutgoing creates a balance-checked outgoing transaction. With a grace
// period configured the order is stashed and the transaction holds in
// pending_confirmation until canceled or swept; otherwise it dispatches
// immediately.
func (s *TransferService) CreateOutgoing(ctx context.Context, req dto.CreateTransferRequest, actor, originIP string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, req.ClabeAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: clabe account %s not found", apperrors.ErrValidation, req.ClabeAccountID)
		}
		logger.Error("Failed to load clabe account", slog.String("clabe_account_id", req.ClabeAccountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load clabe account: %w", err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: clabe account %s is inactive", apperrors.ErrValidation, req.ClabeAccountID)
	}

	now := s.now().UTC()
	clabeAccountID := account.ClabeAccountID

	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		ClabeAccountID: &clabeAccountID,
		CompanyID:      account.CompanyID,
		Direction:      domain.Outgoing,
		Amount:         req.Amount,
		Concept:        req.Concept,
		TrackingKey:    newTrackingKey(now),
		Reference:      req.Reference,
		Beneficiary: domain.Counterparty{
			Account: req.BeneficiaryAccount,
			Bank:    req.BeneficiaryBank,
			Name:    req.BeneficiaryName,
			TaxID:   req.BeneficiaryTaxID,
		},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	order := gateways.SpeiOrder{
		TrackingKey:        txn.TrackingKey,
		Amount:             txn.Amount,
		Concept:            txn.Concept,
		Reference:          txn.Reference,
		BeneficiaryAccount: txn.Beneficiary.Account,
		BeneficiaryBank:    txn.Beneficiary.Bank,
		BeneficiaryName:    txn.Beneficiary.Name,
		OriginAccount:      account.Clabe,
	}

	if s.gracePeriod > 0 {
		deadline := now.Add(s.gracePeriod)
		txn.Status = domain.StatusPendingConfirmation
		txn.ConfirmationDeadline = &deadline
		stashed, err := json.Marshal(order)
		if err != nil {
			return nil, fmt.Errorf("failed to stash order: %w", err)
		}
		txn.DeferredOrder = stashed
	} else {
		txn.Status = domain.StatusPending
	}

	txn.Signature = s.signer.Sign(txn)

	entry := newTransitionEntry(txn.TransactionID, txn.Status, txn.Status, actor, domain.SourceAPI, originIP, now)
	if err := s.txnRepo.CreateOutgoingWithBalanceCheck(ctx, txn, entry); err != nil {
		var insufficient *apperrors.InsufficientFundsError
		if errors.As(err, &insufficient) {
			logger.Warn("Outgoing transfer rejected for insufficient funds",
				slog.String("clabe_account_id", clabeAccountID),
				slog.String("requested", req.Amount.StringFixed(2)),
				slog.String("available", insufficient.Available.StringFixed(2)))
			return nil, err
		}
		if errors.Is(err, apperrors.ErrLockConflict) {
			logger.Warn("Outgoing transfer lost the account lock", slog.String("clabe_account_id", clabeAccountID))
			return nil, err
		}
		logger.Error("Failed to create outgoing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Outgoing transaction created",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("tracking_key", txn.TrackingKey),
		slog.String("status", string(txn.Status)))

	if s.gracePeriod <= 0 {
		s.dispatch(ctx, &txn, order, actor, domain.SourceAPI, originIP)
	}

	return &txn, nil
}

// dispatch hands the order to the banking gateway and advances the in-memory
// transaction plus its row from pending to sent or failed.
func (s *TransferService) dispatch(ctx context.Context, txn *domain.Transaction, order gateways.SpeiOrder, actor string, source domain.ChangeSource, originIP string) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := s.now().UTC()

	externalOrderID, err := s.gateway.Dispatch(ctx, order)
	if err != nil {
		detail := err.Error()
		logger.Warn("Gateway dispatch failed",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("error", detail))
		entry := newTransitionEntry(txn.TransactionID, domain.StatusPending, domain.StatusFailed, actor, source, originIP, now)
		update := portsrepo.StatusUpdate{ErrorDetail: &detail, ClearDeferredOrder: true}
		if trErr := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, domain.StatusPending, domain.StatusFailed, update, entry); trErr != nil {
			logger.Error("Failed to mark transaction failed after dispatch error",
				slog.String("transaction_id", txn.TransactionID), slog.String("error", trErr.Error()))
			return
		}
		txn.Status = domain.StatusFailed
		txn.ErrorDetail = &detail
		return
	}

	entry := newTransitionEntry(txn.TransactionID, domain.StatusPending, domain.StatusSent, actor, source, originIP, now)
	update := portsrepo.StatusUpdate{ExternalOrderID: &externalOrderID, ConfirmedAt: &now, ClearDeferredOrder: true}
	if trErr := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, domain.StatusPending, domain.StatusSent, update, entry); trErr != nil {
		logger.Error("Failed to mark transaction sent after dispatch",
			slog.String("transaction_id", txn.TransactionID), slog.String("error", trErr.Error()))
		return
	}
	txn.Status = domain.StatusSent
	txn.ExternalOrderID = &externalOrderID
	txn.ConfirmedAt = &now
	txn.DeferredOrder = nil
	logger.Info("Order dispatched",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("external_order_id", externalOrderID))
}

// Cancel aborts a grace-period hold. It only succeeds while the transaction
// is still in pending_confirmation and the deadline has not elapsed; losing
// the race against the sweep surfaces as ErrInvalidStateTransition.
func (s *TransferService) Cancel(ctx context.Context, transactionID, actor, originIP string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindByID(ctx, transactionID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if !txn.InGracePeriod(now) {
		logger.Warn("Cancel rejected outside grace period",
			slog.String("transaction_id", transactionID),
			slog.String("status", string(txn.Status)))
		return fmt.Errorf("%w: transaction %s is not cancelable", apperrors.ErrInvalidStateTransition, transactionID)
	}

	entry := newTransitionEntry(transactionID, domain.StatusPendingConfirmation, domain.StatusCanceled, actor, domain.SourceAPI, originIP, now)
	update := portsrepo.StatusUpdate{ClearDeferredOrder: true}
	if err := s.txnRepo.TransitionStatus(ctx, transactionID, domain.StatusPendingConfirmation, domain.StatusCanceled, update, entry); err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			logger.Warn("Cancel lost the race against the sweep", slog.String("transaction_id", transactionID))
		}
		return err
	}

	logger.Info("Hold canceled", slog.String("transaction_id", transactionID), slog.String("actor", actor))
	return nil
}

// SweepExpired claims every hold whose confirmation deadline elapsed and
// dispatches its stashed order. The claim is a compare-and-set from
// pending_confirmation to pending, so a concurrently canceled hold is simply
// skipped. Returns the number of holds processed.
func (s *TransferService) SweepExpired(ctx context.Context) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := s.now().UTC()

	holds, err := s.txnRepo.FindExpiredHolds(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired holds: %w", err)
	}

	processed := 0
	for i := range holds {
		txn := holds[i]

		claim := newTransitionEntry(txn.TransactionID, domain.StatusPendingConfirmation, domain.StatusPending, SweeperActor, domain.SourceCron, "", now)
		err := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, domain.StatusPendingConfirmation, domain.StatusPending, portsrepo.StatusUpdate{}, claim)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidStateTransition) {
				// Canceled (or claimed by another instance) between listing and claiming.
				continue
			}
			logger.Error("Failed to claim expired hold",
				slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
			continue
		}

		var order gateways.SpeiOrder
		if len(txn.DeferredOrder) == 0 || json.Unmarshal(txn.DeferredOrder, &order) != nil {
			detail := "stashed order parameters missing or unreadable"
			logger.Error("Cannot dispatch claimed hold", slog.String("transaction_id", txn.TransactionID), slog.String("detail", detail))
			entry := newTransitionEntry(txn.TransactionID, domain.StatusPending, domain.StatusFailed, SweeperActor, domain.SourceCron, "", now)
			update := portsrepo.StatusUpdate{ErrorDetail: &detail, ClearDeferredOrder: true}
			if trErr := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, domain.StatusPending, domain.StatusFailed, update, entry); trErr != nil {
				logger.Error("Failed to mark unreadable hold failed",
					slog.String("transaction_id", txn.TransactionID), slog.String("error", trErr.Error()))
			}
			processed++
			continue
		}

		txn.Status = domain.StatusPending
		s.dispatch(ctx, &txn, order, SweeperActor, domain.SourceCron, "")
		processed++
	}

	if processed > 0 {
		logger.Info("Expired holds swept", slog.Int("processed", processed))
	}
	return processed, nil
}

// RetryFailed moves a failed outgoing transaction back through dispatch. The
// order is rebuilt from the stored row since the stash is discarded on
// failure.
func (s *TransferService) RetryFailed(ctx context.Context, transactionID, actor, originIP string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Direction != domain.Outgoing {
		return fmt.Errorf("%w: only outgoing transactions can be retried", apperrors.ErrValidation)
	}
	if txn.Status != domain.StatusFailed {
		return fmt.Errorf("%w: transaction %s is %s, not failed", apperrors.ErrInvalidStateTransition, transactionID, txn.Status)
	}
	if txn.ClabeAccountID == nil {
		return fmt.Errorf("%w: transaction %s has no origin account", apperrors.ErrValidation, transactionID)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, *txn.ClabeAccountID)
	if err != nil {
		return fmt.Errorf("failed to load origin account: %w", err)
	}

	// Re-run the balance check: the money this row released on failure may
	// have been spent by later transfers.
	now := s.now().UTC()
	entry := newTransitionEntry(transactionID, domain.StatusFailed, domain.StatusPending, actor, domain.SourceManual, originIP, now)
	if err := s.txnRepo.RetryOutgoingWithBalanceCheck(ctx, *txn, entry); err != nil {
		return err
	}

	logger.Info("Failed transaction queued for retry", slog.String("transaction_id", transactionID), slog.String("actor", actor))

	order := gateways.SpeiOrder{
		TrackingKey:        txn.TrackingKey,
		Amount:             txn.Amount,
		Concept:            txn.Concept,
		Reference:          txn.Reference,
		BeneficiaryAccount: txn.Beneficiary.Account,
		BeneficiaryBank:    txn.Beneficiary.Bank,
		BeneficiaryName:    txn.Beneficiary.Name,
		OriginAccount:      account.Clabe,
	}
	txn.Status = domain.StatusPending
	s.dispatch(ctx, txn, order, actor, domain.SourceManual, originIP)
	return nil
}

// GetTransaction loads the transaction and verifies its integrity signature.
// Signature failures are returned alongside the row so callers can surface a
// tampered transaction instead of hiding it.
func (s *TransferService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.VerifyIntegrity(ctx, txn); err != nil {
		return txn, err
	}
	return txn, nil
}

// VerifyIntegrity re-checks the stored signature against the canonical
// serialization. A mismatch is recorded as a critical security event; the row
// is never repaired or re-signed.
func (s *TransferService) VerifyIntegrity(ctx context.Context, txn *domain.Transaction) error {
	err := s.signer.Verify(*txn)
	if err == nil {
		return nil
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	severity := domain.SeverityWarning
	action := "transaction_signature_missing"
	if errors.Is(err, apperrors.ErrSignatureMismatch) {
		severity = domain.SeverityCritical
		action = "transaction_signature_mismatch"
	}
	logger.Warn("Transaction integrity check failed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("error", err.Error()))
	s.auditSvc.RecordSecurityEvent(ctx, domain.SecurityEvent{
		Action:   action,
		Severity: severity,
		Actor:    "integrity-check",
		Detail:   "stored signature did not verify against the canonical serialization",
		Metadata: map[string]string{
			"transaction_id": txn.TransactionID,
			"tracking_key":   txn.TrackingKey,
		},
		OccurredAt: s.now().UTC(),
	})
	return err
}

// ListTransitions returns the transaction's status history, oldest first.
func (s *TransferService) ListTransitions(ctx context.Context, transactionID string) ([]domain.StateTransitionLogEntry, error) {
	if _, err := s.txnRepo.FindByID(ctx, transactionID); err != nil {
		return nil, err
	}
	return s.txnRepo.ListTransitionsByTransaction(ctx, transactionID)
}

// BalanceService derives sub-account balances from transaction history.
type BalanceService struct {
	txnRepo     portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.ClabeAccountRepositoryFacade
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(tr portsrepo.TransactionRepositoryFacade, ar portsrepo.ClabeAccountRepositoryFacade) portssvc.BalanceSvcFacade {
	return &BalanceService{txnRepo: tr, accountRepo: ar}
}

var _ portssvc.BalanceSvcFacade = (*BalanceService)(nil)

// Balance returns the derived position for a sub-account.
func (s *BalanceService) Balance(ctx context.Context, clabeAccountID string) (*domain.Balance, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, clabeAccountID); err != nil {
		return nil, err
	}
	return s.txnRepo.Balance(ctx, clabeAccountID)
}
