package services

import (
	"context"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
)

// TransferSvcFacade is the atomic transaction writer plus the grace-period
// confirmation surface.
type TransferSvcFacade interface {
	// CreateOutgoing creates a balance-checked outgoing transaction. With a
	// grace period configured the transaction starts in pending_confirmation
	// and the order is stashed; otherwise it is dispatched immediately.
	// Returns *apperrors.InsufficientFundsError or apperrors.ErrLockConflict.
	CreateOutgoing(ctx context.Context, req dto.CreateTransferRequest, actor, originIP string) (*domain.Transaction, error)

	// Cancel aborts a hold while it is still in pending_confirmation and the
	// deadline has not passed. Losing the race against the sweep surfaces as
	// apperrors.ErrInvalidStateTransition.
	Cancel(ctx context.Context, transactionID, actor, originIP string) error

	// SweepExpired claims every hold whose deadline elapsed, dispatches the
	// stashed order and advances it to sent (or failed). Returns how many
	// holds were processed.
	SweepExpired(ctx context.Context) (int, error)

	// RetryFailed moves a failed transaction back to pending (manual retry).
	RetryFailed(ctx context.Context, transactionID, actor, originIP string) error

	// GetTransaction returns the transaction together with the result of the
	// read-time integrity verification.
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// VerifyIntegrity re-checks the stored signature against the canonical
	// serialization. ErrSignatureMissing / ErrSignatureMismatch are surfaced
	// for manual investigation, never repaired.
	VerifyIntegrity(ctx context.Context, txn *domain.Transaction) error

	// ListTransitions returns the transaction's append-only status history.
	ListTransitions(ctx context.Context, transactionID string) ([]domain.StateTransitionLogEntry, error)
}

// BalanceSvcFacade derives sub-account balances.
type BalanceSvcFacade interface {
	Balance(ctx context.Context, clabeAccountID string) (*domain.Balance, error)
}
