package repositories

import (
	"context"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

// StatusUpdate carries the optional column changes applied together with a
// status transition.
type StatusUpdate struct {
	ExternalOrderID *string
	ErrorDetail     *string
	SettledAt       *time.Time
	ConfirmedAt     *time.Time
	// ClearDeferredOrder discards the stashed order parameters, used when a
	// hold is canceled or dispatched.
	ClearDeferredOrder bool
}

// TransactionRepositoryFacade defines persistence operations for transactions,
// the derived balance and the transition log.
type TransactionRepositoryFacade interface {
	// CreateOutgoingWithBalanceCheck is the single money-committing write
	// path. Inside one serializable DB transaction it takes the sub-account
	// row lock without blocking (apperrors.ErrLockConflict when contended),
	// recomputes the balance, rejects with *apperrors.InsufficientFundsError
	// when the amount exceeds available, and otherwise inserts the signed row
	// plus its first transition log entry.
	CreateOutgoingWithBalanceCheck(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error

	// RetryOutgoingWithBalanceCheck flips a failed outgoing transaction back
	// to pending under the same lock-and-recompute discipline as
	// CreateOutgoingWithBalanceCheck, since the balance the failed row
	// released may have been consumed in the meantime. Same error surface,
	// plus apperrors.ErrInvalidStateTransition when the row left failed.
	RetryOutgoingWithBalanceCheck(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error

	// CreateIncoming inserts an inbound or otherwise non-debiting transaction
	// without the balance check or row lock.
	CreateIncoming(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error

	// Balance derives the sub-account position from transaction history.
	Balance(ctx context.Context, clabeAccountID string) (*domain.Balance, error)

	// FindByID returns the transaction or apperrors.ErrNotFound.
	FindByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	// FindByTrackingKey resolves the globally unique tracking key.
	FindByTrackingKey(ctx context.Context, trackingKey string) (*domain.Transaction, error)
	// FindByExternalOrderID resolves the banking gateway's order id.
	FindByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.Transaction, error)

	// TransitionStatus applies from->to as a compare-and-set update: the row
	// is only touched while still in the expected from status, and the
	// transition log entry is appended in the same DB transaction. A lost
	// race or illegal hop surfaces as apperrors.ErrInvalidStateTransition
	// without mutating anything.
	TransitionStatus(ctx context.Context, transactionID string, from, to domain.TransactionStatus, update StatusUpdate, entry domain.StateTransitionLogEntry) error

	// FindExpiredHolds lists transactions still in pending_confirmation whose
	// deadline elapsed at or before now.
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error)

	// ListTransitionsByTransaction returns the append-only status history,
	// oldest first.
	ListTransitionsByTransaction(ctx context.Context, transactionID string) ([]domain.StateTransitionLogEntry, error)
}
