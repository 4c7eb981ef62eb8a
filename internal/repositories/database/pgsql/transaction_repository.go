package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	"github.com/dispersa-mx/spei_ledger/internal/models"
	"github.com/dispersa-mx/spei_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxTransactionRepository persists transactions, the transition log and the
// derived balance.
type PgxTransactionRepository struct {
	BaseRepository
}

// NewTransactionRepository creates a new repository for transaction data.
func NewTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const insertTransactionQuery = `
	INSERT INTO transactions (
		transaction_id, clabe_account_id, company_id, direction, status,
		amount, concept, tracking_key, reference,
		beneficiary_account, beneficiary_bank, beneficiary_name, beneficiary_tax_id,
		payer_account, payer_bank, payer_name, payer_tax_id,
		external_order_id, error_detail, settled_at, confirmed_at,
		confirmation_deadline, deferred_order, signature,
		created_at, created_by, last_updated_at, last_updated_by
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28);
`

const insertTransitionLogQuery = `
	INSERT INTO state_transition_log (
		entry_id, transaction_id, previous_status, new_status,
		actor, source, origin_ip, metadata, occurred_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

// balanceQuery derives the position from transaction history in one pass.
// A sent transaction counts both as settled-spent and as in-flight risk, so
// available is deliberately under- rather than over-estimated.
const balanceQuery = `
	SELECT
		COALESCE(SUM(amount) FILTER (
			WHERE direction = 'incoming' AND status = 'scattered'), 0) AS settled_incoming,
		COALESCE(SUM(amount) FILTER (
			WHERE direction = 'outgoing' AND status IN ('sent', 'scattered')), 0) AS settled_outgoing,
		COALESCE(SUM(amount) FILTER (
			WHERE direction = 'outgoing'
			  AND status IN ('pending_confirmation', 'pending', 'sent', 'queued')), 0) AS in_transit
	FROM transactions
	WHERE clabe_account_id = $1;
`

func execInsertTransaction(ctx context.Context, tx pgx.Tx, m models.Transaction) error {
	_, err := tx.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.ClabeAccountID, m.CompanyID, m.Direction, m.Status,
		m.Amount, m.Concept, m.TrackingKey, m.Reference,
		m.BeneficiaryAccount, m.BeneficiaryBank, m.BeneficiaryName, m.BeneficiaryTaxID,
		m.PayerAccount, m.PayerBank, m.PayerName, m.PayerTaxID,
		m.ExternalOrderID, m.ErrorDetail, m.SettledAt, m.ConfirmedAt,
		m.ConfirmationDeadline, m.DeferredOrder, m.Signature,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return err
}

func execInsertTransitionLog(ctx context.Context, tx pgx.Tx, e models.StateTransitionLogEntry) error {
	_, err := tx.Exec(ctx, insertTransitionLogQuery,
		e.EntryID, e.TransactionID, e.PreviousStatus, e.NewStatus,
		e.Actor, e.Source, e.OriginIP, e.Metadata, e.OccurredAt,
	)
	return err
}

func balanceInTx(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, clabeAccountID string) (*domain.Balance, error) {
	var settledIncoming, settledOutgoing, inTransit decimal.Decimal
	err := q.QueryRow(ctx, balanceQuery, clabeAccountID).Scan(&settledIncoming, &settledOutgoing, &inTransit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to derive balance for account "+clabeAccountID, err)
	}
	return &domain.Balance{
		ClabeAccountID:  clabeAccountID,
		SettledIncoming: settledIncoming,
		SettledOutgoing: settledOutgoing,
		InTransit:       inTransit,
		Available:       settledIncoming.Sub(settledOutgoing).Sub(inTransit),
	}, nil
}

// CreateOutgoingWithBalanceCheck is the single path that commits money. It
// locks the sub-account row without blocking, recomputes the balance under
// the lock, and only then inserts the signed row and its first log entry.
func (r *PgxTransactionRepository) CreateOutgoingWithBalanceCheck(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error {
	if txn.ClabeAccountID == nil {
		return apperrors.NewAppError(400, "outgoing transaction requires a sub-account", apperrors.ErrValidation)
	}

	tx, err := r.BeginSerializable(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Exclusive non-blocking lock on the sub-account row. A concurrent
	// writer makes this fail fast instead of queueing.
	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT clabe_account_id FROM clabe_accounts WHERE clabe_account_id = $1 FOR UPDATE NOWAIT;`,
		*txn.ClabeAccountID,
	).Scan(&lockedID)
	if err != nil {
		if isPgError(err, pgErrLockNotAvailable) {
			return apperrors.ErrLockConflict
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock sub-account "+*txn.ClabeAccountID, err)
	}

	balance, err := balanceInTx(ctx, tx, *txn.ClabeAccountID)
	if err != nil {
		return err
	}
	if txn.Amount.GreaterThan(balance.Available) {
		return apperrors.NewInsufficientFundsError(balance.Available)
	}

	if err := execInsertTransaction(ctx, tx, mapping.ToModelTransaction(txn)); err != nil {
		if isPgError(err, pgErrUniqueViolation) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert transaction "+txn.TransactionID, err)
	}
	if err := execInsertTransitionLog(ctx, tx, mapping.ToModelTransitionLogEntry(entry)); err != nil {
		return apperrors.NewAppError(500, "failed to append transition log for "+txn.TransactionID, err)
	}

	return r.Commit(ctx, tx)
}

// RetryOutgoingWithBalanceCheck re-commits a failed outgoing transaction
// under the same discipline as CreateOutgoingWithBalanceCheck. The money a
// failed row released may have been spent since, so the sub-account is
// re-locked and the balance recomputed before the failed -> pending flip.
// The failed row contributes to neither the settled nor the in-transit sums,
// so the recomputed available already excludes the retried amount.
func (r *PgxTransactionRepository) RetryOutgoingWithBalanceCheck(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error {
	if txn.ClabeAccountID == nil {
		return apperrors.NewAppError(400, "outgoing transaction requires a sub-account", apperrors.ErrValidation)
	}

	tx, err := r.BeginSerializable(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT clabe_account_id FROM clabe_accounts WHERE clabe_account_id = $1 FOR UPDATE NOWAIT;`,
		*txn.ClabeAccountID,
	).Scan(&lockedID)
	if err != nil {
		if isPgError(err, pgErrLockNotAvailable) {
			return apperrors.ErrLockConflict
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock sub-account "+*txn.ClabeAccountID, err)
	}

	balance, err := balanceInTx(ctx, tx, *txn.ClabeAccountID)
	if err != nil {
		return err
	}
	if txn.Amount.GreaterThan(balance.Available) {
		return apperrors.NewInsufficientFundsError(balance.Available)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET status = $1,
		    error_detail = NULL,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE transaction_id = $4 AND status = $5;`,
		string(domain.StatusPending),
		entry.OccurredAt,
		entry.Actor,
		txn.TransactionID,
		string(domain.StatusFailed),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of transaction "+txn.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidStateTransition
	}

	if err := execInsertTransitionLog(ctx, tx, mapping.ToModelTransitionLogEntry(entry)); err != nil {
		return apperrors.NewAppError(500, "failed to append transition log for "+txn.TransactionID, err)
	}

	return r.Commit(ctx, tx)
}

// CreateIncoming inserts a non-debiting transaction without the balance check.
func (r *PgxTransactionRepository) CreateIncoming(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := execInsertTransaction(ctx, tx, mapping.ToModelTransaction(txn)); err != nil {
		if isPgError(err, pgErrUniqueViolation) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert transaction "+txn.TransactionID, err)
	}
	if err := execInsertTransitionLog(ctx, tx, mapping.ToModelTransitionLogEntry(entry)); err != nil {
		return apperrors.NewAppError(500, "failed to append transition log for "+txn.TransactionID, err)
	}

	return r.Commit(ctx, tx)
}

// Balance derives the sub-account position outside any lock. Writers use the
// in-transaction variant.
func (r *PgxTransactionRepository) Balance(ctx context.Context, clabeAccountID string) (*domain.Balance, error) {
	return balanceInTx(ctx, r.Pool, clabeAccountID)
}

const selectTransactionColumns = `
	transaction_id, clabe_account_id, company_id, direction, status,
	amount, concept, tracking_key, reference,
	beneficiary_account, beneficiary_bank, beneficiary_name, beneficiary_tax_id,
	payer_account, payer_bank, payer_name, payer_tax_id,
	external_order_id, error_detail, settled_at, confirmed_at,
	confirmation_deadline, deferred_order, signature,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID, &m.ClabeAccountID, &m.CompanyID, &m.Direction, &m.Status,
		&m.Amount, &m.Concept, &m.TrackingKey, &m.Reference,
		&m.BeneficiaryAccount, &m.BeneficiaryBank, &m.BeneficiaryName, &m.BeneficiaryTaxID,
		&m.PayerAccount, &m.PayerBank, &m.PayerName, &m.PayerTaxID,
		&m.ExternalOrderID, &m.ErrorDetail, &m.SettledAt, &m.ConfirmedAt,
		&m.ConfirmationDeadline, &m.DeferredOrder, &m.Signature,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
	}
	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// FindByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+selectTransactionColumns+` FROM transactions WHERE transaction_id = $1;`,
		transactionID)
	return scanTransaction(row)
}

// FindByTrackingKey retrieves a transaction by its globally unique tracking key.
func (r *PgxTransactionRepository) FindByTrackingKey(ctx context.Context, trackingKey string) (*domain.Transaction, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+selectTransactionColumns+` FROM transactions WHERE tracking_key = $1;`,
		trackingKey)
	return scanTransaction(row)
}

// FindByExternalOrderID retrieves a transaction by the banking gateway's order id.
func (r *PgxTransactionRepository) FindByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.Transaction, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+selectTransactionColumns+` FROM transactions WHERE external_order_id = $1;`,
		externalOrderID)
	return scanTransaction(row)
}

// TransitionStatus applies from->to as a compare-and-set. The WHERE clause on
// the expected from status makes racing updaters safe: whoever updates first
// wins, the loser matches zero rows and is rejected without mutating state.
func (r *PgxTransactionRepository) TransitionStatus(ctx context.Context, transactionID string, from, to domain.TransactionStatus, update portsrepo.StatusUpdate, entry domain.StateTransitionLogEntry) error {
	if !domain.CanTransition(from, to) {
		return apperrors.ErrInvalidStateTransition
	}
	if from == to {
		// Idempotent no-op; nothing to write, nothing to log.
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET status = $1,
		    external_order_id = COALESCE($2, external_order_id),
		    error_detail = COALESCE($3, error_detail),
		    settled_at = COALESCE($4, settled_at),
		    confirmed_at = COALESCE($5, confirmed_at),
		    deferred_order = CASE WHEN $6 THEN NULL ELSE deferred_order END,
		    confirmation_deadline = CASE WHEN $6 THEN NULL ELSE confirmation_deadline END,
		    last_updated_at = $7,
		    last_updated_by = $8
		WHERE transaction_id = $9 AND status = $10;`,
		string(to),
		update.ExternalOrderID,
		update.ErrorDetail,
		update.SettledAt,
		update.ConfirmedAt,
		update.ClearDeferredOrder,
		entry.OccurredAt,
		entry.Actor,
		transactionID,
		string(from),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of transaction "+transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race or the row never was in the expected status.
		return apperrors.ErrInvalidStateTransition
	}

	if err := execInsertTransitionLog(ctx, tx, mapping.ToModelTransitionLogEntry(entry)); err != nil {
		return apperrors.NewAppError(500, "failed to append transition log for "+transactionID, err)
	}

	return r.Commit(ctx, tx)
}

// FindExpiredHolds lists holds whose grace period elapsed, oldest first.
func (r *PgxTransactionRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT `+selectTransactionColumns+`
		 FROM transactions
		 WHERE status = 'pending_confirmation' AND confirmation_deadline <= $1
		 ORDER BY confirmation_deadline
		 LIMIT $2;`,
		now, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query expired holds", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating expired holds", err)
	}
	return out, nil
}

// ListTransitionsByTransaction returns the status history, oldest first.
func (r *PgxTransactionRepository) ListTransitionsByTransaction(ctx context.Context, transactionID string) ([]domain.StateTransitionLogEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT entry_id, transaction_id, previous_status, new_status,
		       actor, source, origin_ip, metadata, occurred_at
		FROM state_transition_log
		WHERE transaction_id = $1
		ORDER BY occurred_at;`,
		transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transitions for transaction "+transactionID, err)
	}
	defer rows.Close()

	entries := []models.StateTransitionLogEntry{}
	for rows.Next() {
		var e models.StateTransitionLogEntry
		if err := rows.Scan(
			&e.EntryID, &e.TransactionID, &e.PreviousStatus, &e.NewStatus,
			&e.Actor, &e.Source, &e.OriginIP, &e.Metadata, &e.OccurredAt,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transition log row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transition log rows", err)
	}
	return mapping.ToDomainTransitionLogSlice(entries), nil
}
