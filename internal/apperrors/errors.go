package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrLockConflict indicates a concurrent writer holds the sub-account row lock.
// Safe to retry with backoff; every other rejection in this package is not.
var ErrLockConflict = errors.New("sub-account is locked by a concurrent writer")

// ErrInvalidStateTransition indicates an attempted status change that is not
// permitted from the transaction's current status.
var ErrInvalidStateTransition = errors.New("invalid transaction state transition")

// ErrMalformedWebhookPayload indicates the payload failed structural validation
// before any idempotency or state processing.
var ErrMalformedWebhookPayload = errors.New("malformed webhook payload")

// ErrSignatureMissing indicates a transaction carries no integrity signature,
// so integrity cannot be verified. Never treated as equivalent to valid.
var ErrSignatureMissing = errors.New("transaction signature missing")

// ErrSignatureMismatch indicates the stored signature does not match the
// recomputed one. Surfaced for manual investigation, never auto-corrected.
var ErrSignatureMismatch = errors.New("transaction signature mismatch")

// ErrCommissionTargetMissing indicates the company has no parent account
// configured to receive its commission cutoff.
var ErrCommissionTargetMissing = errors.New("commission target account not configured")

// InsufficientFundsError is returned when an outgoing amount exceeds the
// sub-account's available balance. It carries the available balance observed
// under the row lock so the caller can surface it.
type InsufficientFundsError struct {
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available balance is %s", e.Available.StringFixed(2))
}

// NewInsufficientFundsError creates an InsufficientFundsError carrying the
// available balance observed at check time.
func NewInsufficientFundsError(available decimal.Decimal) *InsufficientFundsError {
	return &InsufficientFundsError{Available: available}
}

// AppError wraps an underlying error with a status code and a message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
