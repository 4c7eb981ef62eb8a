package domain

// allowedTransitions is the static catalog of legal status changes. Keeping it
// as one table (rather than scattered conditionals) makes the transition rules
// independently unit-testable.
var allowedTransitions = map[TransactionStatus]map[TransactionStatus]bool{
	StatusPendingConfirmation: {
		StatusCanceled: true,
		StatusPending:  true,
		StatusSent:     true,
		StatusFailed:   true,
	},
	StatusPending: {
		StatusSent:     true,
		StatusFailed:   true,
		StatusCanceled: true,
	},
	StatusSent: {
		StatusScattered: true,
		StatusReturned:  true,
		StatusFailed:    true,
	},
	StatusQueued: {
		StatusSent:      true,
		StatusScattered: true,
		StatusFailed:    true,
		StatusCanceled:  true,
	},
	// Only a refund is legal from a settled transaction.
	StatusScattered: {
		StatusReturned: true,
	},
	// Terminal states.
	StatusCanceled: {},
	StatusReturned: {},
	// Manual or automatic retry.
	StatusFailed: {
		StatusPending: true,
	},
}

// CanTransition reports whether moving from one status to another is legal.
// A self-transition is always legal and treated as an idempotent no-op.
func CanTransition(from, to TransactionStatus) bool {
	if from == to {
		return true
	}
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// TransitionTargets returns the set of statuses reachable from the given one,
// not counting the idempotent self-transition.
func TransitionTargets(from TransactionStatus) []TransactionStatus {
	targets := make([]TransactionStatus, 0, len(allowedTransitions[from]))
	for to := range allowedTransitions[from] {
		targets = append(targets, to)
	}
	return targets
}
