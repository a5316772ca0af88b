package domain

import "errors"

var (
	ErrAggregateNotFound   = errors.New("payment not found")
	ErrInvalidTransition   = errors.New("invalid payment status transition")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidReason       = errors.New("discard reason is required")
	ErrInvalidTimestamp    = errors.New("timed out at is required")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrInvalidRequest      = errors.New("invalid request")
)

// IsDomainRule reports whether err is a deterministic business-rule rejection.
// These recur on every attempt against the same state and are never retried.
func IsDomainRule(err error) bool {
	return errors.Is(err, ErrAggregateNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidReason) ||
		errors.Is(err, ErrInvalidTimestamp)
}
