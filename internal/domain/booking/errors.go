package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNotYetCompleted = errors.New("tour not yet completed")
)

// ValidationError is a local precondition failure: no network call was
// made, and the failure is surfaced per field. Never auto-retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidTransitionError is a lifecycle guard violation, for either the
// reservation or the assignment state machine.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// CapacityExceededError is the backend's authoritative rejection of a
// create that looked bookable client-side. The client's capacity figure
// is advisory only.
type CapacityExceededError struct {
	Message string
}

func (e *CapacityExceededError) Error() string {
	if e.Message == "" {
		return "capacity exceeded"
	}
	return e.Message
}

// UpstreamError covers network failure, timeout and 5xx responses.
// Idempotent reads may be retried; mutating calls never are.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream unavailable: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

func IsCapacityExceeded(err error) bool {
	var ce *CapacityExceededError
	return errors.As(err, &ce)
}

func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
