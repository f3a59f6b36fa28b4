package ledger

import "fmt"

// Domain errors. The HTTP layer maps these to status codes; the ledger
// returns them unmodified and never retries on its own.

// ValidationError reports malformed or out-of-range input. Nothing is
// mutated when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity reference.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.ID) }

// InvalidStateError reports an operation attempted against an entity not
// in an eligible state. The entity is left unchanged.
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in state %q", e.Op, e.Entity, e.ID, e.State)
}

// AggregateUpdateError reports that a member aggregate credit could not be
// applied (or compensated) after the primary record was already touched.
// The named member's running totals may have drifted from the underlying
// ledger rows; it is always logged and must be resolved by retry or
// reconciliation, never ignored.
type AggregateUpdateError struct {
	MemberID string
	Err      error
}

func (e *AggregateUpdateError) Error() string {
	return fmt.Sprintf("aggregate update for member %s failed: %v", e.MemberID, e.Err)
}

func (e *AggregateUpdateError) Unwrap() error { return e.Err }
