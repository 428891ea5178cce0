package domain

import "fmt"

// ValidationError reports an input that is malformed or out of bounds. The
// caller can recover by correcting the named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ForbiddenError reports a caller lacking the role or ownership required for
// an action. Not retryable without a role change.
type ForbiddenError struct {
	UserID string
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: user %s may not %s", e.UserID, e.Action)
}

// InvalidTransitionError reports a state change attempted outside its
// precondition. The record is left untouched.
type InvalidTransitionError struct {
	Entity    string
	ID        string
	From      string
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s %s is %s, cannot %s", e.Entity, e.ID, e.From, e.Attempted)
}

// ConcurrentModificationError reports that the record moved between the read
// and the conditioned write. Retryable by re-reading and reapplying.
type ConcurrentModificationError struct {
	Entity string
	ID     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification: %s %s changed since read", e.Entity, e.ID)
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %s", e.Entity, e.ID)
}

// DependencyUnavailableError wraps a failure from an external collaborator
// (payment gateway, document store). Retryable by the caller.
type DependencyUnavailableError struct {
	Dependency string
	Err        error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("dependency %s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyUnavailableError) Unwrap() error { return e.Err }
