/*
errors.go - Centralized error taxonomy for the engine

PURPOSE:
  All domain error types in one place. Other packages (scholarship,
  reconcile, onboarding, api) reuse these rather than minting their own,
  so the HTTP layer can map any engine error to a status code with four
  checks.

TAXONOMY:
  ValidationError      malformed or incomplete input; nothing was written
  ForbiddenTransition  role or state mismatch; nothing was written
  NotFoundError        referenced entity does not exist
  ConflictError        concurrent double-decision detected
  ComputationWarning   non-fatal; surfaced alongside a valid result

USAGE:
  if leave.IsForbidden(err) { ... 403 ... }
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input-validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrForbiddenTransition is returned when the caller's role does not
	// match the application's deciding role, or the state machine refuses
	// the transition.
	ErrForbiddenTransition = errors.New("forbidden transition")

	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when optimistic locking detects a
	// concurrent decision on the same application.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrDateCovered is returned by the covered-date guard when a day is
	// already covered by a non-rejected application.
	ErrDateCovered = errors.New("leave already exists for date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field of which input was unacceptable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ForbiddenTransitionError reports who attempted what against which state.
type ForbiddenTransitionError struct {
	ApplicationID string
	ActorRole     Role
	WantedRole    Role
	Status        Status
	Message       string
}

func (e *ForbiddenTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("role %s cannot decide application %s (deciding role %s, status %s)",
		e.ActorRole, e.ApplicationID, e.WantedRole, e.Status)
}

func (e *ForbiddenTransitionError) Unwrap() error { return ErrForbiddenTransition }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // "student", "application"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a lost optimistic-lock race on an application.
type ConflictError struct {
	ApplicationID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("application %s was decided concurrently", e.ApplicationID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbiddenTransition) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
