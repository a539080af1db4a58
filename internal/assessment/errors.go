package assessment

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrDuplicateSubmission = errors.New("topic already submitted")
	ErrMasteryNotDetected  = errors.New("mastery not detected")
	ErrNoActiveSession     = errors.New("no active dialogue session")
	ErrNotRevised          = errors.New("topic has no revised submission")
	ErrTutoringDisabled    = errors.New("tutoring is not enabled for this group")

	// ErrServiceUnavailable wraps Dialogue Service failures.
	ErrServiceUnavailable = errors.New("dialogue service unavailable")

	// ErrStoreUnavailable wraps Record Store failures. Lifecycle state is
	// unchanged when it is returned.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// ValidationError names the input field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func blank(field string) error {
	return &ValidationError{Field: field, Reason: "must not be blank"}
}

func storeErr(cause error) error   { return fmt.Errorf("%w: %w", ErrStoreUnavailable, cause) }
func serviceErr(cause error) error { return fmt.Errorf("%w: %w", ErrServiceUnavailable, cause) }
