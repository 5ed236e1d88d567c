// Package apperrors defines the error kinds shared by the ledger core, the
// storage backends and the RPC layer.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown expense, group or user ID.
	ErrNotFound = errors.New("not found")

	// ErrInvalidExpense indicates an expense that violates the data model
	// (non-positive amount, empty participants, payer not a participant, ...).
	ErrInvalidExpense = errors.New("invalid expense")

	// ErrUnsupportedSplitKind indicates a split type other than "equal".
	ErrUnsupportedSplitKind = errors.New("unsupported split kind")

	// ErrMutationConflict indicates that an atomic multi-record update lost a
	// compare-and-swap race against a concurrent writer.
	ErrMutationConflict = errors.New("mutation conflict")

	// ErrAlreadyExists indicates a duplicate insert, e.g. a second user with
	// the same email.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError describes which input field failed validation.
// It unwraps to ErrInvalidExpense.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidExpense
}

// NotFound returns an error wrapping ErrNotFound for the given entity kind and ID.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the operation that produced err may succeed
// when re-run against fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrMutationConflict)
}
