// Package apperr defines the closed error taxonomy shared by all components.
package apperr

import "fmt"

// Kind classifies a failure. The set is closed: every fallible operation in
// the core reports exactly one of these.
type Kind string

const (
	// StorageError covers unavailable persistence, missing slots, and
	// malformed stored values.
	StorageError Kind = "STORAGE_ERROR"
	// GenerationError covers combination-count mismatches and any failure
	// during dataset enumeration or shuffling.
	GenerationError Kind = "GENERATION_ERROR"
	// ValidationError covers readings that violate the physiological range
	// invariants after generation or restoration.
	ValidationError Kind = "VALIDATION_ERROR"
)

// Error is a tagged failure with a user-facing message and an optional
// underlying detail string. It never wraps a panic.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Is matches two errors by kind, so callers can dispatch with errors.Is
// against a bare-kind target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// Storage builds a STORAGE_ERROR.
func Storage(message, detail string) *Error {
	return &Error{Kind: StorageError, Message: message, Detail: detail}
}

// Generation builds a GENERATION_ERROR.
func Generation(message, detail string) *Error {
	return &Error{Kind: GenerationError, Message: message, Detail: detail}
}

// Validation builds a VALIDATION_ERROR.
func Validation(message, detail string) *Error {
	return &Error{Kind: ValidationError, Message: message, Detail: detail}
}

// Sentinel targets for errors.Is kind checks.
var (
	ErrStorage    = &Error{Kind: StorageError}
	ErrGeneration = &Error{Kind: GenerationError}
	ErrValidation = &Error{Kind: ValidationError}
)
