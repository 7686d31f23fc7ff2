package quote

import "errors"

// Sentinel errors shared across services. Callers classify with errors.Is.
var (
	// ErrNotFound indicates the referenced quote does not exist.
	ErrNotFound = errors.New("quote not found")

	// ErrActorNotFound indicates an authenticated actor has no account row.
	// Ledger writes for such actors fail non-retryably.
	ErrActorNotFound = errors.New("actor not found")

	// ErrSnapshotMissing indicates the trending snapshot has not been
	// written yet. Consumers that require it fail terminally.
	ErrSnapshotMissing = errors.New("trending snapshot not found")
)

// ValidationError reports bad caller input on a boundary operation. It maps
// to a 4xx response and is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
