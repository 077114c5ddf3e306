package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ingestion and retrieval pipeline. The HTTP
// layer maps these onto status codes; nothing below it knows about HTTP.
var (
	// ErrNotFound is returned when a referenced id is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an update carries a stale expected version.
	ErrConflict = errors.New("version conflict")
	// ErrExtractionFailed is returned when the vision model call itself fails.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrInvalidResponseFormat is returned when the model produced parseable
	// JSON of the wrong shape (not an array, unpaired groups, wrong arity).
	ErrInvalidResponseFormat = errors.New("invalid model response format")
	// ErrPersistence is returned for storage-layer failures that the caller
	// cannot correct.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports a schema/business-rule violation the caller can
// correct and retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
