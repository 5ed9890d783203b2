package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
	// ErrInternalComputation means validated input still produced an
	// undefined result. It is a defect, never a recoverable condition.
	ErrInternalComputation = errors.New("internal computation error")
)

// ValidationError describes a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Upstream wraps a collaborator failure so callers can match ErrUpstreamUnavailable.
func Upstream(source string, err error) error {
	return fmt.Errorf("%s: %w: %w", source, ErrUpstreamUnavailable, err)
}
