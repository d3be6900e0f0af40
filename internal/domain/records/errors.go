package records

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
	ErrTimeout    = errors.New("store did not respond in time")
	ErrStore      = errors.New("store failure")
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindTimeout    Kind = "timeout"
	KindStore      Kind = "store_error"
)

// KindOf classifies err. Any error that is not validation, not found or
// timeout is a store error. A nil error has no kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindStore
	}
}

// Retryable reports whether the caller may retry the same operation.
func Retryable(err error) bool {
	return KindOf(err) == KindTimeout
}

// Invalid builds a validation error naming the offending field.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Wrap tags a backend error as a store error unless it already carries one of
// the known kinds.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTimeout), errors.Is(err, ErrValidation), errors.Is(err, ErrStore):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStore, err)
	}
}
