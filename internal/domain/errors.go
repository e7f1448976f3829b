package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidReference = errors.New("invalid reference")
	ErrValidation       = errors.New("validation error")
	ErrUnknownIntent    = errors.New("unknown payment intent")
	ErrTransient        = errors.New("transient service failure")
	ErrCancelled        = errors.New("cancelled")

	ErrOrderNotFound = fmt.Errorf("%w: order not found", ErrInvalidReference)
)

const (
	KindInvalidReference = "InvalidReference"
	KindValidation       = "ValidationError"
	KindUnknownIntent    = "UnknownIntent"
	KindTransient        = "TransientServiceFailure"
	KindCancelled        = "Cancelled"
	KindInternal         = "InternalError"
)

// ErrorKind maps err onto the error taxonomy name.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrInvalidReference):
		return KindInvalidReference
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnknownIntent):
		return KindUnknownIntent
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}
	return KindInternal
}

// Transient marks a collaborator failure as retryable by the caller.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
