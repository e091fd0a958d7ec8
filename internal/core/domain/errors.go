package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("todo not found")
	ErrInvalidID    = errors.New("invalid todo id")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation error")
)

// InputError is a request the handler layer refuses before touching the store.
type InputError struct {
	Message string
}

func NewInputError(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// ValidationError is a document rejected by the store's schema rules.
type ValidationError struct {
	Detail string
}

func NewValidationError(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
