package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Configuration errors
	ErrFamilySizeMismatch = errors.New("family label count does not match p-value count")
	ErrEmptyFamily        = errors.New("correction family is empty")
	ErrUndefinedPValue    = errors.New("undefined p-value in correction family")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsFamilyError(err error) bool {
	return errors.Is(err, ErrFamilySizeMismatch) ||
		errors.Is(err, ErrEmptyFamily) ||
		errors.Is(err, ErrUndefinedPValue)
}
