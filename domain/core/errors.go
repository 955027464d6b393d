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

	// Input errors, all fatal and reported before any computation
	ErrSchemaMismatch   = errors.New("attribute schema mismatch")
	ErrDuplicateExample = errors.New("duplicate example identifier")
	ErrUnknownLabel     = errors.New("unrecognized label value")
	ErrInvalidValue     = errors.New("invalid attribute value")
	ErrUnknownExample   = errors.New("label refers to unknown example")

	// Configuration errors
	ErrInvalidThreshold = errors.New("threshold must be >= 0")
	ErrUnknownMethod    = errors.New("unknown closure method")

	// Lifecycle errors
	ErrNotFitted = errors.New("model has not been fitted")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewSchemaMismatchError(want, got int) error {
	return fmt.Errorf("%w: expected %d attributes, got %d", ErrSchemaMismatch, want, got)
}

func NewDuplicateExampleError(id int64) error {
	return fmt.Errorf("%w: %d", ErrDuplicateExample, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err was caused by malformed examples or labels.
func IsInputError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrDuplicateExample) ||
		errors.Is(err, ErrUnknownLabel) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrUnknownExample)
}

// IsConfigError reports whether err was caused by an invalid engine configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrUnknownMethod)
}
