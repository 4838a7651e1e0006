package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrShapeMismatch           = errors.New("shape mismatch")
	ErrInvalidGroupCount       = errors.New("labels must encode exactly two groups")
	ErrUnknownCorrectionMethod = errors.New("unknown correction method")
	ErrInsufficientData        = errors.New("insufficient data for analysis")
	ErrUnknownReferenceGroup   = errors.New("reference group not among labels")
	ErrInvalidPValue           = errors.New("p-value outside [0, 1]")

	// Loading errors
	ErrDatasetFormat = errors.New("malformed dataset")
)

// Error constructors with context
func NewShapeMismatchError(what string, want, got int) error {
	return fmt.Errorf("%w: %s: want %d, got %d", ErrShapeMismatch, what, want, got)
}

func NewInvalidGroupCountError(distinct int) error {
	return fmt.Errorf("%w: found %d distinct labels", ErrInvalidGroupCount, distinct)
}

func NewUnknownCorrectionMethodError(tag string) error {
	return fmt.Errorf("%w: %q", ErrUnknownCorrectionMethod, tag)
}

func NewUnknownReferenceGroupError(reference string, labels []string) error {
	return fmt.Errorf("%w: %q not in %v", ErrUnknownReferenceGroup, reference, labels)
}

func NewInvalidPValueError(index int, value float64) error {
	return fmt.Errorf("%w: %v at index %d", ErrInvalidPValue, value, index)
}

func NewDatasetFormatError(source string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDatasetFormat, source, reason)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrInvalidGroupCount) ||
		errors.Is(err, ErrUnknownCorrectionMethod) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrUnknownReferenceGroup) ||
		errors.Is(err, ErrInvalidPValue)
}

func IsDatasetError(err error) bool {
	return errors.Is(err, ErrDatasetFormat)
}
