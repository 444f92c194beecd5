package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrInvalidParameter      = errors.New("invalid simulation parameter")
	ErrInvalidRegion         = errors.New("invalid region")
	ErrInvalidPrefixSequence = errors.New("invalid prefix sequence")

	// Numerical errors
	ErrDegenerateDistribution = errors.New("degenerate distribution")
)

// Error constructors with context
func NewInvalidParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, field, reason)
}

func NewInvalidRegionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRegion, reason)
}

func NewInvalidPrefixSequenceError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPrefixSequence, reason)
}

func NewDegenerateDistributionError(value float64, n int) error {
	return fmt.Errorf("%w: all %d values equal %g", ErrDegenerateDistribution, n, value)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidRegion) ||
		errors.Is(err, ErrInvalidPrefixSequence)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrDegenerateDistribution)
}
