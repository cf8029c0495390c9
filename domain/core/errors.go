package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrDataValidation covers malformed or ill-suited input data: an empty
	// frame, a treatment time outside the observed index, a group column
	// that is not dummy coded.
	ErrDataValidation = errors.New("data validation failed")

	// ErrMissingCapability is returned when a model lacks a capability the
	// requested design needs (e.g. a frequentist model for a design whose
	// impact is a posterior distribution).
	ErrMissingCapability = errors.New("model capability missing")

	// ErrConfiguration covers unusable experiment configuration: a nil
	// model, an unrecognized model kind.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrCoefficientLookup is returned when no coefficient label matches
	// the treatment-effect search.
	ErrCoefficientLookup = errors.New("coefficient not found")

	ErrFormula  = errors.New("invalid formula")
	ErrColumn   = errors.New("column not found")
	ErrNotFound = errors.New("resource not found")
)

// Error constructors with context
func NewDataValidationError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDataValidation, field, reason)
}

func NewMissingCapabilityError(design, detail string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMissingCapability, design, detail)
}

func NewConfigurationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}

func NewCoefficientLookupError(variable string, labels []string) error {
	return fmt.Errorf("%w: no label for treatment effect of %q among %v",
		ErrCoefficientLookup, variable, labels)
}

func NewColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumn, column)
}

// Error checking helpers
func IsDataValidationError(err error) bool {
	return errors.Is(err, ErrDataValidation)
}

func IsMissingCapabilityError(err error) bool {
	return errors.Is(err, ErrMissingCapability)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsCoefficientLookupError(err error) bool {
	return errors.Is(err, ErrCoefficientLookup)
}
