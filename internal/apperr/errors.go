// Package apperr defines the error kinds callers branch on. Operations wrap
// them with context using fmt.Errorf("%w: ...").
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or invalid input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateFiling means a filing already exists for the period.
	ErrDuplicateFiling = errors.New("filing already exists for period")
	// ErrConfigurationMissing means the policy row is absent: a deployment fault.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrPersistence is any storage failure not classified above.
	ErrPersistence = errors.New("persistence error")
	// ErrNotFound means the addressed filing, rectification or trade does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyTransmitted means the record was already marked as sent.
	ErrAlreadyTransmitted = errors.New("already transmitted")
)

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with a formatted reason.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Persistence wraps a storage error so both ErrPersistence and the cause match errors.Is.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
