// Package errors provides the base error taxonomy shared by every module.
// Domain packages wrap these sentinels so handlers can map any failure to an
// HTTP status code with errors.Is, without knowing the domain error itself.
package errors

import (
	"errors"
	"fmt"
)

// Base errors. Domain errors wrap exactly one of these.
var (
	// ErrNotFound indicates the requested key ring or key version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key name).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Wrap wraps an error with additional context while preserving the error chain.
// It returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but formats the message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
