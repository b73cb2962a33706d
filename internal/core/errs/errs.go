// Package errs defines the error classes shared by the workspace core.
//
// Local failures are always one of these classes so callers can tell a
// rejected action apart from a failed exchange with a collaborator.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a precondition that failed before any state changed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an unknown folder, file, section or block.
	ErrNotFound = errors.New("not found")
	// ErrBusy marks an action rejected because a request for the same target is in flight.
	ErrBusy = errors.New("request in flight")
)

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// IsLocal reports whether err was produced by local validation rather than a collaborator.
func IsLocal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBusy)
}
