package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session package. Start failures are wrapped
// with exactly one of the fatal sentinels so callers can branch on the
// category with errors.Is.
var (
	// ErrPermissionDenied indicates the microphone could not be
	// acquired.
	ErrPermissionDenied = errors.New("session: microphone permission denied")

	// ErrAuthentication indicates the remote service rejected the
	// credential.
	ErrAuthentication = errors.New("session: authentication failed")

	// ErrConnection indicates the connection could not be established
	// or was lost.
	ErrConnection = errors.New("session: connection failed")
)

// FatalError carries the category sentinel plus the underlying cause
// for a session-ending failure.
type FatalError struct {
	// Category is one of the package sentinels.
	Category error

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Category, e.Cause)
	}
	return e.Category.Error()
}

// Unwrap lets errors.Is match both the category and the cause.
func (e *FatalError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Category, e.Cause}
	}
	return []error{e.Category}
}

func fatal(category, cause error) error {
	return &FatalError{Category: category, Cause: cause}
}
