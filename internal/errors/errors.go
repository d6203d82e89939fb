// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes or message dispositions by callers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Message-handling errors shared by the saga engine and event consumers.
var (
	// ErrOrphanEvent indicates an event that references a correlation id with no
	// saga instance and is not the initiating event type. Orphans are logged and
	// dropped; there is no process to advance.
	ErrOrphanEvent = errors.New("orphan event")

	// ErrIllegalTransition indicates an event that is not valid for the saga
	// instance's current state. Out-of-order or late messages surface this way
	// and must never mutate the instance.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrDuplicateMessage indicates a message id already recorded in the inbox
	// for the consuming service. The duplicate is acknowledged without effects.
	ErrDuplicateMessage = errors.New("duplicate message")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsDroppable reports whether err represents a message that must be logged and
// dropped rather than redelivered: duplicates, orphans, and illegal transitions.
func IsDroppable(err error) bool {
	return errors.Is(err, ErrOrphanEvent) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrDuplicateMessage)
}
