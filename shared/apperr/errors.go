// Package apperr defines the error kinds surfaced by the ledger. Services wrap
// one of the sentinels with context; callers classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed or blank required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a referenced user, account or transaction does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the principal does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when creating a resource that already exists.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	// No side effect has happened when it is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("persistence error")
)

func InvalidArgument(format string, args ...any) error {
	return wrap(ErrInvalidArgument, format, args...)
}

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

func InsufficientFunds(format string, args ...any) error {
	return wrap(ErrInsufficientFunds, format, args...)
}

// Persistence wraps a store failure, keeping the cause reachable through errors.Unwrap.
func Persistence(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, cause)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Message returns the human readable part of an error produced by this package,
// without the kind prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, kind := range []error{ErrInvalidArgument, ErrNotFound, ErrForbidden, ErrConflict, ErrInsufficientFunds, ErrPersistence} {
		prefix := kind.Error() + ": "
		if errors.Is(err, kind) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
