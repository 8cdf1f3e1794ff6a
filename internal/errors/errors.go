// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCrypto indicates a key derivation, encryption, or decryption failure.
	// Always fatal to the current operation; callers must not retry with
	// identical inputs.
	ErrCrypto = errors.New("crypto failure")

	// ErrStorageCorruption indicates a persisted record is malformed.
	// Components that hit this error self-heal by clearing the offending key.
	ErrStorageCorruption = errors.New("storage corruption")

	// ErrNetworkUnavailable indicates an upstream fetch or timeout failure.
	// Caches convert this to a stale-data fallback where one exists.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrCacheMiss indicates no usable cache entry exists for a key.
	// Not a hard error: it triggers the fallback fetch path.
	ErrCacheMiss = errors.New("cache miss")
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
