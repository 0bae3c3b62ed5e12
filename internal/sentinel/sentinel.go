// Package sentinel holds low-level sentinel errors returned by storage
// backends. Higher layers translate them into coded apierrors exactly once.
package sentinel

import "errors"

var (
	// ErrNotFound signals a missing entry in a token or device-id backend.
	ErrNotFound = errors.New("not found")
	// ErrExpired signals a stored entry whose lifetime has lapsed.
	ErrExpired = errors.New("expired")
	// ErrUnavailable signals a backend that cannot currently be reached.
	ErrUnavailable = errors.New("unavailable")
	// ErrInvalidInput signals malformed caller input caught before any I/O.
	ErrInvalidInput = errors.New("invalid input")
)
