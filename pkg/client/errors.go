package client

import "errors"

var (
	// ErrInternal covers transport, serialization and clock failures.
	ErrInternal = errors.New("internal error")

	// ErrNotFound is returned when the looked-up service is unknown or has no
	// instances, or when Cancel is called with no active registration.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means a registry rejected the shared credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInstanceAlreadyRegistered is returned by a second Register call
	// without an intervening Cancel.
	ErrInstanceAlreadyRegistered = errors.New("instance already registered")

	// ErrMaxRetryReached means every configured watchtower URL failed.
	ErrMaxRetryReached = errors.New("all watchtower urls failed")
)
