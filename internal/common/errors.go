// Package common defines shared sentinel errors used across the vault
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Ledger / store lookup errors.
	ErrNotFound      = errors.New("not found")
	ErrDuplicateFile = errors.New("file already exists")

	// Crypto errors.
	ErrIntegrity         = errors.New("integrity check failed")
	ErrMalformedEnvelope = errors.New("malformed encryption envelope")
	ErrUnwrap            = errors.New("key unwrap failed")

	// Remote dependency errors. These are the only errors the coordinator
	// treats as transient and retries.
	ErrKeyServiceUnavailable = errors.New("key service unavailable")
	ErrStoreUnavailable      = errors.New("object store unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")

	// Generic internal failure.
	ErrInternal = errors.New("internal error")
)
