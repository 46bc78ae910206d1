// Package keywrap protects per-file data-encryption keys with a
// key-encryption key held outside the request path: Google Cloud KMS in
// production, a locally configured KEK for development and tests.
package keywrap

import "context"

// Wrapper wraps and unwraps data-encryption keys. Implementations must be
// safe for concurrent use and must not cache unwrapped key material.
type Wrapper interface {
	// Wrap encrypts dek under the key-encryption key.
	Wrap(ctx context.Context, dek []byte) ([]byte, error)

	// Unwrap recovers the dek from its wrapped form. Returns
	// common.ErrUnwrap when the ciphertext was not produced under the
	// currently configured key-encryption key.
	Unwrap(ctx context.Context, wrapped []byte) ([]byte, error)
}
