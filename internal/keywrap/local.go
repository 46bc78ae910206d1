package keywrap

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

const localNonceSize = 12

// LocalWrapper seals DEKs under a locally held 256-bit KEK with AES-GCM.
// Intended for development and tests; production deployments use KMS so the
// KEK never enters process memory.
type LocalWrapper struct {
	aead cipher.AEAD
}

// NewLocalWrapper builds a wrapper around the given 32-byte KEK.
func NewLocalWrapper(kek []byte) (*LocalWrapper, error) {
	if len(kek) != 32 {
		return nil, errors.New("kek must be 32 bytes")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("kek cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("kek gcm init: %w", err)
	}
	return &LocalWrapper{aead: aead}, nil
}

func (w *LocalWrapper) Wrap(_ context.Context, dek []byte) ([]byte, error) {
	nonce := make([]byte, localNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return w.aead.Seal(nonce, nonce, dek, nil), nil
}

func (w *LocalWrapper) Unwrap(_ context.Context, wrapped []byte) ([]byte, error) {
	if len(wrapped) < localNonceSize {
		return nil, common.ErrUnwrap
	}
	nonce := wrapped[:localNonceSize]
	dek, err := w.aead.Open(nil, nonce, wrapped[localNonceSize:], nil)
	if err != nil {
		return nil, common.ErrUnwrap
	}
	return dek, nil
}
