// Package cryptox implements the authenticated encryption envelope used for
// stored files: AES-256-GCM with a 16-byte nonce, packaged as
// nonce || tag || ciphertext so the envelope carries everything needed for
// decryption except the key itself.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

const (
	// KeySize is the DEK length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length used by the envelope.
	NonceSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	envelopeOverhead = NonceSize + TagSize
)

// Encrypt encrypts plaintext under a freshly generated 256-bit key and
// returns the envelope together with the key. Each key is used for exactly
// one envelope, so nonce reuse cannot occur; callers wipe the key as soon
// as it has been wrapped.
func Encrypt(plaintext []byte) (blob []byte, key []byte, err error) {
	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, nil, fmt.Errorf("dek generation: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce generation: %w", err)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	// Seal appends the tag after the ciphertext; the envelope keeps the
	// tag up front, next to the nonce.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	blob = make([]byte, 0, envelopeOverhead+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)
	return blob, key, nil
}

// Decrypt opens an envelope produced by Encrypt. It returns
// common.ErrMalformedEnvelope when blob is shorter than the fixed
// nonce+tag header and common.ErrIntegrity when tag verification fails.
// No plaintext is ever returned on a failed verification.
func Decrypt(blob []byte, key []byte) ([]byte, error) {
	if len(blob) < envelopeOverhead {
		return nil, common.ErrMalformedEnvelope
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize:envelopeOverhead]
	ciphertext := blob[envelopeOverhead:]

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// Wipe overwrites the contents of b with zeros. Used to clear DEKs and
// other key material from memory after use. A nil slice is a no-op.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
