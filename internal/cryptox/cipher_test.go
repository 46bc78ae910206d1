package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

func TestEncrypt_EnvelopeShape(t *testing.T) {
	plaintext := []byte("0123456789")

	blob, key, err := Encrypt(plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(key) != KeySize {
		t.Errorf("expected %d-byte key, got %d", KeySize, len(key))
	}
	if len(blob) != NonceSize+TagSize+len(plaintext) {
		t.Errorf("expected envelope length %d, got %d", NonceSize+TagSize+len(plaintext), len(blob))
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("hello, vault"),
		bytes.Repeat([]byte{0xAB}, 1<<16),
	}

	for _, plaintext := range cases {
		blob, key, err := Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}

		got, err := Decrypt(blob, key)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(plaintext))
		}
	}
}

func TestEncrypt_FreshKeyAndNoncePerCall(t *testing.T) {
	plaintext := []byte("same input")

	blob1, key1, err := Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	blob2, key2, err := Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if bytes.Equal(key1, key2) {
		t.Error("expected a fresh key per call")
	}
	if bytes.Equal(blob1[:NonceSize], blob2[:NonceSize]) {
		t.Error("expected a fresh nonce per call")
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	blob, key, err := Encrypt([]byte("tamper with me"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Flip one bit at every position: nonce, tag and ciphertext must all
	// be covered by authentication.
	for i := range blob {
		corrupted := bytes.Clone(blob)
		corrupted[i] ^= 0x01

		if _, err := Decrypt(corrupted, key); !errors.Is(err, common.ErrIntegrity) {
			t.Fatalf("bit flip at byte %d: want ErrIntegrity, got %v", i, err)
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	blob, _, err := Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	wrongKey := make([]byte, KeySize)
	if _, err := Decrypt(blob, wrongKey); !errors.Is(err, common.ErrIntegrity) {
		t.Fatalf("want ErrIntegrity, got %v", err)
	}
}

func TestDecrypt_ShortEnvelope(t *testing.T) {
	key := make([]byte, KeySize)

	for _, n := range []int{0, 1, NonceSize, NonceSize + TagSize - 1} {
		if _, err := Decrypt(make([]byte, n), key); !errors.Is(err, common.ErrMalformedEnvelope) {
			t.Fatalf("length %d: want ErrMalformedEnvelope, got %v", n, err)
		}
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped: %d", i, v)
		}
	}

	// nil must not panic
	Wipe(nil)
}
