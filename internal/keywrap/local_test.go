package keywrap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

func testKEK(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, 32)
}

func TestNewLocalWrapper_BadKEKLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33} {
		if _, err := NewLocalWrapper(make([]byte, n)); err == nil {
			t.Errorf("expected error for %d-byte kek", n)
		}
	}
}

func TestLocalWrapper_RoundTrip(t *testing.T) {
	w, err := NewLocalWrapper(testKEK(0x11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dek := bytes.Repeat([]byte{0x42}, 32)
	wrapped, err := w.Wrap(context.Background(), dek)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if bytes.Contains(wrapped, dek) {
		t.Error("wrapped key must not contain the plaintext dek")
	}

	got, err := w.Unwrap(context.Background(), wrapped)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if !bytes.Equal(got, dek) {
		t.Error("round trip mismatch")
	}
}

func TestLocalWrapper_WrongKEK(t *testing.T) {
	w1, err := NewLocalWrapper(testKEK(0x11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w2, err := NewLocalWrapper(testKEK(0x22))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrapped, err := w1.Wrap(context.Background(), testKEK(0x42))
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}

	if _, err := w2.Unwrap(context.Background(), wrapped); !errors.Is(err, common.ErrUnwrap) {
		t.Fatalf("want ErrUnwrap, got %v", err)
	}
}

func TestLocalWrapper_TruncatedCiphertext(t *testing.T) {
	w, err := NewLocalWrapper(testKEK(0x11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := w.Unwrap(context.Background(), []byte{1, 2, 3}); !errors.Is(err, common.ErrUnwrap) {
		t.Fatalf("want ErrUnwrap, got %v", err)
	}
}
