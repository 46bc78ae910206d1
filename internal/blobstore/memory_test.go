package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

func TestMemStore_PutGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.Put(ctx, "uploads/a.txt", []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "uploads/a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("unexpected payload: %q", got)
	}

	// the returned slice must be a copy
	got[0] = 'X'
	again, err := s.Get(ctx, "uploads/a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "payload" {
		t.Error("stored object mutated through returned slice")
	}
}

func TestMemStore_GetMissing(t *testing.T) {
	s := NewMemStore()

	if _, err := s.Get(context.Background(), "uploads/missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemStore_ExistsDelete(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}

	exists, err := s.Exists(ctx, "k")
	if err != nil || !exists {
		t.Fatalf("expected object to exist, got (%v, %v)", exists, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// delete of an absent key is a no-op
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	exists, err = s.Exists(ctx, "k")
	if err != nil || exists {
		t.Fatalf("expected object to be gone, got (%v, %v)", exists, err)
	}
}

func TestMemStore_PresignGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if _, err := s.PresignGet(ctx, "k", time.Hour); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing object, got %v", err)
	}

	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := s.PresignGet(ctx, "k", time.Hour)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(u, "k") || !strings.Contains(u, "3600") {
		t.Errorf("unexpected presigned url: %s", u)
	}
}
