package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", secret, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := GetUserIDFromToken(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("unexpected user id: %s", userID)
	}
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("secret-a"), time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := GetUserIDFromToken(token, []byte("secret-b")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", secret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := GetUserIDFromToken(token, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestGetUserIDFromToken_Garbage(t *testing.T) {
	if _, err := GetUserIDFromToken("not-a-token", []byte("s")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
