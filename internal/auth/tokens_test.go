package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	token, expiresAt, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	userID, err := issuer.Verify(token, KindAccess)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1 got %q", userID)
	}
}

func TestTokenTamperFailsVerification(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	token, _, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'a' {
		tampered[last] = 'b'
	} else {
		tampered[last] = 'a'
	}

	if _, err := issuer.Verify(string(tampered), KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestTokenKindsUseSeparateSecrets(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	refresh, _, err := issuer.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, err := issuer.Verify(refresh, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token to fail access verification, got %v", err)
	}
	if _, err := issuer.Verify(refresh, KindRefresh); err != nil {
		t.Fatalf("expected refresh token to verify as refresh: %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	now := time.Now().UTC()
	issuer.NowFunc = func() time.Time { return now }

	token, _, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	issuer.NowFunc = func() time.Time { return now.Add(2 * time.Minute) }

	if _, err := issuer.Verify(token, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	if _, _, err := issuer.IssueAccess(""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
