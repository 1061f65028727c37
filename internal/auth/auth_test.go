package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"labqms/pkg/domain"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash(DefaultPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == DefaultPassword {
		t.Fatalf("hash must not equal clear text")
	}
	if err := h.Compare(hash, DefaultPassword); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "2222"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := h.Compare("", DefaultPassword); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for empty hash, got %v", err)
	}
}

func TestTokenIssueAndParse(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("secret", time.Hour).WithClock(func() time.Time { return fixed })
	token, expires, err := issuer.Issue("inst_mgr", "王儀管")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expires)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Username != "inst_mgr" || claims.Name != "王儀管" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenRejectsExpiredAndForged(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("secret", time.Minute).WithClock(func() time.Time { return fixed })
	token, _, err := issuer.Issue("admin", "系統管理員")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	later := issuer.WithClock(func() time.Time { return fixed.Add(2 * time.Minute) })
	if _, err := later.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
	other := NewTokenIssuer("other", time.Minute).WithClock(func() time.Time { return fixed })
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected forged token rejection, got %v", err)
	}
	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token rejection, got %v", err)
	}
}
