package auth

import (
	"testing"
	"time"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := ComparePassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected matching password, got %v", err)
	}
	if err := ComparePassword(hash, "wrong-pass"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	m := &Manager{Secret: []byte("test-secret"), SessionTTL: time.Hour, Issuer: "docbook-backend"}

	token, err := m.NewSessionToken("user1")
	if err != nil {
		t.Fatalf("NewSessionToken error: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.UserID != "user1" {
		t.Fatalf("expected userId user1, got %q", claims.UserID)
	}
	if claims.Issuer != "docbook-backend" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := &Manager{Secret: []byte("secret-a"), SessionTTL: time.Hour}
	verifier := &Manager{Secret: []byte("secret-b"), SessionTTL: time.Hour}

	token, err := issuer.NewSessionToken("user1")
	if err != nil {
		t.Fatalf("NewSessionToken error: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := &Manager{Secret: []byte("test-secret"), SessionTTL: -time.Minute}

	token, err := m.NewSessionToken("user1")
	if err != nil {
		t.Fatalf("NewSessionToken error: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
