package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/security"
)

func newAccessGateForTest(t *testing.T, threshold int64) *AccessGate {
	t.Helper()
	_, client := newRedisClientForTest(t)
	store := repository.NewRedisEventStore(client, "gate_test")
	limiter := NewRateLimiter(store, 10*time.Second, 20*time.Second, threshold, nil)
	return NewAccessGate(limiter, newJWTManagerForTest(t))
}

func TestAccessGateCheckSessionReturnsSubject(t *testing.T) {
	gate := newAccessGateForTest(t, 5)

	token, err := newJWTManagerForTest(t).SignAccessToken("u42", 15*time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	userID, err := gate.CheckSession(token)
	if err != nil {
		t.Fatalf("check session: %v", err)
	}
	if userID != "u42" {
		t.Fatalf("user id = %q, want u42", userID)
	}
}

func TestAccessGateCheckSessionExpired(t *testing.T) {
	gate := newAccessGateForTest(t, 5)

	token, err := newJWTManagerForTest(t).SignAccessToken("u42", -time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	if _, err := gate.CheckSession(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAccessGateCheckSessionRejectsGarbageAndRefreshTokens(t *testing.T) {
	gate := newAccessGateForTest(t, 5)

	if _, err := gate.CheckSession("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: expected ErrInvalidToken, got %v", err)
	}

	// A refresh token is signed with the other secret and carries the wrong
	// token type. It must never pass the access check.
	refresh, err := newJWTManagerForTest(t).SignRefreshToken("u42", "dev-1", 0, time.Hour)
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}
	if _, err := gate.CheckSession(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token: expected ErrInvalidToken, got %v", err)
	}
}

func TestAccessGateCheckSessionRejectsForeignIssuer(t *testing.T) {
	gate := newAccessGateForTest(t, 5)

	foreign := security.NewJWTManager(
		"someone-else",
		"content-platform-clients",
		strings.Repeat("a", 32),
		strings.Repeat("r", 32),
	)
	token, err := foreign.SignAccessToken("u42", 15*time.Minute)
	if err != nil {
		t.Fatalf("sign foreign token: %v", err)
	}
	if _, err := gate.CheckSession(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign issuer, got %v", err)
	}
}

func TestAccessGateCheckRateDelegatesToLimiter(t *testing.T) {
	ctx := context.Background()
	gate := newAccessGateForTest(t, 1)

	admitted, err := gate.CheckRate(ctx, "1.2.3.4", "auth")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !admitted {
		t.Fatal("first request must be admitted")
	}

	admitted, err = gate.CheckRate(ctx, "1.2.3.4", "auth")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if admitted {
		t.Fatal("second request above the threshold must be denied")
	}
}
