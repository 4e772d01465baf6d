package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"kodbank/internal/testutil"
	"kodbank/repository"
)

func TestVerifier_Authenticate(t *testing.T) {
	d := testutil.OpenTestDB(t)
	u := testutil.SeedUser(t, d, "alice", 0)
	sessions := repository.NewSessionRepository(d)
	v := NewVerifier(testSecret, sessions)
	ctx := context.Background()

	future := time.Now().Add(TokenLifetime)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", future)
	testutil.SeedSession(t, d, tok, "alice", u.UID, future)

	p, err := v.Authenticate(ctx, tok)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Username != "alice" {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestVerifier_MissingToken(t *testing.T) {
	d := testutil.OpenTestDB(t)
	v := NewVerifier(testSecret, repository.NewSessionRepository(d))

	for _, tok := range []string{"", "   "} {
		if _, err := v.Authenticate(context.Background(), tok); !errors.Is(err, ErrMissingToken) {
			t.Fatalf("token %q: expected ErrMissingToken, got %v", tok, err)
		}
	}
}

// A signature-valid token without a stored session row must be rejected: the
// store lookup is an independent gate, not a cache of the signature check.
func TestVerifier_NoSessionRow(t *testing.T) {
	d := testutil.OpenTestDB(t)
	v := NewVerifier(testSecret, repository.NewSessionRepository(d))

	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", time.Now().Add(time.Hour))
	if _, err := v.Authenticate(context.Background(), tok); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestVerifier_RevokedSession(t *testing.T) {
	d := testutil.OpenTestDB(t)
	u := testutil.SeedUser(t, d, "alice", 0)
	sessions := repository.NewSessionRepository(d)
	v := NewVerifier(testSecret, sessions)
	ctx := context.Background()

	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", time.Now().Add(time.Hour))
	testutil.SeedSession(t, d, tok, "alice", u.UID, time.Now().Add(time.Hour))
	if err := sessions.Revoke(ctx, tok); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := v.Authenticate(ctx, tok); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

// Stored expiry is honored even when the token's own exp claim is still valid.
func TestVerifier_StoredExpiryWins(t *testing.T) {
	d := testutil.OpenTestDB(t)
	u := testutil.SeedUser(t, d, "alice", 0)
	v := NewVerifier(testSecret, repository.NewSessionRepository(d))

	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", time.Now().Add(time.Hour))
	testutil.SeedSession(t, d, tok, "alice", u.UID, time.Now().Add(-time.Minute))

	if _, err := v.Authenticate(context.Background(), tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifier_ForgedToken(t *testing.T) {
	d := testutil.OpenTestDB(t)
	u := testutil.SeedUser(t, d, "alice", 0)
	v := NewVerifier(testSecret, repository.NewSessionRepository(d))

	// Token signed with the wrong secret, but with a matching store row.
	tok := testutil.GenerateJWTHS256(t, "attacker-secret", "alice", time.Now().Add(time.Hour))
	testutil.SeedSession(t, d, tok, "alice", u.UID, time.Now().Add(time.Hour))

	if _, err := v.Authenticate(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
