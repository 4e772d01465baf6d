package auth

import (
	"context"
	"strings"
	"time"

	"kodbank/repository"
)

// Verifier resolves a presented bearer token to a Principal.
//
// The signature check and the session-store lookup are independent gates:
// a forged token fails even if some row happens to match, and a stolen
// signing secret alone cannot mint a usable session without a store row.
type Verifier struct {
	secret   string
	sessions repository.SessionRepositoryI
	now      func() time.Time
}

func NewVerifier(secret string, sessions repository.SessionRepositoryI) *Verifier {
	return &Verifier{secret: secret, sessions: sessions, now: time.Now}
}

// Authenticate checks, in order: token presence, HS256 signature, embedded
// expiry, and the stored session row (existence, revocation, stored expiry).
// It has no side effects and is safe for concurrent use.
func (v *Verifier) Authenticate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	p, err := parseJWT(token, v.secret)
	if err != nil {
		return nil, err
	}
	s, err := v.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Revoked {
		return nil, ErrSessionRevoked
	}
	if s.Expiry.Before(v.now()) {
		return nil, ErrTokenExpired
	}
	return p, nil
}
