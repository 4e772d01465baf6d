package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is the fixed validity window of a session credential.
const TokenLifetime = 24 * time.Hour

// Authentication failures, ordered by the check that produced them. Callers
// map these to context-appropriate denial (e.g. force re-login on expiry).
var (
	ErrMissingToken   = errors.New("authentication required")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("session expired")
	ErrSessionRevoked = errors.New("session not found or revoked")
)

// Principal represents the authenticated caller resolved from a session token.
type Principal struct {
	Username string
	Role     string
	UID      int64
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

type claims struct {
	Role string `json:"role"`
	UID  int64  `json:"uid"`
	jwt.RegisteredClaims
}

// Mint signs a new HS256 session token for the user. The username travels in
// the standard `sub` claim; expiry is now+TokenLifetime and is returned so the
// caller can persist the same instant in session storage.
func Mint(secret, username, role string, uid int64, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	expiry := now.Add(TokenLifetime)
	c := claims{
		Role: role,
		UID:  uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, expiry, nil
}

// parseJWT validates the signature and embedded expiry of a token and extracts
// the principal. It never consults session storage; that is the verifier's job.
func parseJWT(tokenStr, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || strings.TrimSpace(c.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{Username: c.Subject, Role: c.Role, UID: c.UID}, nil
}
