package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"kodbank/models"
	"kodbank/repository"
)

// OpeningBalance is credited to every new account, in paise (₹100,000).
const OpeningBalance models.Paise = 100_000 * 100

// Issuer registers accounts and mints session credentials on login.
type Issuer struct {
	secret   string
	users    repository.UserRepositoryI
	sessions repository.SessionRepositoryI
	now      func() time.Time
}

func NewIssuer(secret string, users repository.UserRepositoryI, sessions repository.SessionRepositoryI) *Issuer {
	return &Issuer{secret: secret, users: users, sessions: sessions, now: time.Now}
}

var (
	// ErrMissingFields rejects a registration with any empty field.
	ErrMissingFields = errors.New("all fields are required")
	// ErrRoleNotAllowed rejects any client-supplied role other than Customer.
	ErrRoleNotAllowed = errors.New("only 'Customer' role is allowed")
	// ErrInvalidCredentials covers both unknown username and wrong password;
	// the two cases are indistinguishable to prevent username enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Register creates a new account with the fixed opening balance. Uniqueness of
// username and email is enforced by the store's constraints, not a pre-check,
// so concurrent registrations cannot race past validation; a violation
// surfaces as repository.ErrConflict. The role is stored as "Customer"
// regardless of client input, and only the bcrypt hash of the password is
// persisted.
func (i *Issuer) Register(ctx context.Context, username, password, email, phone, role string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" ||
		strings.TrimSpace(email) == "" || strings.TrimSpace(phone) == "" {
		return nil, ErrMissingFields
	}
	if role != "" && role != models.RoleCustomer {
		return nil, ErrRoleNotAllowed
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		Phone:        phone,
		Role:         models.RoleCustomer,
		Balance:      OpeningBalance,
		PasswordHash: hash,
	}
	return i.users.Create(ctx, u)
}

// Login verifies the password against the stored hash and mints a fresh
// 24-hour session. Each login creates an independent session; earlier tokens
// for the same user stay valid until their own expiry.
func (i *Issuer) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	u, err := i.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	token, expiry, err := Mint(i.secret, u.Username, u.Role, u.UID, i.now())
	if err != nil {
		return nil, nil, err
	}
	s := &models.Session{Token: token, UID: u.UID, Username: u.Username, Expiry: expiry}
	if _, err := i.sessions.Create(ctx, s); err != nil {
		return nil, nil, err
	}
	return s, u, nil
}

// Logout revokes the presented session token. Other sessions of the same user
// are unaffected.
func (i *Issuer) Logout(ctx context.Context, token string) error {
	return i.sessions.Revoke(ctx, token)
}
