package auth

import (
	"context"
	"errors"
	"testing"

	"kodbank/internal/testutil"
	"kodbank/models"
	"kodbank/repository"
)

func newTestIssuer(t *testing.T) (*Issuer, *Verifier) {
	t.Helper()
	d := testutil.OpenTestDB(t)
	users := repository.NewUserRepository(d)
	sessions := repository.NewSessionRepository(d)
	return NewIssuer(testSecret, users, sessions), NewVerifier(testSecret, sessions)
}

func TestIssuer_Register(t *testing.T) {
	iss, _ := newTestIssuer(t)
	ctx := context.Background()

	u, err := iss.Register(ctx, "alice", "s3cret", "alice@example.com", "9876543210", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.UID == 0 || u.Role != models.RoleCustomer {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Balance != OpeningBalance {
		t.Fatalf("opening balance = %d, want %d", u.Balance, OpeningBalance)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatalf("password stored in the clear or not at all")
	}
	if !CheckPassword(u.PasswordHash, "s3cret") {
		t.Fatalf("stored hash does not verify")
	}

	// Explicit Customer role is accepted, anything else rejected.
	if _, err := iss.Register(ctx, "bob", "pw", "bob@example.com", "1", models.RoleCustomer); err != nil {
		t.Fatalf("register with explicit Customer: %v", err)
	}
	if _, err := iss.Register(ctx, "eve", "pw", "eve@example.com", "1", "Admin"); !errors.Is(err, ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}
}

func TestIssuer_Register_MissingFields(t *testing.T) {
	iss, _ := newTestIssuer(t)
	ctx := context.Background()

	cases := [][4]string{
		{"", "pw", "a@example.com", "1"},
		{"alice", "", "a@example.com", "1"},
		{"alice", "pw", "", "1"},
		{"alice", "pw", "a@example.com", ""},
	}
	for _, c := range cases {
		if _, err := iss.Register(ctx, c[0], c[1], c[2], c[3], ""); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("fields %v: expected ErrMissingFields, got %v", c, err)
		}
	}
}

func TestIssuer_Register_DuplicateUsername(t *testing.T) {
	iss, _ := newTestIssuer(t)
	ctx := context.Background()

	if _, err := iss.Register(ctx, "alice", "pw", "a@example.com", "1", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := iss.Register(ctx, "alice", "pw", "b@example.com", "1", ""); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestIssuer_LoginLogout(t *testing.T) {
	iss, v := newTestIssuer(t)
	ctx := context.Background()

	if _, err := iss.Register(ctx, "alice", "s3cret", "a@example.com", "1", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	sess, u, err := iss.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Username != "alice" || sess.Token == "" || sess.UID != u.UID {
		t.Fatalf("unexpected login result: sess=%+v user=%+v", sess, u)
	}

	// The minted token authenticates until logout.
	p, err := v.Authenticate(ctx, sess.Token)
	if err != nil || p.Username != "alice" {
		t.Fatalf("authenticate after login: %v %+v", err, p)
	}

	// A second login issues an independent session.
	sess2, _, err := iss.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := iss.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := v.Authenticate(ctx, sess.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked after logout, got %v", err)
	}
	if _, err := v.Authenticate(ctx, sess2.Token); err != nil {
		t.Fatalf("other session must survive logout: %v", err)
	}
}

// Unknown username and wrong password are indistinguishable to the caller.
func TestIssuer_Login_InvalidCredentials(t *testing.T) {
	iss, _ := newTestIssuer(t)
	ctx := context.Background()

	if _, err := iss.Register(ctx, "alice", "s3cret", "a@example.com", "1", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, c := range [][2]string{
		{"alice", "wrong"},
		{"nobody", "s3cret"},
		{"", "s3cret"},
		{"alice", ""},
	} {
		if _, _, err := iss.Login(ctx, c[0], c[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login %v: expected ErrInvalidCredentials, got %v", c, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(h, "hunter2") {
		t.Fatalf("hash does not verify")
	}
	if CheckPassword(h, "hunter3") {
		t.Fatalf("wrong password verified")
	}

	// Hashes are salted; two hashes of the same input differ.
	h2, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h == h2 {
		t.Fatalf("identical hashes for same password")
	}
}
