package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"kodbank/internal/db"
	"kodbank/models"
	"kodbank/repository"
)

// OpenTestDB opens a file-backed SQLite database under t.TempDir and applies
// migrations. A real file is used instead of :memory: because the busy
// timeout and WAL mode do not behave under shared-cache in-memory databases,
// which the concurrency tests rely on.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "kodbank_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// SeedUser inserts a user directly with the given balance in paise and a
// throwaway password hash. Email is derived from the username.
func SeedUser(t *testing.T, d *sql.DB, username string, balance models.Paise) *models.User {
	t.Helper()
	users := repository.NewUserRepository(d)
	u, err := users.Create(context.Background(), &models.User{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "0000000000",
		Balance:      balance,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// GenerateJWTHS256 returns a signed session token with the claims the app uses.
func GenerateJWTHS256(t *testing.T, secret, username string, expiry time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  username,
		"role": models.RoleCustomer,
		"uid":  int64(1),
		"exp":  expiry.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// SeedSession stores a session row for the given token.
func SeedSession(t *testing.T, d *sql.DB, token, username string, uid int64, expiry time.Time) {
	t.Helper()
	sessions := repository.NewSessionRepository(d)
	if _, err := sessions.Create(context.Background(), &models.Session{
		Token: token, UID: uid, Username: username, Expiry: expiry,
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}
