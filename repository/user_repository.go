package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kodbank/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uid, username, email, password, phone, role, balance`

// Create inserts a new user. Role is forced to 'Customer' regardless of input.
// Returns ErrConflict when username or email is already taken.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO kod_user (username, email, password, phone, role, balance) VALUES (?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.Phone, models.RoleCustomer, int64(u.Balance))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	u.UID = id
	u.Role = models.RoleCustomer
	return u, nil
}

// GetByUsername looks a user up by exact (case-sensitive) username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM kod_user WHERE username = ?`, username))
}

// GetByUsernameFold looks a user up ignoring username case. The stored casing
// is returned untouched; transfer recipients are resolved this way.
func (r *UserRepository) GetByUsernameFold(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM kod_user WHERE username = ? COLLATE NOCASE`, username))
}

// GetByUID fetches a user by primary key.
func (r *UserRepository) GetByUID(ctx context.Context, uid int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM kod_user WHERE uid = ?`, uid))
}

// Balance returns just the balance for the given username.
func (r *UserRepository) Balance(ctx context.Context, username string) (models.Paise, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var bal int64
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM kod_user WHERE username = ?`, username).Scan(&bal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return models.Paise(bal), true, nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	var bal int64
	err := row.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &bal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Balance = models.Paise(bal)
	return &u, nil
}
