package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kodbank/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a freshly minted session token. Every login inserts a new
// row; existing sessions for the same user stay valid until their own expiry.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s == nil {
		return nil, errors.New("session is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_token (token, uid, username, expiry) VALUES (?,?,?,?)`,
		s.Token, s.UID, s.Username, s.Expiry.UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	s.TID = id
	return s, nil
}

// GetByToken fetches the stored session for a token, or nil when absent.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s models.Session
	var revoked int
	err := r.db.QueryRowContext(ctx,
		`SELECT tid, token, uid, username, expiry, revoked FROM user_token WHERE token = ?`, token).
		Scan(&s.TID, &s.Token, &s.UID, &s.Username, &s.Expiry, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Revoked = revoked != 0
	return &s, nil
}

// Revoke marks a session invalid without deleting its row, so an audit trail
// of issued credentials survives logout.
func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE user_token SET revoked = 1 WHERE token = ?`, token)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteExpired removes sessions whose stored expiry has passed. Intended for
// periodic cleanup; the verifier never relies on it.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_token WHERE expiry < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
