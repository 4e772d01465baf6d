package repository

import (
	"context"
	"database/sql"
	"time"

	"kodbank/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernameFold(ctx context.Context, username string) (*models.User, error)
	GetByUID(ctx context.Context, uid int64) (*models.User, error)
	Balance(ctx context.Context, username string) (models.Paise, bool, error)
}

// SessionRepositoryI defines operations on stored session tokens.
type SessionRepositoryI interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TransactionRepositoryI defines operations on the transaction log.
type TransactionRepositoryI interface {
	InsertTx(ctx context.Context, tx *sql.Tx, t *models.Transaction) error
	ListByUsername(ctx context.Context, username string, limit int) ([]models.Transaction, error)
	CountByUsername(ctx context.Context, username string) (int64, error)
}
