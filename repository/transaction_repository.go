package repository

import (
	"context"
	"database/sql"
	"time"

	"kodbank/models"
)

// TransactionRepository reads the append-only transaction log. Inserts happen
// only inside ledger transactions via InsertTx, so a record can never exist
// without the balance change it documents.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// InsertTx appends one record within the caller's transaction.
func (r *TransactionRepository) InsertTx(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (from_username, to_username, type, amount, description) VALUES (?,?,?,?,?)`,
		t.FromUsername, t.ToUsername, string(t.Type), int64(t.Amount), t.Description)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

// ListByUsername returns records where the user is sender or recipient,
// newest first. Each call runs a fresh bounded query; there is no cursor.
func (r *TransactionRepository) ListByUsername(ctx context.Context, username string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT id, from_username, to_username, type, amount, description, created_at
FROM transactions
WHERE from_username = ? OR to_username = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, username, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

// CountByUsername returns how many log entries involve the user.
func (r *TransactionRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE from_username = ? OR to_username = ?`,
		username, username).Scan(&n)
	return n, err
}

func scanTransactionRows(rows *sql.Rows) ([]models.Transaction, error) {
	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var from sql.NullString
		var typ string
		var amount int64
		if err := rows.Scan(&t.ID, &from, &t.ToUsername, &typ, &amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		if from.Valid {
			v := from.String
			t.FromUsername = &v
		}
		t.Type = models.TransactionType(typ)
		t.Amount = models.Paise(amount)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
