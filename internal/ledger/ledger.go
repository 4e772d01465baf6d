package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kodbank/models"
	"kodbank/repository"
)

// MaxAmount is the ceiling for a single deposit or transfer, in rupees.
var MaxAmount = decimal.NewFromInt(1_000_000)

// History limits: 20 entries for the direct endpoint, 10 for the assistant tool.
const (
	HistoryLimit          = 20
	AssistantHistoryLimit = 10
)

// Engine applies deposits and transfers atomically against the user table and
// the transaction log. It owns the SQL transaction protocol; repositories are
// used for plain reads and for log inserts scoped to an engine transaction.
type Engine struct {
	db    *sql.DB
	users repository.UserRepositoryI
	log   repository.TransactionRepositoryI
}

func NewEngine(db *sql.DB, users repository.UserRepositoryI, log repository.TransactionRepositoryI) *Engine {
	return &Engine{db: db, users: users, log: log}
}

// CheckBalance is a pure read; it mutates nothing and writes no log entry.
func (e *Engine) CheckBalance(ctx context.Context, username string) (models.Paise, error) {
	bal, ok, err := e.users.Balance(ctx, username)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrAccountNotFound
	}
	return bal, nil
}

// Deposit credits the user's balance by amount and appends one deposit record,
// both in the same SQL transaction. The credit is an in-database increment, so
// two concurrent deposits to the same account are both reflected in the final
// balance.
func (e *Engine) Deposit(ctx context.Context, username string, amount decimal.Decimal) (models.Paise, error) {
	p, err := validAmount(amount)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE kod_user SET balance = balance + ? WHERE username = ?`, int64(p), username)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrAccountNotFound
	}

	rec := &models.Transaction{
		ToUsername:  username,
		Type:        models.TransactionDeposit,
		Amount:      p,
		Description: fmt.Sprintf("Deposit of %s", p.Display()),
	}
	if err := e.log.InsertTx(ctx, tx, rec); err != nil {
		return 0, err
	}

	var bal int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM kod_user WHERE username = ?`, username).Scan(&bal); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return models.Paise(bal), nil
}

// Transfer moves amount from sender to the (case-insensitively matched)
// recipient. Debit, credit and the single log record commit as one unit; no
// reader can ever observe the debit without the credit.
//
// Insufficient funds is decided by the conditional debit's affected-row count
// at write time, not by an earlier read, so two concurrent transfers that
// together would overdraw the sender cannot both succeed.
func (e *Engine) Transfer(ctx context.Context, sender, toUsername string, amount decimal.Decimal) (models.Paise, string, error) {
	p, err := validAmount(amount)
	if err != nil {
		return 0, "", err
	}
	toUsername = strings.TrimSpace(toUsername)
	if toUsername == "" {
		return 0, "", ErrMissingRecipient
	}
	if strings.EqualFold(toUsername, sender) {
		return 0, "", ErrSelfTransfer
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = tx.Rollback() }()

	// Resolve the recipient's stored username inside the transaction.
	var recipient string
	err = tx.QueryRowContext(ctx,
		`SELECT username FROM kod_user WHERE username = ? COLLATE NOCASE`, toUsername).Scan(&recipient)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrRecipientNotFound
		}
		return 0, "", err
	}

	// Conditional debit: the WHERE clause rejects overdrafts atomically.
	res, err := tx.ExecContext(ctx,
		`UPDATE kod_user SET balance = balance - ? WHERE username = ? AND balance >= ?`,
		int64(p), sender, int64(p))
	if err != nil {
		return 0, "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM kod_user WHERE username = ?`, sender).Scan(&exists); err != nil {
			return 0, "", err
		}
		if exists == 0 {
			return 0, "", ErrAccountNotFound
		}
		return 0, "", ErrInsufficientFunds
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE kod_user SET balance = balance + ? WHERE username = ?`, int64(p), recipient)
	if err != nil {
		return 0, "", err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return 0, "", fmt.Errorf("credit affected %d rows for %q", n, recipient)
	}

	rec := &models.Transaction{
		FromUsername: &sender,
		ToUsername:   recipient,
		Type:         models.TransactionTransfer,
		Amount:       p,
		Description:  fmt.Sprintf("Transfer from %s to %s", sender, recipient),
	}
	if err := e.log.InsertTx(ctx, tx, rec); err != nil {
		return 0, "", err
	}

	var bal int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM kod_user WHERE username = ?`, sender).Scan(&bal); err != nil {
		return 0, "", err
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return models.Paise(bal), recipient, nil
}

// History lists transactions involving the user as sender or recipient,
// newest first, bounded by limit.
func (e *Engine) History(ctx context.Context, username string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	return e.log.ListByUsername(ctx, username, limit)
}

// validAmount converts a rupee amount to paise after range and precision
// checks: positive, at most MaxAmount, no fraction below one paisa.
func validAmount(amount decimal.Decimal) (models.Paise, error) {
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return 0, ErrInvalidAmount
	}
	p, err := models.PaiseFromDecimal(amount)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return p, nil
}
