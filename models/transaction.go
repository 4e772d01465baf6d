package models

import "time"

// TransactionType distinguishes the two balance-affecting events.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionTransfer TransactionType = "transfer"
)

// Transaction is one immutable entry of the append-only transaction log.
// FromUsername is nil for deposits.
type Transaction struct {
	ID           int64           `db:"id" json:"id"`
	FromUsername *string         `db:"from_username" json:"from_username"`
	ToUsername   string          `db:"to_username" json:"to_username"`
	Type         TransactionType `db:"type" json:"type"`
	Amount       Paise           `db:"amount" json:"amount"`
	Description  string          `db:"description" json:"description"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
