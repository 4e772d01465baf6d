// Package ledger holds the balance-mutating core of the bank: deposits,
// transfers, balance reads and the transaction history. Every mutation is a
// single SQLite transaction; balances are only ever changed by in-database
// arithmetic, never by writing back a value read into memory.
package ledger

import "errors"

// Domain errors. These are business denials, not system faults; the HTTP
// layer maps them to 400/404 responses with the original API's wording.
var (
	ErrInvalidAmount     = errors.New("invalid amount. Must be between 1 and 10,00,000")
	ErrMissingRecipient  = errors.New("recipient username is required")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrAccountNotFound   = errors.New("user not found")
)
