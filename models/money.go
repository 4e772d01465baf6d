package models

import (
	"errors"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Paise is a monetary value in minor units of INR (1 rupee = 100 paise).
// Balances and amounts are stored as integers so arithmetic in SQL stays
// exact; decimal conversion happens only at the API boundary.
type Paise int64

// ErrFractionalPaise reports an amount finer than two decimal places.
var ErrFractionalPaise = errors.New("amount has more than two decimal places")

// PaiseFromDecimal converts a rupee-denominated decimal into minor units.
func PaiseFromDecimal(d decimal.Decimal) (Paise, error) {
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrFractionalPaise
	}
	return Paise(minor.IntPart()), nil
}

// Decimal returns the value in rupees.
func (p Paise) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// MarshalJSON renders the value as a plain JSON number in rupees,
// matching the wire format of the original API ("balance": 100000).
func (p Paise) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number (or quoted number) in rupees.
func (p *Paise) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := PaiseFromDecimal(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Display formats the value for user-facing messages, e.g. "₹250.00".
func (p Paise) Display() string {
	return money.New(int64(p), money.INR).Display()
}
