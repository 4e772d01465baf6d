package models

// RoleCustomer is the only role assignable through registration.
const RoleCustomer = "Customer"

// User represents a bank customer.
// It maps to the `kod_user` table in SQLite.
type User struct {
	UID          int64  `db:"uid" json:"uid"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone,omitempty"`
	Role         string `db:"role" json:"role"`
	Balance      Paise  `db:"balance" json:"balance"`
	PasswordHash string `db:"password" json:"-"`
}
