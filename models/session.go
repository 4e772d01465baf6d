package models

import "time"

// Session is a stored login session backing a signed bearer token.
// It maps to the `user_token` table. A token is only accepted while its row
// exists, is not revoked, and the stored expiry has not passed — independent
// of the expiry claim embedded in the token itself.
type Session struct {
	TID      int64     `db:"tid" json:"tid"`
	Token    string    `db:"token" json:"token"`
	UID      int64     `db:"uid" json:"uid"`
	Username string    `db:"username" json:"username"`
	Expiry   time.Time `db:"expiry" json:"expiry"`
	Revoked  bool      `db:"revoked" json:"revoked"`
}
