package entity

import "time"

// RefreshSession is a persisted refresh token. Only the SHA-256 of the
// token is stored.
type RefreshSession struct {
	ID         string    `db:"id"`
	TokenHash  string    `db:"token_hash"`
	IdentityID int64     `db:"identity_id"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
