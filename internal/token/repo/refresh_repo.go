package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MyraLuetke/CISC498-Backend/internal/token/entity"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

// EnsureTable creates refresh_sessions if it does not exist. The identities
// table must already exist.
func (r *RefreshRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS refresh_sessions (
  id TEXT PRIMARY KEY,
  token_hash TEXT NOT NULL UNIQUE,
  identity_id BIGINT NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
  expires_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refresh_sessions_identity ON refresh_sessions(identity_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *RefreshRepo) Save(ctx context.Context, s *entity.RefreshSession) error {
	const q = `INSERT INTO refresh_sessions (id, token_hash, identity_id, expires_at)
VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, q, s.ID, s.TokenHash, s.IdentityID, s.ExpiresAt).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refresh session: %w", database.Translate(err))
	}
	return nil
}

// Take deletes the session with tokenHash and returns it, so a refresh token
// can be redeemed once. It returns sql.ErrNoRows when no session matches.
func (r *RefreshRepo) Take(ctx context.Context, tokenHash string) (*entity.RefreshSession, error) {
	var s entity.RefreshSession
	err := r.db.GetContext(ctx, &s, `DELETE FROM refresh_sessions WHERE token_hash = $1
RETURNING id, token_hash, identity_id, expires_at, created_at`, tokenHash)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RevokeAll deletes every session of an identity.
func (r *RefreshRepo) RevokeAll(ctx context.Context, identityID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE identity_id = $1`, identityID)
	return err
}

// PurgeExpired removes sessions that expired before now and reports how many.
func (r *RefreshRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
