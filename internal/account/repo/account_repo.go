package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

// AccountRepo provides data access for identities and their profiles using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the identity and profile tables if they do not exist.
// This is a convenience for early development; prefer migrations in production.
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS identities (
  id BIGSERIAL PRIMARY KEY,
  email CITEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  password_algo TEXT NOT NULL,
  password_updated_at TIMESTAMPTZ,
  is_staff BOOLEAN NOT NULL DEFAULT false,
  is_superuser BOOLEAN NOT NULL DEFAULT false,
  is_customer BOOLEAN NOT NULL DEFAULT false,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  deactivated_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS customers (
  identity_id BIGINT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
  first_name VARCHAR(100) NOT NULL,
  last_name VARCHAR(100) NOT NULL,
  phone_num VARCHAR(11) NOT NULL,
  contact_preference TEXT NOT NULL DEFAULT 'email' CHECK (contact_preference IN ('email', 'phone')),
  email_verification BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS businesses (
  identity_id BIGINT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
  name VARCHAR(100) NOT NULL,
  phone_num VARCHAR(11) NOT NULL,
  address TEXT NOT NULL,
  city VARCHAR(100) NOT NULL,
  postal_code VARCHAR(7) NOT NULL,
  province CHAR(2) NOT NULL,
  capacity INT NOT NULL CHECK (capacity > 0)
);
CREATE INDEX IF NOT EXISTS idx_identities_is_customer ON identities(is_customer);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const identityColumns = `id, email, password_hash, password_algo, password_updated_at,
	is_staff, is_superuser, is_customer, is_active, created_at, updated_at, deactivated_at`

// CreateAccount inserts the identity and its profile in one transaction.
// A taken email surfaces as database.ErrDuplicate.
func (r *AccountRepo) CreateAccount(ctx context.Context, acct *entity.Account) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const q = `INSERT INTO identities (email, password_hash, password_algo, password_updated_at, is_staff, is_superuser, is_customer, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`
		id := &acct.Identity
		err := tx.QueryRowxContext(ctx, q, id.Email, id.PasswordHash, id.PasswordAlgo, id.PasswordUpdatedAt,
			id.IsStaff, id.IsSuperuser, id.IsCustomer, id.IsActive).Scan(&id.ID, &id.CreatedAt, &id.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert identity: %w", database.Translate(err))
		}
		acct.Profile.SetOwnerID(id.ID)
		return upsertProfile(ctx, tx, acct.Profile)
	})
}

// ReclaimAccount reactivates an inactive identity and overwrites its
// profile. A profile held under the other role is removed. The conditional
// update makes concurrent reclaims of one identity serialise: the loser sees
// no inactive row and gets database.ErrDuplicate.
func (r *AccountRepo) ReclaimAccount(ctx context.Context, acct *entity.Account) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const q = `UPDATE identities SET password_hash=$2, password_algo=$3, password_updated_at=$4, is_customer=$5,
				is_active=true, deactivated_at=NULL, updated_at=NOW()
			WHERE id=$1 AND is_active=false RETURNING updated_at`
		id := &acct.Identity
		err := tx.QueryRowxContext(ctx, q, id.ID, id.PasswordHash, id.PasswordAlgo, id.PasswordUpdatedAt, id.IsCustomer).
			Scan(&id.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("identity %d is not inactive: %w", id.ID, database.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("reactivate identity: %w", err)
		}
		id.IsActive = true
		id.DeactivatedAt = nil

		other := `DELETE FROM businesses WHERE identity_id=$1`
		if acct.Profile.Role() == entity.RoleBusiness {
			other = `DELETE FROM customers WHERE identity_id=$1`
		}
		if _, err := tx.ExecContext(ctx, other, id.ID); err != nil {
			return fmt.Errorf("drop previous profile: %w", database.Translate(err))
		}
		return upsertProfile(ctx, tx, acct.Profile)
	})
}

// upsertProfile writes every profile column, replacing an existing row.
func upsertProfile(ctx context.Context, tx *sqlx.Tx, p entity.Profile) error {
	var q string
	switch p := p.(type) {
	case *entity.CustomerProfile:
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		q = `INSERT INTO customers (identity_id, first_name, last_name, phone_num, contact_preference, email_verification, created_at)
			VALUES (:identity_id, :first_name, :last_name, :phone_num, :contact_preference, :email_verification, :created_at)
			ON CONFLICT (identity_id) DO UPDATE SET first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
				phone_num=EXCLUDED.phone_num, contact_preference=EXCLUDED.contact_preference,
				email_verification=EXCLUDED.email_verification, created_at=EXCLUDED.created_at`
	case *entity.BusinessProfile:
		q = `INSERT INTO businesses (identity_id, name, phone_num, address, city, postal_code, province, capacity)
			VALUES (:identity_id, :name, :phone_num, :address, :city, :postal_code, :province, :capacity)
			ON CONFLICT (identity_id) DO UPDATE SET name=EXCLUDED.name, phone_num=EXCLUDED.phone_num,
				address=EXCLUDED.address, city=EXCLUDED.city, postal_code=EXCLUDED.postal_code,
				province=EXCLUDED.province, capacity=EXCLUDED.capacity`
	default:
		return fmt.Errorf("unknown profile type %T", p)
	}
	if _, err := tx.NamedExecContext(ctx, q, p); err != nil {
		return fmt.Errorf("write %s profile: %w", p.Role(), database.Translate(err))
	}
	return nil
}

// IdentityByID returns an identity or sql.ErrNoRows.
func (r *AccountRepo) IdentityByID(ctx context.Context, id int64) (*entity.Identity, error) {
	var row entity.Identity
	if err := r.db.GetContext(ctx, &row, `SELECT `+identityColumns+` FROM identities WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// IdentityByEmail returns an identity matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *AccountRepo) IdentityByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var row entity.Identity
	if err := r.db.GetContext(ctx, &row, `SELECT `+identityColumns+` FROM identities WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &row, nil
}

// AccountByID loads an identity with its profile of the given role.
// An identity holding the other role yields sql.ErrNoRows.
func (r *AccountRepo) AccountByID(ctx context.Context, id int64, role entity.Role) (*entity.Account, error) {
	return loadAccount(ctx, r.db, id, role, false)
}

// ModifyIdentity runs a locked read-modify-write on one identity row.
func (r *AccountRepo) ModifyIdentity(ctx context.Context, id int64, fn func(*entity.Identity) error) (*entity.Identity, error) {
	var out *entity.Identity
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var row entity.Identity
		if err := tx.GetContext(ctx, &row, `SELECT `+identityColumns+` FROM identities WHERE id=$1 FOR UPDATE`, id); err != nil {
			return err
		}
		if err := fn(&row); err != nil {
			return err
		}
		const q = `UPDATE identities SET email=$2, password_hash=$3, password_algo=$4, password_updated_at=$5,
				is_active=$6, deactivated_at=$7, updated_at=NOW()
			WHERE id=$1 RETURNING updated_at`
		err := tx.QueryRowxContext(ctx, q, row.ID, row.Email, row.PasswordHash, row.PasswordAlgo,
			row.PasswordUpdatedAt, row.IsActive, row.DeactivatedAt).Scan(&row.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update identity: %w", database.Translate(err))
		}
		out = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ModifyProfile runs a locked read-modify-write on one profile row.
func (r *AccountRepo) ModifyProfile(ctx context.Context, id int64, role entity.Role, fn func(*entity.Account) error) (*entity.Account, error) {
	var out *entity.Account
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		acct, err := loadAccount(ctx, tx, id, role, true)
		if err != nil {
			return err
		}
		if err := fn(acct); err != nil {
			return err
		}
		acct.Profile.SetOwnerID(id)
		if err := upsertProfile(ctx, tx, acct.Profile); err != nil {
			return err
		}
		out = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadAccount(ctx context.Context, q sqlx.QueryerContext, id int64, role entity.Role, lock bool) (*entity.Account, error) {
	suffix := ""
	if lock {
		suffix = " FOR UPDATE"
	}
	var ident entity.Identity
	if err := sqlx.GetContext(ctx, q, &ident, `SELECT `+identityColumns+` FROM identities WHERE id=$1`+suffix, id); err != nil {
		return nil, err
	}
	if ident.Role() != role {
		return nil, sql.ErrNoRows
	}

	var profile entity.Profile
	switch role {
	case entity.RoleCustomer:
		var c entity.CustomerProfile
		err := sqlx.GetContext(ctx, q, &c, `SELECT identity_id, first_name, last_name, phone_num, contact_preference,
			email_verification, created_at FROM customers WHERE identity_id=$1`+suffix, id)
		if err != nil {
			return nil, err
		}
		profile = &c
	case entity.RoleBusiness:
		var b entity.BusinessProfile
		err := sqlx.GetContext(ctx, q, &b, `SELECT identity_id, name, phone_num, address, city, postal_code,
			province, capacity FROM businesses WHERE identity_id=$1`+suffix, id)
		if err != nil {
			return nil, err
		}
		profile = &b
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return &entity.Account{Identity: ident, Profile: profile}, nil
}
