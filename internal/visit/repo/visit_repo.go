package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MyraLuetke/CISC498-Backend/internal/visit/entity"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

// VisitRepo stores visits and walk-in visits using sqlx.
type VisitRepo struct {
	db *sqlx.DB
}

func NewVisitRepo(db *sqlx.DB) *VisitRepo { return &VisitRepo{db: db} }

// EnsureTable creates the visit tables if they do not exist. The profile
// tables must already exist.
func (r *VisitRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS visits (
  id BIGINT PRIMARY KEY,
  date_time TIMESTAMPTZ NOT NULL,
  customer_id BIGINT NOT NULL REFERENCES customers(identity_id) ON DELETE RESTRICT,
  business_id BIGINT NOT NULL REFERENCES businesses(identity_id) ON DELETE RESTRICT,
  num_visitors INT NOT NULL CHECK (num_visitors > 0),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS unregistered_visits (
  id BIGINT PRIMARY KEY,
  date_time TIMESTAMPTZ NOT NULL,
  first_name VARCHAR(100) NOT NULL,
  last_name VARCHAR(100) NOT NULL,
  phone_num VARCHAR(11) NOT NULL,
  business_id BIGINT NOT NULL REFERENCES businesses(identity_id) ON DELETE RESTRICT,
  num_visitors INT NOT NULL CHECK (num_visitors > 0),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_visits_business ON visits(business_id);
CREATE INDEX IF NOT EXISTS idx_visits_customer ON visits(customer_id);
CREATE INDEX IF NOT EXISTS idx_unregistered_visits_business ON unregistered_visits(business_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// CreateVisit inserts v. ID and DateTime must be set; CreatedAt is filled
// from the database.
func (r *VisitRepo) CreateVisit(ctx context.Context, v *entity.Visit) error {
	const q = `INSERT INTO visits (id, date_time, customer_id, business_id, num_visitors)
VALUES (:id, :date_time, :customer_id, :business_id, :num_visitors)
RETURNING created_at`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, q, v)
	if err != nil {
		return fmt.Errorf("insert visit: %w", database.Translate(err))
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&v.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *VisitRepo) CreateUnregisteredVisit(ctx context.Context, v *entity.UnregisteredVisit) error {
	const q = `INSERT INTO unregistered_visits (id, date_time, first_name, last_name, phone_num, business_id, num_visitors)
VALUES (:id, :date_time, :first_name, :last_name, :phone_num, :business_id, :num_visitors)
RETURNING created_at`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, q, v)
	if err != nil {
		return fmt.Errorf("insert unregistered visit: %w", database.Translate(err))
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&v.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ListVisits returns every visit in insertion order.
func (r *VisitRepo) ListVisits(ctx context.Context) ([]entity.Visit, error) {
	out := []entity.Visit{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, date_time, customer_id, business_id, num_visitors, created_at FROM visits ORDER BY created_at, id`)
	return out, err
}

// ListUnregisteredVisits returns the walk-ins recorded by one business.
func (r *VisitRepo) ListUnregisteredVisits(ctx context.Context, businessID int64) ([]entity.UnregisteredVisit, error) {
	out := []entity.UnregisteredVisit{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, date_time, first_name, last_name, phone_num, business_id, num_visitors, created_at
FROM unregistered_visits WHERE business_id = $1 ORDER BY created_at, id`, businessID)
	return out, err
}
