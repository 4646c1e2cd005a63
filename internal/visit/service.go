package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	acctentity "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/validate"
	"github.com/MyraLuetke/CISC498-Backend/internal/visit/entity"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

// Store persists visits.
type Store interface {
	CreateVisit(ctx context.Context, v *entity.Visit) error
	CreateUnregisteredVisit(ctx context.Context, v *entity.UnregisteredVisit) error
	ListVisits(ctx context.Context) ([]entity.Visit, error)
	ListUnregisteredVisits(ctx context.Context, businessID int64) ([]entity.UnregisteredVisit, error)
}

// Accounts resolves the parties of a visit. The account repository
// satisfies it.
type Accounts interface {
	AccountByID(ctx context.Context, id int64, role acctentity.Role) (*acctentity.Account, error)
	IdentityByEmail(ctx context.Context, email string) (*acctentity.Identity, error)
}

// IDSource hands out row ids.
type IDSource interface {
	NextID() int64
}

// Service records check-ins.
type Service struct {
	store    Store
	accounts Accounts
	ids      IDSource
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(store Store, accounts Accounts, ids IDSource, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, accounts: accounts, ids: ids, logger: logger, now: time.Now}
}

// VisitInput describes a registered visit. The customer is named either by
// CustomerID or by CustomerEmail. A zero DateTime means now.
type VisitInput struct {
	CustomerID    int64
	CustomerEmail string
	BusinessID    int64
	DateTime      time.Time
	NumVisitors   int
}

// WalkInInput describes an unregistered visit.
type WalkInInput struct {
	BusinessID  int64
	FirstName   string
	LastName    string
	PhoneNum    string
	DateTime    time.Time
	NumVisitors int
}

// RecordVisit stores a visit after checking that both parties exist and are
// active.
func (s *Service) RecordVisit(ctx context.Context, in VisitInput) (*entity.Visit, error) {
	customerID, err := s.customerID(ctx, in)
	if err != nil {
		return nil, err
	}
	if in.BusinessID <= 0 {
		return nil, apperr.Required("business")
	}
	customer, err := s.party(ctx, customerID, acctentity.RoleCustomer)
	if err != nil {
		return nil, err
	}
	business, err := s.party(ctx, in.BusinessID, acctentity.RoleBusiness)
	if err != nil {
		return nil, err
	}

	v := &apperr.Validator{}
	v.Check(customer.Identity.IsActive, "customer", apperr.MsgInactive)
	v.Check(business.Identity.IsActive, "business", apperr.MsgInactive)
	validate.Positive(v, "num_visitors", in.NumVisitors)
	if err := v.Err(); err != nil {
		return nil, err
	}

	visit := &entity.Visit{
		ID:          s.ids.NextID(),
		DateTime:    s.timestamp(in.DateTime),
		CustomerID:  customerID,
		BusinessID:  in.BusinessID,
		NumVisitors: in.NumVisitors,
	}
	if err := s.store.CreateVisit(ctx, visit); err != nil {
		if errors.Is(err, database.ErrReferenced) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("create visit: %w", err)
	}
	s.logger.Infow("visit recorded", "visit_id", visit.ID,
		"customer_id", visit.CustomerID, "business_id", visit.BusinessID)
	return visit, nil
}

// RecordUnregisteredVisit stores a walk-in for an active business.
func (s *Service) RecordUnregisteredVisit(ctx context.Context, in WalkInInput) (*entity.UnregisteredVisit, error) {
	business, err := s.party(ctx, in.BusinessID, acctentity.RoleBusiness)
	if err != nil {
		return nil, err
	}
	if !business.Identity.IsActive {
		return nil, apperr.ErrNotFound
	}

	walkIn := &entity.UnregisteredVisit{
		BusinessID:  in.BusinessID,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNum:    validate.NormalizePhone(in.PhoneNum),
		NumVisitors: in.NumVisitors,
	}
	v := &apperr.Validator{}
	validate.Name(v, "first_name", walkIn.FirstName)
	validate.Name(v, "last_name", walkIn.LastName)
	validate.Phone(v, "phone_num", walkIn.PhoneNum)
	validate.Positive(v, "num_visitors", walkIn.NumVisitors)
	if err := v.Err(); err != nil {
		return nil, err
	}

	walkIn.ID = s.ids.NextID()
	walkIn.DateTime = s.timestamp(in.DateTime)
	if err := s.store.CreateUnregisteredVisit(ctx, walkIn); err != nil {
		if errors.Is(err, database.ErrReferenced) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("create unregistered visit: %w", err)
	}
	s.logger.Infow("walk-in recorded", "visit_id", walkIn.ID, "business_id", walkIn.BusinessID)
	return walkIn, nil
}

// ListVisits returns all visits in insertion order.
func (s *Service) ListVisits(ctx context.Context) ([]entity.Visit, error) {
	visits, err := s.store.ListVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

// ListUnregisteredVisits returns the walk-ins of one business.
func (s *Service) ListUnregisteredVisits(ctx context.Context, businessID int64) ([]entity.UnregisteredVisit, error) {
	visits, err := s.store.ListUnregisteredVisits(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list unregistered visits: %w", err)
	}
	return visits, nil
}

func (s *Service) customerID(ctx context.Context, in VisitInput) (int64, error) {
	if in.CustomerID > 0 {
		return in.CustomerID, nil
	}
	email := validate.NormalizeEmail(in.CustomerEmail)
	if email == "" {
		return 0, apperr.Required("customer")
	}
	ident, err := s.accounts.IdentityByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load identity by email: %w", err)
	}
	return ident.ID, nil
}

// party loads the account of role for id. An identity holding the other
// role counts as missing.
func (s *Service) party(ctx context.Context, id int64, role acctentity.Role) (*acctentity.Account, error) {
	acct, err := s.accounts.AccountByID(ctx, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", role, err)
	}
	return acct, nil
}

func (s *Service) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}
