package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/validate"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

// Store persists identities together with their profiles. Lookups return
// sql.ErrNoRows when nothing matches; writes that collide on email return
// database.ErrDuplicate.
type Store interface {
	// CreateAccount inserts identity and profile in one transaction and sets
	// the new identity id on both.
	CreateAccount(ctx context.Context, acct *entity.Account) error
	// ReclaimAccount reactivates an inactive identity, replaces its password
	// and role, and overwrites its profile. It returns database.ErrDuplicate
	// when the identity is not inactive any more.
	ReclaimAccount(ctx context.Context, acct *entity.Account) error
	IdentityByID(ctx context.Context, id int64) (*entity.Identity, error)
	IdentityByEmail(ctx context.Context, email string) (*entity.Identity, error)
	AccountByID(ctx context.Context, id int64, role entity.Role) (*entity.Account, error)
	// ModifyIdentity locks the identity row, applies fn and writes it back.
	// An error from fn aborts the transaction and is returned as is.
	ModifyIdentity(ctx context.Context, id int64, fn func(*entity.Identity) error) (*entity.Identity, error)
	// ModifyProfile locks the identity and profile rows of role, applies fn
	// and writes the profile back.
	ModifyProfile(ctx context.Context, id int64, role entity.Role, fn func(*entity.Account) error) (*entity.Account, error)
}

// SessionRevoker drops every refresh session of an identity.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, identityID int64) error
}

// Service runs the account lifecycle: registration (including reclaiming a
// deactivated identity), deactivation, credential and profile changes.
type Service struct {
	store    Store
	hasher   PasswordHasher
	sessions SessionRevoker
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(store Store, hasher PasswordHasher, sessions SessionRevoker, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, hasher: hasher, sessions: sessions, logger: logger, now: time.Now}
}

var errHashChanged = errors.New("password hash changed concurrently")

// Registration is the input of Register. Profile decides the role.
type Registration struct {
	Email    string
	Password string
	Profile  entity.Profile
}

// Register creates an identity with its profile. When the email belongs to
// a deactivated identity, that identity is reactivated and every profile
// field is overwritten with the new values; when it belongs to an active
// one, ErrConflict is returned and nothing changes.
func (s *Service) Register(ctx context.Context, reg Registration) (*entity.Account, error) {
	if reg.Profile == nil {
		return nil, errors.New("register: profile is required")
	}
	email := validate.NormalizeEmail(reg.Email)
	normalizeProfile(reg.Profile)

	v := &apperr.Validator{}
	validate.Email(v, "user.email", email)
	validate.Password(v, "user.password", reg.Password)
	validateProfile(v, reg.Profile)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if c, ok := reg.Profile.(*entity.CustomerProfile); ok {
		c.EmailVerification = false
	}

	hash, algo, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	role := reg.Profile.Role()
	acct := &entity.Account{
		Identity: entity.Identity{
			Email:             email,
			PasswordHash:      hash,
			PasswordAlgo:      algo,
			PasswordUpdatedAt: &now,
			IsCustomer:        role == entity.RoleCustomer,
			IsActive:          true,
		},
		Profile: reg.Profile,
	}

	err = s.store.CreateAccount(ctx, acct)
	switch {
	case err == nil:
		s.logger.Infow("account registered", "identity_id", acct.Identity.ID, "role", role)
		return acct, nil
	case errors.Is(err, database.ErrDuplicate):
		return s.reclaim(ctx, acct)
	default:
		return nil, fmt.Errorf("create account: %w", err)
	}
}

// reclaim is the second branch of Register: the email is taken, so either
// the holder is live (conflict) or it is deactivated and gets overwritten.
func (s *Service) reclaim(ctx context.Context, acct *entity.Account) (*entity.Account, error) {
	existing, err := s.store.IdentityByEmail(ctx, acct.Identity.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("load identity by email: %w", err)
	}
	if existing.IsActive {
		s.logger.Debugw("registration rejected, account is active", "identity_id", existing.ID)
		return nil, apperr.ErrConflict
	}

	acct.Identity.ID = existing.ID
	acct.Identity.IsStaff = existing.IsStaff
	acct.Identity.IsSuperuser = existing.IsSuperuser
	acct.Identity.CreatedAt = existing.CreatedAt
	acct.Profile.SetOwnerID(existing.ID)

	err = s.store.ReclaimAccount(ctx, acct)
	if errors.Is(err, database.ErrDuplicate) || errors.Is(err, database.ErrReferenced) {
		s.logger.Debugw("reclaim rejected", "identity_id", existing.ID, "err", err)
		return nil, apperr.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("reclaim account: %w", err)
	}
	s.logger.Infow("account reclaimed", "identity_id", existing.ID,
		"role", acct.Profile.Role(), "previous_role", existing.Role())
	return acct, nil
}

// Get returns the active account of role for id.
func (s *Service) Get(ctx context.Context, id int64, role entity.Role) (*entity.Account, error) {
	acct, err := s.store.AccountByID(ctx, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !acct.Identity.IsActive {
		return nil, apperr.ErrNotFound
	}
	return acct, nil
}

// Update applies a partial profile change. Fields left nil in the patch keep
// their stored values; the merged profile must pass registration rules.
func (s *Service) Update(ctx context.Context, id int64, patch ProfilePatch) (*entity.Account, error) {
	acct, err := s.store.ModifyProfile(ctx, id, patch.Role(), func(a *entity.Account) error {
		if !a.Identity.IsActive {
			return apperr.ErrNotFound
		}
		patch.apply(a.Profile)
		normalizeProfile(a.Profile)
		v := &apperr.Validator{}
		validateProfile(v, a.Profile)
		return v.Err()
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Deactivate soft-deletes the identity after checking its password. The
// profile row is kept so a later Register with the same email can reclaim it.
func (s *Service) Deactivate(ctx context.Context, id int64, role entity.Role, password string) error {
	if password == "" {
		return apperr.Required("password")
	}
	_, err := s.store.ModifyIdentity(ctx, id, func(ident *entity.Identity) error {
		if !ident.IsActive || ident.Role() != role {
			return apperr.ErrNotFound
		}
		if !s.hasher.Verify(ident.PasswordHash, password) {
			return apperr.ErrAuthentication
		}
		now := s.now().UTC()
		ident.IsActive = false
		ident.DeactivatedAt = &now
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Infow("account deactivated", "identity_id", id, "role", role)
	return nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	v := &apperr.Validator{}
	v.Check(oldPassword != "", "old_password", apperr.MsgRequired)
	v.Check(newPassword != "", "new_password", apperr.MsgRequired)
	validate.PasswordLength(v, "new_password", newPassword)
	if err := v.Err(); err != nil {
		return err
	}

	hash, algo, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.store.ModifyIdentity(ctx, id, func(ident *entity.Identity) error {
		if !ident.IsActive {
			return apperr.ErrNotFound
		}
		if !s.hasher.Verify(ident.PasswordHash, oldPassword) {
			return apperr.ErrAuthentication
		}
		now := s.now().UTC()
		ident.PasswordHash = hash
		ident.PasswordAlgo = algo
		ident.PasswordUpdatedAt = &now
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Infow("password changed", "identity_id", id)
	return nil
}

// ChangeEmail moves the identity to a new email, which must not be held by
// any other identity, active or not.
func (s *Service) ChangeEmail(ctx context.Context, id int64, newEmail string) (*entity.Identity, error) {
	email := validate.NormalizeEmail(newEmail)
	v := &apperr.Validator{}
	validate.Email(v, "email", email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	holder, err := s.store.IdentityByEmail(ctx, email)
	switch {
	case err == nil && holder.ID != id:
		return nil, apperr.ErrConflict
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("load identity by email: %w", err)
	}

	ident, err := s.store.ModifyIdentity(ctx, id, func(ident *entity.Identity) error {
		if !ident.IsActive {
			return apperr.ErrNotFound
		}
		ident.Email = email
		return nil
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperr.ErrNotFound
	case errors.Is(err, database.ErrDuplicate):
		return nil, apperr.ErrConflict
	case err != nil:
		return nil, err
	}
	s.logger.Infow("email changed", "identity_id", id)
	return ident, nil
}

// Authenticate checks credentials for token issuance. Unknown emails,
// inactive identities and wrong passwords all yield ErrAuthentication.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Identity, error) {
	email = validate.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.ErrAuthentication
	}
	ident, err := s.store.IdentityByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAuthentication
	}
	if err != nil {
		return nil, fmt.Errorf("load identity by email: %w", err)
	}
	if !ident.IsActive || !s.hasher.Verify(ident.PasswordHash, password) {
		return nil, apperr.ErrAuthentication
	}
	s.upgradeHash(ctx, ident, password)
	return ident, nil
}

type rehasher interface {
	NeedsRehash(algo string) bool
}

// upgradeHash re-hashes a verified password whose stored hash uses an
// outdated algorithm or cost. Failures are logged and otherwise ignored.
func (s *Service) upgradeHash(ctx context.Context, ident *entity.Identity, password string) {
	r, ok := s.hasher.(rehasher)
	if !ok || !r.NeedsRehash(ident.PasswordAlgo) {
		return
	}
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warnw("rehash password failed", "identity_id", ident.ID, "err", err)
		return
	}
	oldHash := ident.PasswordHash
	_, err = s.store.ModifyIdentity(ctx, ident.ID, func(cur *entity.Identity) error {
		// a concurrent password change wins
		if cur.PasswordHash != oldHash {
			return errHashChanged
		}
		cur.PasswordHash = hash
		cur.PasswordAlgo = algo
		return nil
	})
	if err != nil && !errors.Is(err, errHashChanged) {
		s.logger.Warnw("store rehashed password failed", "identity_id", ident.ID, "err", err)
		return
	}
	if err == nil {
		s.logger.Infow("password rehashed", "identity_id", ident.ID, "from", ident.PasswordAlgo, "to", algo)
		ident.PasswordHash, ident.PasswordAlgo = hash, algo
	}
}

// ActiveIdentity returns the identity for id if it is active.
func (s *Service) ActiveIdentity(ctx context.Context, id int64) (*entity.Identity, error) {
	ident, err := s.store.IdentityByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if !ident.IsActive {
		return nil, apperr.ErrNotFound
	}
	return ident, nil
}

func (s *Service) revokeSessions(ctx context.Context, id int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		s.logger.Warnw("revoke sessions failed", "identity_id", id, "err", err)
	}
}

func normalizeProfile(p entity.Profile) {
	switch p := p.(type) {
	case *entity.CustomerProfile:
		p.FirstName = strings.TrimSpace(p.FirstName)
		p.LastName = strings.TrimSpace(p.LastName)
		p.PhoneNum = validate.NormalizePhone(p.PhoneNum)
		p.ContactPreference = entity.ContactPreference(strings.ToLower(strings.TrimSpace(string(p.ContactPreference))))
		if p.ContactPreference == "" {
			p.ContactPreference = entity.ContactEmail
		}
	case *entity.BusinessProfile:
		p.Name = strings.TrimSpace(p.Name)
		p.PhoneNum = validate.NormalizePhone(p.PhoneNum)
		p.Address = strings.TrimSpace(p.Address)
		p.City = strings.TrimSpace(p.City)
		p.PostalCode = validate.NormalizePostalCode(p.PostalCode)
		p.Province = validate.NormalizeProvince(p.Province)
	}
}

func validateProfile(v *apperr.Validator, p entity.Profile) {
	switch p := p.(type) {
	case *entity.CustomerProfile:
		validate.Name(v, "first_name", p.FirstName)
		validate.Name(v, "last_name", p.LastName)
		validate.Phone(v, "phone_num", p.PhoneNum)
		validate.OneOf(v, "contact_preference", string(p.ContactPreference),
			string(entity.ContactEmail), string(entity.ContactPhone))
	case *entity.BusinessProfile:
		validate.Name(v, "name", p.Name)
		validate.Phone(v, "phone_num", p.PhoneNum)
		validate.Text(v, "address", p.Address)
		validate.Name(v, "city", p.City)
		validate.PostalCode(v, "postal_code", p.PostalCode)
		validate.Province(v, "province", p.Province)
		validate.Positive(v, "capacity", p.Capacity)
	}
}
