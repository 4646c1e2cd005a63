package account_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/MyraLuetke/CISC498-Backend/internal/account"
	"github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

var _ account.Store = (*memoryStore)(nil)

// memoryStore mimics the constraints of the Postgres schema: unique email,
// one profile per identity, conditional reclaim.
type memoryStore struct {
	mu         sync.Mutex
	nextID     int64
	identities map[int64]entity.Identity
	customers  map[int64]entity.CustomerProfile
	businesses map[int64]entity.BusinessProfile
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		identities: make(map[int64]entity.Identity),
		customers:  make(map[int64]entity.CustomerProfile),
		businesses: make(map[int64]entity.BusinessProfile),
	}
}

func (m *memoryStore) emailTaken(email string, except int64) bool {
	for id, ident := range m.identities {
		if id != except && ident.Email == email {
			return true
		}
	}
	return false
}

func (m *memoryStore) putProfile(p entity.Profile) {
	switch p := p.(type) {
	case *entity.CustomerProfile:
		delete(m.businesses, p.IdentityID)
		m.customers[p.IdentityID] = *p
	case *entity.BusinessProfile:
		delete(m.customers, p.IdentityID)
		m.businesses[p.IdentityID] = *p
	}
}

func (m *memoryStore) CreateAccount(_ context.Context, acct *entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(acct.Identity.Email, 0) {
		return fmt.Errorf("insert identity: %w", database.ErrDuplicate)
	}
	m.nextID++
	now := time.Now().UTC()
	acct.Identity.ID = m.nextID
	acct.Identity.CreatedAt = now
	acct.Identity.UpdatedAt = now
	acct.Profile.SetOwnerID(m.nextID)
	m.identities[m.nextID] = acct.Identity
	m.putProfile(acct.Profile)
	return nil
}

func (m *memoryStore) ReclaimAccount(_ context.Context, acct *entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.identities[acct.Identity.ID]
	if !ok || cur.IsActive {
		return database.ErrDuplicate
	}
	acct.Identity.IsActive = true
	acct.Identity.DeactivatedAt = nil
	acct.Identity.UpdatedAt = time.Now().UTC()
	m.identities[acct.Identity.ID] = acct.Identity
	m.putProfile(acct.Profile)
	return nil
}

func (m *memoryStore) IdentityByID(_ context.Context, id int64) (*entity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &ident, nil
}

func (m *memoryStore) IdentityByEmail(_ context.Context, email string) (*entity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ident := range m.identities {
		if ident.Email == email {
			out := ident
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) AccountByID(_ context.Context, id int64, role entity.Role) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id, role)
}

func (m *memoryStore) load(id int64, role entity.Role) (*entity.Account, error) {
	ident, ok := m.identities[id]
	if !ok || ident.Role() != role {
		return nil, sql.ErrNoRows
	}
	acct := &entity.Account{Identity: ident}
	switch role {
	case entity.RoleCustomer:
		c, ok := m.customers[id]
		if !ok {
			return nil, sql.ErrNoRows
		}
		acct.Profile = &c
	case entity.RoleBusiness:
		b, ok := m.businesses[id]
		if !ok {
			return nil, sql.ErrNoRows
		}
		acct.Profile = &b
	}
	return acct, nil
}

func (m *memoryStore) ModifyIdentity(_ context.Context, id int64, fn func(*entity.Identity) error) (*entity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if err := fn(&ident); err != nil {
		return nil, err
	}
	if m.emailTaken(ident.Email, id) {
		return nil, database.ErrDuplicate
	}
	m.identities[id] = ident
	return &ident, nil
}

func (m *memoryStore) ModifyProfile(_ context.Context, id int64, role entity.Role, fn func(*entity.Account) error) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, err := m.load(id, role)
	if err != nil {
		return nil, err
	}
	if err := fn(acct); err != nil {
		return nil, err
	}
	m.putProfile(acct.Profile)
	return acct, nil
}

func (m *memoryStore) countEmail(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ident := range m.identities {
		if ident.Email == email {
			n++
		}
	}
	return n
}

type recordingRevoker struct {
	mu  sync.Mutex
	ids []int64
}

func (r *recordingRevoker) RevokeAll(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}
