package visit_test

import (
	"context"
	"database/sql"
	"sync"

	acctentity "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/visit/entity"
)

type memoryVisits struct {
	mu      sync.Mutex
	visits  []entity.Visit
	walkIns []entity.UnregisteredVisit
}

func (m *memoryVisits) CreateVisit(_ context.Context, v *entity.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, *v)
	return nil
}

func (m *memoryVisits) CreateUnregisteredVisit(_ context.Context, v *entity.UnregisteredVisit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.walkIns = append(m.walkIns, *v)
	return nil
}

func (m *memoryVisits) ListVisits(context.Context) ([]entity.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Visit{}, m.visits...), nil
}

func (m *memoryVisits) ListUnregisteredVisits(_ context.Context, businessID int64) ([]entity.UnregisteredVisit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.UnregisteredVisit{}
	for _, v := range m.walkIns {
		if v.BusinessID == businessID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeAccounts struct {
	accounts map[int64]*acctentity.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[int64]*acctentity.Account)}
}

func (f *fakeAccounts) addCustomer(id int64, email string, active bool) {
	f.accounts[id] = &acctentity.Account{
		Identity: acctentity.Identity{ID: id, Email: email, IsCustomer: true, IsActive: active},
		Profile:  &acctentity.CustomerProfile{IdentityID: id, FirstName: "C", LastName: "C", PhoneNum: "6135550100"},
	}
}

func (f *fakeAccounts) addBusiness(id int64, email string, active bool) {
	f.accounts[id] = &acctentity.Account{
		Identity: acctentity.Identity{ID: id, Email: email, IsActive: active},
		Profile:  &acctentity.BusinessProfile{IdentityID: id, Name: "B", Capacity: 10},
	}
}

func (f *fakeAccounts) AccountByID(_ context.Context, id int64, role acctentity.Role) (*acctentity.Account, error) {
	a, ok := f.accounts[id]
	if !ok || a.Identity.Role() != role {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (f *fakeAccounts) IdentityByEmail(_ context.Context, email string) (*acctentity.Identity, error) {
	for _, a := range f.accounts {
		if a.Identity.Email == email {
			ident := a.Identity
			return &ident, nil
		}
	}
	return nil, sql.ErrNoRows
}

type sequence struct {
	mu   sync.Mutex
	next int64
}

func (s *sequence) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}
