//go:build integration

package repo_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MyraLuetke/CISC498-Backend/internal/account"
	"github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/account/repo"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
)

func setupRepo(t *testing.T) *repo.AccountRepo {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL must be set for integration tests")
	}
	db, err := sqlx.Connect("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := repo.NewAccountRepo(db)
	require.NoError(t, r.EnsureTable(context.Background()))
	return r
}

func uniqueEmail() string {
	return strings.ToLower(ksuid.New().String()) + "@example.com"
}

func TestAccountLifecyclePostgres(t *testing.T) {
	store := setupRepo(t)
	svc := account.NewService(store, account.BcryptHasher{Cost: bcrypt.MinCost}, nil, nil)
	ctx := context.Background()
	email := uniqueEmail()

	first, err := svc.Register(ctx, account.Registration{
		Email:    email,
		Password: "pw1",
		Profile:  &entity.CustomerProfile{FirstName: "A", LastName: "B", PhoneNum: "6135550100"},
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, account.Registration{
		Email:    strings.ToUpper(email),
		Password: "pw2",
		Profile:  &entity.CustomerProfile{FirstName: "X", LastName: "Y", PhoneNum: "6135550100"},
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, svc.Deactivate(ctx, first.Identity.ID, entity.RoleCustomer, "pw1"))

	second, err := svc.Register(ctx, account.Registration{
		Email:    email,
		Password: "pw3",
		Profile: &entity.BusinessProfile{
			Name: "Shop", PhoneNum: "6135550101", Address: "1 Main St", City: "Kingston",
			PostalCode: "K7L 3N6", Province: "ON", Capacity: 10,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.Identity.ID, second.Identity.ID)

	_, err = svc.Get(ctx, first.Identity.ID, entity.RoleCustomer)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, err := svc.Get(ctx, first.Identity.ID, entity.RoleBusiness)
	require.NoError(t, err)
	assert.Equal(t, "Shop", got.Business().Name)

	_, err = svc.Authenticate(ctx, email, "pw3")
	assert.NoError(t, err)
}

func TestChangeEmailPostgres(t *testing.T) {
	store := setupRepo(t)
	svc := account.NewService(store, account.BcryptHasher{Cost: bcrypt.MinCost}, nil, nil)
	ctx := context.Background()

	a, err := svc.Register(ctx, account.Registration{
		Email:    uniqueEmail(),
		Password: "pw",
		Profile:  &entity.CustomerProfile{FirstName: "A", LastName: "B", PhoneNum: "6135550100"},
	})
	require.NoError(t, err)

	next := uniqueEmail()
	ident, err := svc.ChangeEmail(ctx, a.Identity.ID, next)
	require.NoError(t, err)
	assert.Equal(t, next, ident.Email)

	byEmail, err := store.IdentityByEmail(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, a.Identity.ID, byEmail.ID)
}
