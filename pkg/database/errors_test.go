package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
)

func TestTranslateUniqueViolation(t *testing.T) {
	raw := &pq.Error{Code: "23505", Constraint: "identities_email_key"}
	err := database.Translate(fmt.Errorf("insert identity: %w", raw))

	require.ErrorIs(t, err, database.ErrDuplicate)
	require.Equal(t, "identities_email_key", database.Constraint(err))

	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
}

func TestTranslateForeignKeyViolation(t *testing.T) {
	err := database.Translate(&pq.Error{Code: "23503"})
	require.ErrorIs(t, err, database.ErrReferenced)
	require.NotErrorIs(t, err, database.ErrDuplicate)
}

func TestTranslatePassesOtherErrorsThrough(t *testing.T) {
	plain := errors.New("connection reset")
	require.Same(t, plain, database.Translate(plain))

	other := &pq.Error{Code: "40001"}
	require.Equal(t, error(other), database.Translate(other))
	require.Empty(t, database.Constraint(other))
}
