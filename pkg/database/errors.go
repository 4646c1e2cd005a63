package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced is returned when a row cannot be removed or written because
	// of a foreign key.
	ErrReferenced = errors.New("row is referenced")
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Translate maps driver errors onto the package sentinels. The original error
// stays in the chain so callers can still inspect the *pq.Error.
func Translate(err error) error { return translate(err) }

func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		return &constraintError{sentinel: ErrDuplicate, cause: err, constraint: pqErr.Constraint}
	case codeForeignKeyViolation:
		return &constraintError{sentinel: ErrReferenced, cause: err, constraint: pqErr.Constraint}
	}
	return err
}

type constraintError struct {
	sentinel   error
	cause      error
	constraint string
}

func (e *constraintError) Error() string {
	if e.constraint == "" {
		return e.sentinel.Error() + ": " + e.cause.Error()
	}
	return e.sentinel.Error() + " (" + e.constraint + "): " + e.cause.Error()
}

func (e *constraintError) Unwrap() []error { return []error{e.sentinel, e.cause} }

// Constraint returns the violated constraint name, if err carries one.
func Constraint(err error) string {
	var ce *constraintError
	if errors.As(err, &ce) {
		return ce.constraint
	}
	return ""
}
