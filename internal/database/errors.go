package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Storage faults raised by the gateway. Repositories translate these into
// result.Error values; nothing above the repository sees them directly.
var (
	ErrNotFound            = errors.New("database: record not found")
	ErrConcurrency         = errors.New("database: concurrent modification")
	ErrUniqueViolation     = errors.New("database: unique constraint violation")
	ErrForeignKeyViolation = errors.New("database: foreign key violation")
	ErrAppendOnly          = errors.New("database: table is append-only")
)

// PostgreSQL SQLSTATE codes the gateway distinguishes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// ConstraintError reports a violated constraint by name.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() []error { return []error{e.Kind, e.Err} }

// IsConstraint reports whether err is a violation of the named constraint.
func IsConstraint(err error, constraint string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == constraint
}

// classify maps driver errors onto the gateway's sentinel errors.
// Unknown errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &ConstraintError{Kind: ErrUniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
	case codeForeignKeyViolation:
		return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %w", ErrConcurrency, err)
	}
	return err
}
