package postgres

import (
	"context"
	"errors"

	"clinicapi/internal/database"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

// Translate maps a storage fault onto the repository error catalog, keeping
// the original error as the cause.
func Translate(err error) result.Error {
	var re result.Error
	switch {
	case errors.As(err, &re):
		return re
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return repository.ErrCanceled.WithCause(err)
	case errors.Is(err, database.ErrConcurrency):
		return repository.ErrConcurrencyConflict.WithCause(err)
	case errors.Is(err, database.ErrUniqueViolation):
		return repository.ErrDuplicateKey.WithCause(err)
	case errors.Is(err, database.ErrForeignKeyViolation):
		return repository.ErrReferenceConflict.WithCause(err)
	case errors.Is(err, database.ErrAppendOnly):
		return repository.ErrAuditLogImmutable.WithCause(err)
	default:
		return repository.ErrDatabase.WithCause(err)
	}
}

// inTx runs fn in a transaction that commits only when fn succeeds.
func inTx[R any](ctx context.Context, gw *database.Gateway, fn func(ctx context.Context) result.Result[R]) result.Result[R] {
	var res result.Result[R]
	err := gw.InTx(ctx, func(ctx context.Context) error {
		res = fn(ctx)
		if e, failed := res.Err(); failed {
			return e
		}
		return nil
	})
	if err != nil {
		return result.Fail[R](Translate(err))
	}
	return res
}
