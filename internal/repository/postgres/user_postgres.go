package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"clinicapi/internal/database"
	"clinicapi/internal/model"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

type UserPostgres struct {
	*Repository[model.User]
}

func NewUserPostgres(gw *database.Gateway, opts Options) *UserPostgres {
	return &UserPostgres{Repository: NewRepository(gw, UsersTable, "User", opts)}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// GetByEmail matches the address case-insensitively.
func (r *UserPostgres) GetByEmail(ctx context.Context, email string) result.Result[*model.User] {
	return run(ctx, r.Repository, "GetByEmail", func(ctx context.Context) result.Result[*model.User] {
		u, err := r.query(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(ctx)
		if errors.Is(err, database.ErrNotFound) {
			return result.Fail[*model.User](repository.ErrUserNotFound)
		}
		if err != nil {
			return result.Fail[*model.User](Translate(err))
		}
		return result.Ok(u)
	})
}

func (r *UserPostgres) Add(ctx context.Context, u *model.User) result.Result[*model.User] {
	return run(ctx, r.Repository, "Add", func(ctx context.Context) result.Result[*model.User] {
		if u == nil {
			return result.Fail[*model.User](repository.ErrValidation)
		}
		if !u.Role.Valid() {
			return result.Fail[*model.User](repository.ErrInvalidRole)
		}
		return inTx(ctx, r.gw, func(ctx context.Context) result.Result[*model.User] {
			if e, ok := r.emailFree(ctx, u.Email, uuid.Nil); !ok {
				return result.Fail[*model.User](e)
			}
			return duplicateEmail(r.add(ctx, u))
		})
	})
}

func (r *UserPostgres) Update(ctx context.Context, u *model.User) result.Result[*model.User] {
	return run(ctx, r.Repository, "Update", func(ctx context.Context) result.Result[*model.User] {
		if u == nil {
			return result.Fail[*model.User](repository.ErrValidation)
		}
		if !u.Role.Valid() {
			return result.Fail[*model.User](repository.ErrInvalidRole)
		}
		return inTx(ctx, r.gw, func(ctx context.Context) result.Result[*model.User] {
			if e, ok := r.emailFree(ctx, u.Email, u.ID); !ok {
				return result.Fail[*model.User](e)
			}
			return duplicateEmail(r.update(ctx, u))
		})
	})
}

// emailFree reports whether no other user holds email.
func (r *UserPostgres) emailFree(ctx context.Context, email string, self uuid.UUID) (result.Error, bool) {
	q := r.query(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	if self != uuid.Nil {
		q.Where("id <> ?", self)
	}
	taken, err := q.Exists(ctx)
	if err != nil {
		return Translate(err), false
	}
	if taken {
		return repository.ErrDuplicateEmail, false
	}
	return result.Error{}, true
}

func duplicateEmail(res result.Result[*model.User]) result.Result[*model.User] {
	if e, failed := res.Err(); failed && database.IsConstraint(e, constraintUserEmail) {
		return result.Fail[*model.User](repository.ErrDuplicateEmail.WithCause(e.Unwrap()))
	}
	return res
}
