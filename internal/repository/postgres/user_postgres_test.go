package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicapi/internal/result"
)

const (
	emailTakenSQL        = "SELECT EXISTS (SELECT 1 FROM public.users WHERE LOWER(email) = $1)"
	emailTakenByOtherSQL = "SELECT EXISTS (SELECT 1 FROM public.users WHERE LOWER(email) = $1 AND id <> $2)"
)

func TestUserPostgres_GetByEmail(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewUserPostgres(gw, Options{})
	u := sampleUser()

	mock.ExpectQuery(quote("FROM public.users WHERE LOWER(email) = $1")).
		WithArgs("g.house@example.org").
		WillReturnRows(rowsOf(UsersTable, u))
	mock.ExpectQuery(quote("FROM public.users WHERE LOWER(email) = $1")).
		WithArgs("nobody@example.org").
		WillReturnRows(sqlmock.NewRows(UsersTable.AllColumns()))

	got, err := repo.GetByEmail(context.Background(), " G.House@Example.org ").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	requireKind(t, repo.GetByEmail(context.Background(), "nobody@example.org"), result.NotFound, "User.NotFound")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts when the email is free", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})
		u := sampleUser()

		mock.ExpectBegin()
		mock.ExpectQuery(quote(emailTakenSQL)).WithArgs("g.house@example.org").WillReturnRows(existsRow(false))
		mock.ExpectExec("INSERT INTO public.users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := repo.Add(ctx, &u).Unwrap()
		require.NoError(t, err)
		assert.Equal(t, testNow, got.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email differing only in case is a duplicate", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})
		u := sampleUser()
		u.Email = "G.HOUSE@example.org"

		mock.ExpectBegin()
		mock.ExpectQuery(quote(emailTakenSQL)).WithArgs("g.house@example.org").WillReturnRows(existsRow(true))
		mock.ExpectRollback()

		requireKind(t, repo.Add(ctx, &u), result.Conflict, "User.DuplicateEmail")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation on email", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})
		u := sampleUser()

		mock.ExpectBegin()
		mock.ExpectQuery(quote(emailTakenSQL)).WillReturnRows(existsRow(false))
		mock.ExpectExec("INSERT INTO public.users").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_users_email"})
		mock.ExpectRollback()

		requireKind(t, repo.Add(ctx, &u), result.Conflict, "User.DuplicateEmail")
	})

	t.Run("unknown role touches nothing", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})
		u := sampleUser()
		u.Role = "Surgeon"

		requireKind(t, repo.Add(ctx, &u), result.Validation, "User.InvalidRole")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil user", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})

		requireKind(t, repo.Add(ctx, nil), result.Validation, "General.ValidationError")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserPostgres_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("own email is not a conflict", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})
		u := sampleUser()
		u.IsActive = false

		mock.ExpectBegin()
		mock.ExpectQuery(quote(emailTakenByOtherSQL)).WithArgs("g.house@example.org", u.ID).WillReturnRows(existsRow(false))
		mock.ExpectQuery(quote("UPDATE public.users SET")).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "version"}).AddRow(createdAt, int64(2)))
		mock.ExpectCommit()

		got, err := repo.Update(ctx, &u).Unwrap()
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Equal(t, int64(2), got.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another user's email", func(t *testing.T) {
		gw, mock := newTestGateway(t)
		repo := NewUserPostgres(gw, Options{})
		u := sampleUser()

		mock.ExpectBegin()
		mock.ExpectQuery(quote(emailTakenByOtherSQL)).WillReturnRows(existsRow(true))
		mock.ExpectRollback()

		requireKind(t, repo.Update(ctx, &u), result.Conflict, "User.DuplicateEmail")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
