package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicapi/internal/model"
)

var (
	clockNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	earlier  = time.Date(2025, 12, 24, 8, 30, 0, 0, time.UTC)
)

func fixedClock() time.Time { return clockNow }

func TestSaveChangesAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps identity timestamps and version", func(t *testing.T) {
		gw, mock := newMockGateway(t, WithClock(fixedClock))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.notes (id, body, tag, created_at, updated_at, version)")).
			WithArgs(sqlmock.AnyArg(), "hello", nil, clockNow, clockNow, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n := &note{Body: "hello", Entity: model.Entity{CreatedAt: earlier, Version: 9}}
		s := gw.NewSession()
		Set(s, notes).Add(n)
		assert.Equal(t, 1, s.Pending())

		written, err := s.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, written)
		assert.Equal(t, 0, s.Pending())
		assert.NotEqual(t, uuid.Nil, n.ID)
		assert.Equal(t, clockNow, n.CreatedAt)
		assert.Equal(t, clockNow, n.UpdatedAt)
		assert.Equal(t, int64(1), n.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps a caller supplied id", func(t *testing.T) {
		gw, mock := newMockGateway(t, WithClock(fixedClock))
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO public.notes").
			WithArgs(id, "hello", "t", clockNow, clockNow, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tag := "t"
		n := &note{Entity: model.Entity{ID: id}, Body: "hello", Tag: &tag}
		s := gw.NewSession()
		Set(s, notes).Add(n)

		_, err := s.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, n.ID)
	})

	t.Run("unique violation rolls back and restores stamps", func(t *testing.T) {
		gw, mock := newMockGateway(t, WithClock(fixedClock))
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO public.notes").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_notes_body"})
		mock.ExpectRollback()

		n := &note{Body: "dup"}
		s := gw.NewSession()
		Set(s, notes).Add(n)

		written, err := s.SaveChanges(ctx)
		assert.ErrorIs(t, err, ErrUniqueViolation)
		assert.True(t, IsConstraint(err, "ux_notes_body"))
		assert.Zero(t, written)
		assert.Equal(t, uuid.Nil, n.ID)
		assert.True(t, n.CreatedAt.IsZero())
		assert.Zero(t, n.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing pending opens no transaction", func(t *testing.T) {
		gw, mock := newMockGateway(t)
		written, err := gw.NewSession().SaveChanges(ctx)
		require.NoError(t, err)
		assert.Zero(t, written)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveChangesUpdate(t *testing.T) {
	ctx := context.Background()
	updateSQL := regexp.QuoteMeta(notes.updateSQL())

	t.Run("reloads created_at and bumps version", func(t *testing.T) {
		gw, mock := newMockGateway(t, WithClock(fixedClock))
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery(updateSQL).
			WithArgs(id, "edited", nil, clockNow, 4).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "version"}).AddRow(earlier, int64(5)))
		mock.ExpectCommit()

		// CreatedAt supplied by the caller is ignored in favour of the stored one.
		n := &note{Entity: model.Entity{ID: id, Version: 4, CreatedAt: clockNow.Add(time.Hour)}, Body: "edited"}
		s := gw.NewSession()
		Set(s, notes).Update(n)

		_, err := s.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, earlier, n.CreatedAt)
		assert.Equal(t, clockNow, n.UpdatedAt)
		assert.Equal(t, int64(5), n.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is a concurrency fault", func(t *testing.T) {
		gw, mock := newMockGateway(t, WithClock(fixedClock))
		mock.ExpectBegin()
		mock.ExpectQuery(updateSQL).WillReturnRows(sqlmock.NewRows([]string{"created_at", "version"}))
		mock.ExpectRollback()

		n := &note{Entity: model.Entity{ID: uuid.New(), Version: 1, UpdatedAt: earlier}, Body: "late"}
		s := gw.NewSession()
		Set(s, notes).Update(n)

		_, err := s.SaveChanges(ctx)
		assert.ErrorIs(t, err, ErrConcurrency)
		assert.Equal(t, earlier, n.UpdatedAt)
		assert.Equal(t, int64(1), n.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveChangesRemove(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("deletes at version", func(t *testing.T) {
		gw, mock := newMockGateway(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM public.notes WHERE id = $1 AND version = $2")).
			WithArgs(id, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		s := gw.NewSession()
		Set(s, notes).Remove(&note{Entity: model.Entity{ID: id, Version: 2}})
		written, err := s.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, written)
	})

	t.Run("no row affected is a concurrency fault", func(t *testing.T) {
		gw, mock := newMockGateway(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM public.notes").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		s := gw.NewSession()
		Set(s, notes).Remove(&note{Entity: model.Entity{ID: id, Version: 2}})
		_, err := s.SaveChanges(ctx)
		assert.ErrorIs(t, err, ErrConcurrency)
	})

	t.Run("referenced row is a foreign key violation", func(t *testing.T) {
		gw, mock := newMockGateway(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM public.notes").
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_children_note"})
		mock.ExpectRollback()

		s := gw.NewSession()
		Set(s, notes).Remove(&note{Entity: model.Entity{ID: id, Version: 2}})
		_, err := s.SaveChanges(ctx)
		assert.ErrorIs(t, err, ErrForeignKeyViolation)
	})
}

func TestSaveChangesAppendOnly(t *testing.T) {
	gw, mock := newMockGateway(t)

	s := gw.NewSession()
	Set(s, auditNotes).Update(&note{Entity: model.Entity{ID: uuid.New(), Version: 1}})
	_, err := s.SaveChanges(context.Background())
	assert.ErrorIs(t, err, ErrAppendOnly)

	s = gw.NewSession()
	Set(s, auditNotes).Remove(&note{Entity: model.Entity{ID: uuid.New(), Version: 1}})
	_, err = s.SaveChanges(context.Background())
	assert.ErrorIs(t, err, ErrAppendOnly)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveChangesIsAtomic(t *testing.T) {
	gw, mock := newMockGateway(t, WithClock(fixedClock))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO public.notes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO public.notes").WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	first, second := &note{Body: "a"}, &note{Body: "b"}
	s := gw.NewSession()
	set := Set(s, notes)
	set.Add(first)
	set.Add(second)

	written, err := s.SaveChanges(context.Background())
	assert.Error(t, err)
	assert.Zero(t, written)
	assert.Equal(t, uuid.Nil, first.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
