package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicapi/internal/model"
)

type note struct {
	model.Entity
	Body string
	Tag  *string
}

var notes = &Table[note]{
	Schema:  SchemaPublic,
	Name:    "notes",
	Columns: []string{"body", "tag"},
	Fields:  func(n *note) []any { return []any{&n.Body, &n.Tag} },
	Base:    func(n *note) *model.Entity { return &n.Entity },
	OrderBy: "created_at DESC, id DESC",
}

var auditNotes = &Table[note]{
	Schema:     SchemaAudit,
	Name:       "notes",
	Columns:    notes.Columns,
	Fields:     notes.Fields,
	Base:       notes.Base,
	AppendOnly: true,
}

func TestTableStatements(t *testing.T) {
	assert.Equal(t, "public.notes", notes.QualifiedName())
	assert.Equal(t, []string{"id", "body", "tag", "created_at", "updated_at", "version"}, notes.AllColumns())
	assert.Equal(t,
		"INSERT INTO public.notes (id, body, tag, created_at, updated_at, version) VALUES ($1, $2, $3, $4, $5, $6)",
		notes.insertSQL())
	assert.Equal(t,
		"UPDATE public.notes SET body = $2, tag = $3, updated_at = $4, version = version + 1 WHERE id = $1 AND version = $5 RETURNING created_at, version",
		notes.updateSQL())
	assert.Equal(t, "DELETE FROM public.notes WHERE id = $1 AND version = $2", notes.deleteSQL())
}

func TestQuerySQL(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("defaults", func(t *testing.T) {
		sql, args := From(nil, notes).SQL()
		assert.Equal(t, "SELECT id, body, tag, created_at, updated_at, version FROM public.notes ORDER BY created_at DESC, id DESC", sql)
		assert.Empty(t, args)
	})

	t.Run("placeholders are numbered across clauses", func(t *testing.T) {
		sql, args := From(nil, notes).
			Where("body = ?", "x").
			WhereIn("id", []uuid.UUID{a, b}).
			Where("(tag LIKE ? OR tag IS NULL)", "%y%").
			OrderBy("body").
			Page(10, 20).
			SQL()
		assert.Equal(t, "SELECT id, body, tag, created_at, updated_at, version FROM public.notes"+
			" WHERE body = $1 AND id IN ($2, $3) AND (tag LIKE $4 OR tag IS NULL)"+
			" ORDER BY body LIMIT $5 OFFSET $6", sql)
		assert.Equal(t, []any{"x", a, b, "%y%", 10, 20}, args)
	})

	t.Run("empty in list matches nothing", func(t *testing.T) {
		sql, args := From(nil, notes).WhereIn("id", nil).OrderBy("").SQL()
		assert.Equal(t, "SELECT id, body, tag, created_at, updated_at, version FROM public.notes WHERE FALSE", sql)
		assert.Empty(t, args)
	})
}

func TestQueryExecution(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.New()

	t.Run("list scans rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, body, tag, created_at, updated_at, version FROM public.notes WHERE body = $1")).
			WithArgs("x").
			WillReturnRows(sqlmock.NewRows(notes.AllColumns()).
				AddRow(id.String(), "x", nil, created, created, int64(3)).
				AddRow(uuid.NewString(), "x", "tagged", created, created, int64(1)))

		items, err := From(db, notes).Where("body = ?", "x").List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, id, items[0].ID)
		assert.Nil(t, items[0].Tag)
		assert.Equal(t, int64(3), items[0].Version)
		require.NotNil(t, items[1].Tag)
		assert.Equal(t, "tagged", *items[1].Tag)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list of nothing is empty not nil", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT (.+) FROM public.notes").WillReturnRows(sqlmock.NewRows(notes.AllColumns()))

		items, err := From(db, notes).List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("first not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM public.notes WHERE id = $1 ORDER BY created_at DESC, id DESC LIMIT 1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(notes.AllColumns()))

		got, err := From(db, notes).Where("id = ?", id).First(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("count and exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM public.notes WHERE body = $1")).
			WithArgs("x").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM public.notes WHERE body = $1)")).
			WithArgs("x").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		n, err := From(db, notes).Where("body = ?", "x").Page(5, 0).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, n)

		ok, err := From(db, notes).Where("body = ?", "x").Exists(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("connection reset")
		mock.ExpectQuery("SELECT (.+) FROM public.notes").WillReturnError(boom)

		_, err = From(db, notes).List(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
