package postgres

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"clinicapi/internal/database"
	"clinicapi/internal/model"
	"clinicapi/internal/result"
)

var (
	testNow   = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	createdAt = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
)

func newTestGateway(t *testing.T) (*database.Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewGateway(db, database.WithClock(func() time.Time { return testNow })), mock
}

// rowsOf renders entities as result rows in the table's column order.
func rowsOf[T any](table *database.Table[T], items ...T) *sqlmock.Rows {
	rows := sqlmock.NewRows(table.AllColumns())
	for i := range items {
		dest := table.Dest(&items[i])
		values := make([]driver.Value, len(dest))
		for j, p := range dest {
			v, err := driver.DefaultParameterConverter.ConvertValue(reflect.ValueOf(p).Elem().Interface())
			if err != nil {
				panic(err)
			}
			values[j] = v
		}
		rows.AddRow(values...)
	}
	return rows
}

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

// inList renders "column IN ($from, ...)" for n ids.
func inList(column string, from, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", from+i)
	}
	return column + " IN (" + strings.Join(marks, ", ") + ")"
}

func quote(s string) string { return regexp.QuoteMeta(s) }

// expectPatientCollections expects the four collection loads for patients,
// each returning no rows.
func expectPatientCollections(mock sqlmock.Sqlmock, ids ...uuid.UUID) {
	args := make([]driver.Value, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	for _, table := range []string{"appointments", "medical_records", "medications", "lab_results"} {
		mock.ExpectQuery(quote("FROM public." + table + " WHERE " + inList("patient_id", 1, len(ids)))).
			WithArgs(args...).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}
}

func requireKind[T any](t *testing.T, res result.Result[T], kind result.Kind, code string) result.Error {
	t.Helper()
	e, failed := res.Err()
	require.True(t, failed, "expected %s failure", code)
	require.Equal(t, kind, e.Kind)
	require.Equal(t, code, e.Code)
	return e
}

func ptr[T any](v T) *T { return &v }

func samplePatient() model.Patient {
	return model.Patient{
		Entity:      model.Entity{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt, Version: 1},
		MRN:         "MRN-0001",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: time.Date(1985, 12, 10, 0, 0, 0, 0, time.UTC),
		Gender:      model.GenderFemale,
		City:        ptr("London"),
		PhoneNumber: ptr("+44 20 7946 0000"),
	}
}

func sampleUser() model.User {
	return model.User{
		Entity:       model.Entity{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt, Version: 1},
		Email:        "g.house@example.org",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FirstName:    "Gregory",
		LastName:     "House",
		Role:         model.RolePhysician,
		IsActive:     true,
	}
}
