package database

import (
	"fmt"
	"strings"

	"clinicapi/internal/model"
)

// Schemas and tables of the clinical store.
const (
	SchemaPublic = "public"
	SchemaAudit  = "audit"

	TablePatients       = "patients"
	TableUsers          = "users"
	TableAppointments   = "appointments"
	TableMedicalRecords = "medical_records"
	TableMedications    = "medications"
	TableLabResults     = "lab_results"
	TableAuditLogs      = "audit_logs"
)

// Bookkeeping columns every table carries around its data columns.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnVersion   = "version"
)

// Table maps an entity type onto its table. Columns and Fields must list the
// data columns in the same order; the bookkeeping columns are added by the
// gateway.
type Table[T any] struct {
	Schema  string
	Name    string
	Columns []string
	// Fields returns pointers to the entity fields backing Columns.
	Fields func(*T) []any
	// Base returns the embedded bookkeeping fields.
	Base func(*T) *model.Entity
	// OrderBy is the default ordering for unordered reads.
	OrderBy string
	// AppendOnly tables reject updates and deletes.
	AppendOnly bool
}

// QualifiedName returns schema.table.
func (t *Table[T]) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// AllColumns returns the columns in scan order: id, data columns, then
// created_at, updated_at and version.
func (t *Table[T]) AllColumns() []string {
	cols := make([]string, 0, len(t.Columns)+4)
	cols = append(cols, ColumnID)
	cols = append(cols, t.Columns...)
	return append(cols, ColumnCreatedAt, ColumnUpdatedAt, ColumnVersion)
}

// Dest returns scan destinations for e matching AllColumns.
func (t *Table[T]) Dest(e *T) []any {
	base := t.Base(e)
	dest := make([]any, 0, len(t.Columns)+4)
	dest = append(dest, &base.ID)
	dest = append(dest, t.Fields(e)...)
	return append(dest, &base.CreatedAt, &base.UpdatedAt, &base.Version)
}

func (t *Table[T]) selectList() string {
	return strings.Join(t.AllColumns(), ", ")
}

func (t *Table[T]) insertSQL() string {
	cols := t.AllColumns()
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.QualifiedName(), strings.Join(cols, ", "), placeholders(1, len(cols)))
}

// updateSQL sets every data column and updated_at, bumps the version and
// only matches the row at the expected version.
// Args: id, data columns..., updated_at, expected version.
func (t *Table[T]) updateSQL() string {
	sets := make([]string, 0, len(t.Columns)+2)
	n := 2
	for _, c := range t.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, n))
		n++
	}
	sets = append(sets, fmt.Sprintf("%s = $%d", ColumnUpdatedAt, n))
	sets = append(sets, ColumnVersion+" = "+ColumnVersion+" + 1")
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 AND version = $%d RETURNING %s, %s",
		t.QualifiedName(), strings.Join(sets, ", "), n+1, ColumnCreatedAt, ColumnVersion)
}

func (t *Table[T]) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND version = $2", t.QualifiedName())
}

func placeholders(from, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
