// Package repository defines the data access contracts of the clinical store.
// Implementations live in subpackages (postgres) and report every outcome as a
// result.Result; storage faults never escape as bare errors.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicapi/internal/model"
	"clinicapi/internal/result"
)

// Repository is the generic CRUD contract shared by every entity.
type Repository[T any] interface {
	GetAll(ctx context.Context) result.Result[[]T]
	// GetByID returns NotFound when no entity has the id.
	GetByID(ctx context.Context, id uuid.UUID) result.Result[*T]
	// Add persists a new entity; id, timestamps and version are stamped on save.
	Add(ctx context.Context, entity *T) result.Result[*T]
	// Update replaces the stored entity at entity.Version. A stale version
	// yields a Conflict.
	Update(ctx context.Context, entity *T) result.Result[*T]
	Delete(ctx context.Context, id uuid.UUID) result.Result[result.Deleted]
	// GetPaged returns page pageIndex (zero-based) of pageSize items and the
	// total number of entities.
	GetPaged(ctx context.Context, pageIndex, pageSize int) result.Result[PageResult[T]]
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items      []T
	TotalCount int
}

// PatientSearch filters patients. Zero values mean "not supplied".
type PatientSearch struct {
	// Term is matched case-insensitively as a substring of first name,
	// last name or MRN. Blank terms are ignored.
	Term     string
	Gender   model.Gender
	DOBStart *time.Time
	DOBEnd   *time.Time
}

type PatientRepository interface {
	Repository[model.Patient]
	GetByMrn(ctx context.Context, mrn string) result.Result[*model.Patient]
	Search(ctx context.Context, criteria PatientSearch) result.Result[[]model.Patient]
	// GetPatientAppointments returns the patient's appointments, most recent
	// first, optionally bounded (inclusive) by startDate and endDate.
	GetPatientAppointments(ctx context.Context, patientID uuid.UUID, startDate, endDate *time.Time) result.Result[[]model.Appointment]
	GetMedicalHistory(ctx context.Context, patientID uuid.UUID) result.Result[*model.PatientMedicalHistory]
}

type UserRepository interface {
	Repository[model.User]
	GetByEmail(ctx context.Context, email string) result.Result[*model.User]
}

// ClinicalRepository serves the records that belong to a patient.
type ClinicalRepository[T any] interface {
	Repository[T]
	// ListByPatient returns the patient's records, most recent first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) result.Result[[]T]
}

type (
	AppointmentRepository   = ClinicalRepository[model.Appointment]
	MedicalRecordRepository = ClinicalRepository[model.MedicalRecord]
	MedicationRepository    = ClinicalRepository[model.Medication]
	LabResultRepository     = ClinicalRepository[model.LabResult]
)

// AuditLogRepository is append-only: Update and Delete always fail.
type AuditLogRepository interface {
	Repository[model.AuditLog]
	ListForRecord(ctx context.Context, tableName string, recordID uuid.UUID) result.Result[[]model.AuditLog]
	// ListBetween returns entries created in [from, to), oldest first.
	ListBetween(ctx context.Context, from, to time.Time) result.Result[[]model.AuditLog]
}
