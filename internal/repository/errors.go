package repository

import (
	"github.com/google/uuid"

	"clinicapi/internal/result"
)

var (
	ErrPatientNotFound    = result.NotFoundError("Patient.NotFound", "Patient with specified identifier was not found.")
	ErrDuplicateMrn       = result.ConflictError("Patient.DuplicateMrn", "A patient with this MRN already exists.")
	ErrInvalidDateOfBirth = result.ValidationError("Patient.InvalidDateOfBirth", "Date of birth cannot be in the future.")
	ErrInvalidGender      = result.ValidationError("Patient.InvalidGender", "Gender is not a recognised value.")

	ErrUserNotFound   = result.NotFoundError("User.NotFound", "User with specified identifier was not found.")
	ErrDuplicateEmail = result.ConflictError("User.DuplicateEmail", "A user with this email already exists.")
	ErrInvalidRole    = result.ValidationError("User.InvalidRole", "Role is not a recognised value.")

	ErrInvalidAppointmentStatus   = result.ValidationError("Appointment.InvalidStatus", "Appointment status is not a recognised value.")
	ErrInvalidAppointmentDuration = result.ValidationError("Appointment.InvalidDuration", "Appointment duration must be positive.")
	ErrInvalidMedicationStatus    = result.ValidationError("Medication.InvalidStatus", "Medication status is not a recognised value.")
	ErrInvalidLabResultStatus     = result.ValidationError("LabResult.InvalidStatus", "Lab result status is not a recognised value.")

	ErrInvalidAuditAction = result.ValidationError("AuditLog.InvalidActionType", "Audit action is not a recognised value.")
	ErrAuditLogImmutable  = result.ValidationError("AuditLog.Immutable", "Audit log entries cannot be modified or removed.")

	ErrNotFound            = result.NotFoundError("General.NotFound", "The requested entity was not found.")
	ErrConcurrencyConflict = result.ConflictError("General.ConcurrencyConflict", "The record was modified by another user.")
	ErrDuplicateKey        = result.ConflictError("General.DuplicateKey", "A record with the same unique key already exists.")
	ErrReferenceConflict   = result.ConflictError("General.ReferenceConflict", "The record is referenced by other records.")
	ErrDatabase            = result.FailureError("General.DatabaseError", "An error occurred while accessing the database.")
	ErrCanceled            = result.FailureError("General.Canceled", "The operation was canceled.")
	ErrInvalidPaging       = result.ValidationError("General.InvalidPaging", "Page index must be non-negative and page size positive.")
	ErrValidation          = result.ValidationError("General.ValidationError", "The entity is invalid.")
)

// EntityNotFound is the generic NotFound for id lookups.
func EntityNotFound(id uuid.UUID) result.Error {
	return ErrNotFound.WithDescription("Entity with Id %s not found", id)
}
