package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff member; clinical records reference users as providers.
type User struct {
	Entity
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Role         UserRole `json:"role"`
	IsActive     bool     `json:"is_active"`
}

type Appointment struct {
	Entity
	PatientID       uuid.UUID         `json:"patient_id"`
	ProviderID      uuid.UUID         `json:"provider_id"`
	AppointmentDate time.Time         `json:"appointment_date"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status"`
	AppointmentType string            `json:"appointment_type"`
	Notes           *string           `json:"notes,omitempty"`

	Provider *User `json:"provider,omitempty"`
}

type MedicalRecord struct {
	Entity
	PatientID      uuid.UUID `json:"patient_id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	VisitDate      time.Time `json:"visit_date"`
	ChiefComplaint string    `json:"chief_complaint"`
	Diagnosis      string    `json:"diagnosis"`
	TreatmentPlan  string    `json:"treatment_plan"`
	Notes          *string   `json:"notes,omitempty"`

	Provider *User `json:"provider,omitempty"`
}

type Medication struct {
	Entity
	PatientID             uuid.UUID        `json:"patient_id"`
	MedicationName        string           `json:"medication_name"`
	Dosage                string           `json:"dosage"`
	Frequency             string           `json:"frequency"`
	StartDate             time.Time        `json:"start_date"`
	EndDate               *time.Time       `json:"end_date,omitempty"`
	PrescribingProviderID uuid.UUID        `json:"prescribing_provider_id"`
	Status                MedicationStatus `json:"status"`

	PrescribingProvider *User `json:"prescribing_provider,omitempty"`
}

type LabResult struct {
	Entity
	PatientID          uuid.UUID       `json:"patient_id"`
	OrderingProviderID uuid.UUID       `json:"ordering_provider_id"`
	TestName           string          `json:"test_name"`
	TestDate           time.Time       `json:"test_date"`
	Result             string          `json:"result"`
	Unit               *string         `json:"unit,omitempty"`
	ReferenceRange     *string         `json:"reference_range,omitempty"`
	Status             LabResultStatus `json:"status"`
	Notes              *string         `json:"notes,omitempty"`

	OrderingProvider *User `json:"ordering_provider,omitempty"`
}

// AuditLog is an append-only record of a change. UserID is absent for system events.
// OldValues and NewValues hold JSON documents.
type AuditLog struct {
	Entity
	UserID     *uuid.UUID  `json:"user_id,omitempty"`
	ActionType AuditAction `json:"action_type"`
	TableName  string      `json:"table_name"`
	RecordID   *uuid.UUID  `json:"record_id,omitempty"`
	OldValues  *string     `json:"old_values,omitempty"`
	NewValues  *string     `json:"new_values,omitempty"`
	IPAddress  *string     `json:"ip_address,omitempty"`
}
