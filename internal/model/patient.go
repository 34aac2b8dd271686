package model

import "time"

// Patient is the central record every clinical entity hangs off.
// The collections are only populated when a repository loads them; they are
// never written back through the patient.
type Patient struct {
	Entity
	MRN                   string    `json:"mrn"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	// DateOfBirth is a calendar date; the time of day is not stored.
	DateOfBirth           time.Time `json:"date_of_birth"`
	Gender                Gender    `json:"gender"`
	AddressLine1          *string   `json:"address_line1,omitempty"`
	AddressLine2          *string   `json:"address_line2,omitempty"`
	City                  *string   `json:"city,omitempty"`
	State                 *string   `json:"state,omitempty"`
	PostalCode            *string   `json:"postal_code,omitempty"`
	PhoneNumber           *string   `json:"phone_number,omitempty"`
	Email                 *string   `json:"email,omitempty"`
	EmergencyContactName  *string   `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string   `json:"emergency_contact_phone,omitempty"`

	Appointments   []Appointment   `json:"appointments,omitempty"`
	MedicalRecords []MedicalRecord `json:"medical_records,omitempty"`
	Medications    []Medication    `json:"medications,omitempty"`
	LabResults     []LabResult     `json:"lab_results,omitempty"`
}

// PatientMedicalHistory aggregates a patient's clinical records, each
// collection ordered most recent first. The slices are empty, never nil, when
// the patient has no records of that kind.
type PatientMedicalHistory struct {
	Patient        Patient         `json:"patient"`
	MedicalRecords []MedicalRecord `json:"medical_records"`
	Medications    []Medication    `json:"medications"`
	LabResults     []LabResult     `json:"lab_results"`
	Appointments   []Appointment   `json:"appointments"`
}
