package postgres

import (
	"clinicapi/internal/database"
	"clinicapi/internal/model"
)

// Repositories groups every repository over one gateway.
type Repositories struct {
	Patients       *PatientPostgres
	Users          *UserPostgres
	Appointments   *ClinicalPostgres[model.Appointment]
	MedicalRecords *ClinicalPostgres[model.MedicalRecord]
	Medications    *ClinicalPostgres[model.Medication]
	LabResults     *ClinicalPostgres[model.LabResult]
	AuditLogs      *AuditLogPostgres
}

func NewRepositories(gw *database.Gateway, opts Options) *Repositories {
	return &Repositories{
		Patients:       NewPatientPostgres(gw, opts),
		Users:          NewUserPostgres(gw, opts),
		Appointments:   NewAppointmentPostgres(gw, opts),
		MedicalRecords: NewMedicalRecordPostgres(gw, opts),
		Medications:    NewMedicationPostgres(gw, opts),
		LabResults:     NewLabResultPostgres(gw, opts),
		AuditLogs:      NewAuditLogPostgres(gw, opts),
	}
}
