package postgres

import (
	"clinicapi/internal/database"
	"clinicapi/internal/model"
)

// Constraint names the repositories translate into domain errors.
const (
	constraintPatientMRN = "ux_patients_mrn"
	constraintUserEmail  = "ux_users_email"
)

var PatientsTable = &database.Table[model.Patient]{
	Schema: database.SchemaPublic,
	Name:   database.TablePatients,
	Columns: []string{
		"mrn", "first_name", "last_name", "date_of_birth", "gender",
		"address_line1", "address_line2", "city", "state", "postal_code",
		"phone_number", "email", "emergency_contact_name", "emergency_contact_phone",
	},
	Fields: func(p *model.Patient) []any {
		return []any{
			&p.MRN, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
			&p.AddressLine1, &p.AddressLine2, &p.City, &p.State, &p.PostalCode,
			&p.PhoneNumber, &p.Email, &p.EmergencyContactName, &p.EmergencyContactPhone,
		}
	},
	Base:    func(p *model.Patient) *model.Entity { return &p.Entity },
	OrderBy: "last_name, first_name, id",
}

var UsersTable = &database.Table[model.User]{
	Schema:  database.SchemaPublic,
	Name:    database.TableUsers,
	Columns: []string{"email", "password_hash", "first_name", "last_name", "role", "is_active"},
	Fields: func(u *model.User) []any {
		return []any{&u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.IsActive}
	},
	Base:    func(u *model.User) *model.Entity { return &u.Entity },
	OrderBy: "last_name, first_name, id",
}

var AppointmentsTable = &database.Table[model.Appointment]{
	Schema: database.SchemaPublic,
	Name:   database.TableAppointments,
	Columns: []string{
		"patient_id", "provider_id", "appointment_date", "duration_minutes",
		"status", "appointment_type", "notes",
	},
	Fields: func(a *model.Appointment) []any {
		return []any{
			&a.PatientID, &a.ProviderID, &a.AppointmentDate, &a.DurationMinutes,
			&a.Status, &a.AppointmentType, &a.Notes,
		}
	},
	Base:    func(a *model.Appointment) *model.Entity { return &a.Entity },
	OrderBy: "appointment_date DESC, id",
}

var MedicalRecordsTable = &database.Table[model.MedicalRecord]{
	Schema: database.SchemaPublic,
	Name:   database.TableMedicalRecords,
	Columns: []string{
		"patient_id", "provider_id", "visit_date", "chief_complaint",
		"diagnosis", "treatment_plan", "notes",
	},
	Fields: func(r *model.MedicalRecord) []any {
		return []any{
			&r.PatientID, &r.ProviderID, &r.VisitDate, &r.ChiefComplaint,
			&r.Diagnosis, &r.TreatmentPlan, &r.Notes,
		}
	},
	Base:    func(r *model.MedicalRecord) *model.Entity { return &r.Entity },
	OrderBy: "visit_date DESC, id",
}

var MedicationsTable = &database.Table[model.Medication]{
	Schema: database.SchemaPublic,
	Name:   database.TableMedications,
	Columns: []string{
		"patient_id", "medication_name", "dosage", "frequency",
		"start_date", "end_date", "prescribing_provider_id", "status",
	},
	Fields: func(m *model.Medication) []any {
		return []any{
			&m.PatientID, &m.MedicationName, &m.Dosage, &m.Frequency,
			&m.StartDate, &m.EndDate, &m.PrescribingProviderID, &m.Status,
		}
	},
	Base:    func(m *model.Medication) *model.Entity { return &m.Entity },
	OrderBy: "start_date DESC, id",
}

var LabResultsTable = &database.Table[model.LabResult]{
	Schema: database.SchemaPublic,
	Name:   database.TableLabResults,
	Columns: []string{
		"patient_id", "ordering_provider_id", "test_name", "test_date", "result",
		"unit", "reference_range", "status", "notes",
	},
	Fields: func(l *model.LabResult) []any {
		return []any{
			&l.PatientID, &l.OrderingProviderID, &l.TestName, &l.TestDate, &l.Result,
			&l.Unit, &l.ReferenceRange, &l.Status, &l.Notes,
		}
	},
	Base:    func(l *model.LabResult) *model.Entity { return &l.Entity },
	OrderBy: "test_date DESC, id",
}

var AuditLogsTable = &database.Table[model.AuditLog]{
	Schema: database.SchemaAudit,
	Name:   database.TableAuditLogs,
	Columns: []string{
		"user_id", "action_type", "table_name", "record_id",
		"old_values", "new_values", "ip_address",
	},
	Fields: func(a *model.AuditLog) []any {
		return []any{
			&a.UserID, &a.ActionType, &a.TableName, &a.RecordID,
			&a.OldValues, &a.NewValues, &a.IPAddress,
		}
	},
	Base:       func(a *model.AuditLog) *model.Entity { return &a.Entity },
	OrderBy:    "created_at DESC, id",
	AppendOnly: true,
}
