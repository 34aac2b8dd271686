package postgres

import (
	"context"

	"github.com/google/uuid"

	"clinicapi/internal/database"
	"clinicapi/internal/model"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

// ClinicalPostgres serves a table of records that reference one patient and
// one provider. Writes validate the record and verify both references inside
// the write transaction.
type ClinicalPostgres[T any] struct {
	*Repository[T]
	refs     func(*T) (patientID, providerID uuid.UUID)
	validate func(*T) (result.Error, bool)
}

var (
	_ repository.AppointmentRepository   = (*ClinicalPostgres[model.Appointment])(nil)
	_ repository.MedicalRecordRepository = (*ClinicalPostgres[model.MedicalRecord])(nil)
	_ repository.MedicationRepository    = (*ClinicalPostgres[model.Medication])(nil)
	_ repository.LabResultRepository     = (*ClinicalPostgres[model.LabResult])(nil)
)

func NewAppointmentPostgres(gw *database.Gateway, opts Options) *ClinicalPostgres[model.Appointment] {
	return &ClinicalPostgres[model.Appointment]{
		Repository: NewRepository(gw, AppointmentsTable, "Appointment", opts,
			providerInclude("Provider",
				func(a *model.Appointment) uuid.UUID { return a.ProviderID },
				func(a *model.Appointment, u *model.User) { a.Provider = u })),
		refs: func(a *model.Appointment) (uuid.UUID, uuid.UUID) { return a.PatientID, a.ProviderID },
		validate: func(a *model.Appointment) (result.Error, bool) {
			if !a.Status.Valid() {
				return repository.ErrInvalidAppointmentStatus, false
			}
			if a.DurationMinutes <= 0 {
				return repository.ErrInvalidAppointmentDuration, false
			}
			return result.Error{}, true
		},
	}
}

func NewMedicalRecordPostgres(gw *database.Gateway, opts Options) *ClinicalPostgres[model.MedicalRecord] {
	return &ClinicalPostgres[model.MedicalRecord]{
		Repository: NewRepository(gw, MedicalRecordsTable, "MedicalRecord", opts,
			providerInclude("Provider",
				func(r *model.MedicalRecord) uuid.UUID { return r.ProviderID },
				func(r *model.MedicalRecord, u *model.User) { r.Provider = u })),
		refs:     func(r *model.MedicalRecord) (uuid.UUID, uuid.UUID) { return r.PatientID, r.ProviderID },
		validate: func(*model.MedicalRecord) (result.Error, bool) { return result.Error{}, true },
	}
}

func NewMedicationPostgres(gw *database.Gateway, opts Options) *ClinicalPostgres[model.Medication] {
	return &ClinicalPostgres[model.Medication]{
		Repository: NewRepository(gw, MedicationsTable, "Medication", opts,
			providerInclude("PrescribingProvider",
				func(m *model.Medication) uuid.UUID { return m.PrescribingProviderID },
				func(m *model.Medication, u *model.User) { m.PrescribingProvider = u })),
		refs: func(m *model.Medication) (uuid.UUID, uuid.UUID) { return m.PatientID, m.PrescribingProviderID },
		validate: func(m *model.Medication) (result.Error, bool) {
			if !m.Status.Valid() {
				return repository.ErrInvalidMedicationStatus, false
			}
			return result.Error{}, true
		},
	}
}

func NewLabResultPostgres(gw *database.Gateway, opts Options) *ClinicalPostgres[model.LabResult] {
	return &ClinicalPostgres[model.LabResult]{
		Repository: NewRepository(gw, LabResultsTable, "LabResult", opts,
			providerInclude("OrderingProvider",
				func(l *model.LabResult) uuid.UUID { return l.OrderingProviderID },
				func(l *model.LabResult, u *model.User) { l.OrderingProvider = u })),
		refs: func(l *model.LabResult) (uuid.UUID, uuid.UUID) { return l.PatientID, l.OrderingProviderID },
		validate: func(l *model.LabResult) (result.Error, bool) {
			if !l.Status.Valid() {
				return repository.ErrInvalidLabResultStatus, false
			}
			return result.Error{}, true
		},
	}
}

// ListByPatient uses the table's date ordering, most recent first.
func (r *ClinicalPostgres[T]) ListByPatient(ctx context.Context, patientID uuid.UUID) result.Result[[]T] {
	return run(ctx, r.Repository, "ListByPatient", func(ctx context.Context) result.Result[[]T] {
		items, err := r.query(ctx).Where("patient_id = ?", patientID).List(ctx)
		if err == nil {
			err = r.load(ctx, r.gw.Querier(ctx), items)
		}
		if err != nil {
			return result.Fail[[]T](Translate(err))
		}
		return result.Ok(items)
	})
}

func (r *ClinicalPostgres[T]) Add(ctx context.Context, entity *T) result.Result[*T] {
	return run(ctx, r.Repository, "Add", func(ctx context.Context) result.Result[*T] {
		if e, ok := r.valid(entity); !ok {
			return result.Fail[*T](e)
		}
		return inTx(ctx, r.gw, func(ctx context.Context) result.Result[*T] {
			if e, ok := r.referencesExist(ctx, entity); !ok {
				return result.Fail[*T](e)
			}
			return r.add(ctx, entity)
		})
	})
}

func (r *ClinicalPostgres[T]) Update(ctx context.Context, entity *T) result.Result[*T] {
	return run(ctx, r.Repository, "Update", func(ctx context.Context) result.Result[*T] {
		if e, ok := r.valid(entity); !ok {
			return result.Fail[*T](e)
		}
		return inTx(ctx, r.gw, func(ctx context.Context) result.Result[*T] {
			if e, ok := r.referencesExist(ctx, entity); !ok {
				return result.Fail[*T](e)
			}
			return r.update(ctx, entity)
		})
	})
}

func (r *ClinicalPostgres[T]) valid(entity *T) (result.Error, bool) {
	if entity == nil {
		return repository.ErrValidation, false
	}
	return r.validate(entity)
}

func (r *ClinicalPostgres[T]) referencesExist(ctx context.Context, entity *T) (result.Error, bool) {
	patientID, providerID := r.refs(entity)
	q := r.gw.Querier(ctx)
	exists, err := database.From(q, PatientsTable).Where("id = ?", patientID).Exists(ctx)
	if err != nil {
		return Translate(err), false
	}
	if !exists {
		return repository.ErrPatientNotFound, false
	}
	exists, err = database.From(q, UsersTable).Where("id = ?", providerID).Exists(ctx)
	if err != nil {
		return Translate(err), false
	}
	if !exists {
		return repository.ErrUserNotFound, false
	}
	return result.Error{}, true
}
