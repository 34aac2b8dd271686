package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicapi/internal/database"
	"clinicapi/internal/model"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

// PatientPostgres is the PostgreSQL implementation of repository.PatientRepository.
// Generic reads load the four clinical collections of every returned patient.
type PatientPostgres struct {
	*Repository[model.Patient]
}

func NewPatientPostgres(gw *database.Gateway, opts Options) *PatientPostgres {
	return &PatientPostgres{
		Repository: NewRepository(gw, PatientsTable, "Patient", opts, patientCollections()...),
	}
}

var _ repository.PatientRepository = (*PatientPostgres)(nil)

// likeEscaper escapes LIKE wildcards so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PatientPostgres) GetByMrn(ctx context.Context, mrn string) result.Result[*model.Patient] {
	return run(ctx, r.Repository, "GetByMrn", func(ctx context.Context) result.Result[*model.Patient] {
		p, err := r.query(ctx).Where("mrn = ?", mrn).First(ctx)
		if errors.Is(err, database.ErrNotFound) {
			return result.Fail[*model.Patient](repository.ErrPatientNotFound)
		}
		if err != nil {
			return result.Fail[*model.Patient](Translate(err))
		}
		return result.Ok(p)
	})
}

// Search applies the supplied filters conjunctively, ordered by last name then first name.
func (r *PatientPostgres) Search(ctx context.Context, criteria repository.PatientSearch) result.Result[[]model.Patient] {
	return run(ctx, r.Repository, "Search", func(ctx context.Context) result.Result[[]model.Patient] {
		if criteria.Gender != "" && !criteria.Gender.Valid() {
			return result.Fail[[]model.Patient](repository.ErrInvalidGender)
		}
		q := r.query(ctx).OrderBy("last_name, first_name")
		if term := strings.ToLower(strings.TrimSpace(criteria.Term)); term != "" {
			pattern := "%" + likeEscaper.Replace(term) + "%"
			q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(mrn) LIKE ?)", pattern, pattern, pattern)
		}
		if criteria.Gender != "" {
			q.Where("gender = ?", criteria.Gender)
		}
		if criteria.DOBStart != nil {
			q.Where("date_of_birth >= ?", *criteria.DOBStart)
		}
		if criteria.DOBEnd != nil {
			q.Where("date_of_birth <= ?", *criteria.DOBEnd)
		}
		items, err := q.List(ctx)
		if err != nil {
			return result.Fail[[]model.Patient](Translate(err))
		}
		return result.Ok(items)
	})
}

func (r *PatientPostgres) GetPatientAppointments(ctx context.Context, patientID uuid.UUID, startDate, endDate *time.Time) result.Result[[]model.Appointment] {
	return run(ctx, r.Repository, "GetPatientAppointments", func(ctx context.Context) result.Result[[]model.Appointment] {
		q := r.gw.Querier(ctx)
		exists, err := r.query(ctx).Where("id = ?", patientID).Exists(ctx)
		if err != nil {
			return result.Fail[[]model.Appointment](Translate(err))
		}
		if !exists {
			return result.Fail[[]model.Appointment](repository.ErrPatientNotFound)
		}

		aq := database.From(q, AppointmentsTable).
			Where("patient_id = ?", patientID).
			OrderBy("appointment_date DESC")
		if startDate != nil {
			aq.Where("appointment_date >= ?", *startDate)
		}
		if endDate != nil {
			aq.Where("appointment_date <= ?", *endDate)
		}
		appts, err := aq.List(ctx)
		if err != nil {
			return result.Fail[[]model.Appointment](Translate(err))
		}

		ids := make([]uuid.UUID, len(appts))
		for i := range appts {
			ids[i] = appts[i].ProviderID
		}
		users, err := loadUsers(ctx, q, ids)
		if err != nil {
			return result.Fail[[]model.Appointment](Translate(err))
		}
		for i := range appts {
			appts[i].Provider = users[appts[i].ProviderID]
		}
		return result.Ok(appts)
	})
}

// GetMedicalHistory loads the patient and the four clinical collections, each
// most recent first, with providers resolved in one batched lookup.
func (r *PatientPostgres) GetMedicalHistory(ctx context.Context, patientID uuid.UUID) result.Result[*model.PatientMedicalHistory] {
	return run(ctx, r.Repository, "GetMedicalHistory", func(ctx context.Context) result.Result[*model.PatientMedicalHistory] {
		fail := func(err error) result.Result[*model.PatientMedicalHistory] {
			return result.Fail[*model.PatientMedicalHistory](Translate(err))
		}

		q := r.gw.Querier(ctx)
		p, err := r.query(ctx).Where("id = ?", patientID).First(ctx)
		if errors.Is(err, database.ErrNotFound) {
			return result.Fail[*model.PatientMedicalHistory](repository.ErrPatientNotFound)
		}
		if err != nil {
			return fail(err)
		}

		records, err := database.From(q, MedicalRecordsTable).Where("patient_id = ?", patientID).OrderBy("visit_date DESC").List(ctx)
		if err != nil {
			return fail(err)
		}
		meds, err := database.From(q, MedicationsTable).Where("patient_id = ?", patientID).OrderBy("start_date DESC").List(ctx)
		if err != nil {
			return fail(err)
		}
		labs, err := database.From(q, LabResultsTable).Where("patient_id = ?", patientID).OrderBy("test_date DESC").List(ctx)
		if err != nil {
			return fail(err)
		}
		appts, err := database.From(q, AppointmentsTable).Where("patient_id = ?", patientID).OrderBy("appointment_date DESC").List(ctx)
		if err != nil {
			return fail(err)
		}

		ids := make([]uuid.UUID, 0, len(records)+len(meds)+len(labs)+len(appts))
		for i := range records {
			ids = append(ids, records[i].ProviderID)
		}
		for i := range meds {
			ids = append(ids, meds[i].PrescribingProviderID)
		}
		for i := range labs {
			ids = append(ids, labs[i].OrderingProviderID)
		}
		for i := range appts {
			ids = append(ids, appts[i].ProviderID)
		}
		users, err := loadUsers(ctx, q, ids)
		if err != nil {
			return fail(err)
		}
		for i := range records {
			records[i].Provider = users[records[i].ProviderID]
		}
		for i := range meds {
			meds[i].PrescribingProvider = users[meds[i].PrescribingProviderID]
		}
		for i := range labs {
			labs[i].OrderingProvider = users[labs[i].OrderingProviderID]
		}
		for i := range appts {
			appts[i].Provider = users[appts[i].ProviderID]
		}

		return result.Ok(&model.PatientMedicalHistory{
			Patient:        *p,
			MedicalRecords: records,
			Medications:    meds,
			LabResults:     labs,
			Appointments:   appts,
		})
	})
}

// Add rejects a taken MRN, then a future date of birth, before inserting.
// The checks and the insert share one transaction.
func (r *PatientPostgres) Add(ctx context.Context, p *model.Patient) result.Result[*model.Patient] {
	return run(ctx, r.Repository, "Add", func(ctx context.Context) result.Result[*model.Patient] {
		return inTx(ctx, r.gw, func(ctx context.Context) result.Result[*model.Patient] {
			if e, ok := r.check(ctx, p, uuid.Nil); !ok {
				return result.Fail[*model.Patient](e)
			}
			return duplicateMrn(r.add(ctx, p))
		})
	})
}

// Update applies the same checks as Add, ignoring the patient's own MRN.
func (r *PatientPostgres) Update(ctx context.Context, p *model.Patient) result.Result[*model.Patient] {
	return run(ctx, r.Repository, "Update", func(ctx context.Context) result.Result[*model.Patient] {
		return inTx(ctx, r.gw, func(ctx context.Context) result.Result[*model.Patient] {
			if p == nil {
				return result.Fail[*model.Patient](repository.ErrValidation)
			}
			if e, ok := r.check(ctx, p, p.ID); !ok {
				return result.Fail[*model.Patient](e)
			}
			return duplicateMrn(r.update(ctx, p))
		})
	})
}

func (r *PatientPostgres) check(ctx context.Context, p *model.Patient, self uuid.UUID) (result.Error, bool) {
	if p == nil {
		return repository.ErrValidation, false
	}
	q := r.query(ctx).Where("mrn = ?", p.MRN)
	if self != uuid.Nil {
		q.Where("id <> ?", self)
	}
	taken, err := q.Exists(ctx)
	switch {
	case err != nil:
		return Translate(err), false
	case taken:
		return repository.ErrDuplicateMrn, false
	case calendarDate(p.DateOfBirth).After(calendarDate(r.gw.Now())):
		return repository.ErrInvalidDateOfBirth, false
	case !p.Gender.Valid():
		return repository.ErrInvalidGender, false
	}
	return result.Error{}, true
}

// calendarDate drops the time of day, matching the DATE column.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// duplicateMrn reports a unique violation on the MRN, raised by a concurrent
// writer that passed the pre-check, as the domain error.
func duplicateMrn(res result.Result[*model.Patient]) result.Result[*model.Patient] {
	if e, failed := res.Err(); failed && database.IsConstraint(e, constraintPatientMRN) {
		return result.Fail[*model.Patient](repository.ErrDuplicateMrn.WithCause(e.Unwrap()))
	}
	return res
}
