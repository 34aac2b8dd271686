package postgres

import (
	"context"

	"github.com/google/uuid"

	"clinicapi/internal/database"
	"clinicapi/internal/model"
)

// providerInclude attaches the user referenced by id(item) through set.
func providerInclude[T any](name string, id func(*T) uuid.UUID, set func(*T, *model.User)) Include[T] {
	return Include[T]{
		Name: name,
		Load: func(ctx context.Context, q database.Querier, items []*T) error {
			ids := make([]uuid.UUID, len(items))
			for i, it := range items {
				ids[i] = id(it)
			}
			users, err := loadUsers(ctx, q, ids)
			if err != nil {
				return err
			}
			for _, it := range items {
				if u, ok := users[id(it)]; ok {
					set(it, u)
				}
			}
			return nil
		},
	}
}

// patientCollection loads one clinical table for a batch of patients, keeping
// the table's default order within each patient.
func patientCollection[C any](name string, table *database.Table[C], patientID func(*C) uuid.UUID, assign func(*model.Patient, []C)) Include[model.Patient] {
	return Include[model.Patient]{
		Name: name,
		Load: func(ctx context.Context, q database.Querier, patients []*model.Patient) error {
			ids := make([]uuid.UUID, len(patients))
			for i, p := range patients {
				ids[i] = p.ID
			}
			children, err := database.From(q, table).WhereIn("patient_id", uniqueIDs(ids)).List(ctx)
			if err != nil {
				return err
			}
			byPatient := make(map[uuid.UUID][]C, len(patients))
			for i := range children {
				pid := patientID(&children[i])
				byPatient[pid] = append(byPatient[pid], children[i])
			}
			for _, p := range patients {
				group := byPatient[p.ID]
				if group == nil {
					group = []C{}
				}
				assign(p, group)
			}
			return nil
		},
	}
}

func patientCollections() []Include[model.Patient] {
	return []Include[model.Patient]{
		patientCollection("Appointments", AppointmentsTable,
			func(a *model.Appointment) uuid.UUID { return a.PatientID },
			func(p *model.Patient, c []model.Appointment) { p.Appointments = c }),
		patientCollection("MedicalRecords", MedicalRecordsTable,
			func(r *model.MedicalRecord) uuid.UUID { return r.PatientID },
			func(p *model.Patient, c []model.MedicalRecord) { p.MedicalRecords = c }),
		patientCollection("Medications", MedicationsTable,
			func(m *model.Medication) uuid.UUID { return m.PatientID },
			func(p *model.Patient, c []model.Medication) { p.Medications = c }),
		patientCollection("LabResults", LabResultsTable,
			func(l *model.LabResult) uuid.UUID { return l.PatientID },
			func(p *model.Patient, c []model.LabResult) { p.LabResults = c }),
	}
}

// loadUsers fetches the distinct users in ids with a single query.
func loadUsers(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	ids = uniqueIDs(ids)
	users := make(map[uuid.UUID]*model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	list, err := database.From(q, UsersTable).WhereIn(database.ColumnID, ids).OrderBy("").List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		users[list[i].ID] = &list[i]
	}
	return users, nil
}

// uniqueIDs drops duplicates and nil ids, keeping first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
