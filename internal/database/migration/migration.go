package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Steps run in order inside one transaction, so a failed run leaves no objects
// behind and the sentinel stays absent until every step has committed.
var steps = []migrationStep{
	{
		Name: "create_schema_audit",
		SQL:  `CREATE SCHEMA IF NOT EXISTS audit;`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS public.users (
  id            UUID         PRIMARY KEY,
  email         VARCHAR(255) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  first_name    VARCHAR(100) NOT NULL,
  last_name     VARCHAR(100) NOT NULL,
  role          VARCHAR(50)  NOT NULL CHECK (role IN ('Administrator', 'Physician', 'Nurse', 'LabTechnician', 'Receptionist')),
  is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ  NOT NULL,
  updated_at    TIMESTAMPTZ  NOT NULL,
  version       BIGINT       NOT NULL DEFAULT 1
);`,
	},
	{
		Name: "create_index_users_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON public.users (LOWER(email));`,
	},
	{
		Name: "create_table_patients",
		SQL: `CREATE TABLE IF NOT EXISTS public.patients (
  id                      UUID         PRIMARY KEY,
  mrn                     VARCHAR(50)  NOT NULL,
  first_name              VARCHAR(100) NOT NULL,
  last_name               VARCHAR(100) NOT NULL,
  date_of_birth           DATE         NOT NULL,
  gender                  VARCHAR(50)  NOT NULL CHECK (gender IN ('Male', 'Female', 'NonBinary', 'Other', 'PreferNotToSay')),
  address_line1           VARCHAR(255),
  address_line2           VARCHAR(255),
  city                    VARCHAR(100),
  state                   VARCHAR(50),
  postal_code             VARCHAR(20),
  phone_number            VARCHAR(20),
  email                   VARCHAR(255),
  emergency_contact_name  VARCHAR(200),
  emergency_contact_phone VARCHAR(20),
  created_at              TIMESTAMPTZ  NOT NULL,
  updated_at              TIMESTAMPTZ  NOT NULL,
  version                 BIGINT       NOT NULL DEFAULT 1,
  CONSTRAINT ux_patients_mrn UNIQUE (mrn)
);`,
	},
	{
		Name: "create_index_patients_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_patients_name ON public.patients (last_name, first_name);`,
	},
	{
		Name: "create_table_appointments",
		SQL: `CREATE TABLE IF NOT EXISTS public.appointments (
  id               UUID          PRIMARY KEY,
  patient_id       UUID          NOT NULL,
  provider_id      UUID          NOT NULL,
  appointment_date TIMESTAMPTZ   NOT NULL,
  duration_minutes INTEGER       NOT NULL CHECK (duration_minutes > 0),
  status           VARCHAR(50)   NOT NULL CHECK (status IN ('Scheduled', 'Confirmed', 'CheckedIn', 'InProgress', 'Completed', 'Cancelled', 'NoShow')),
  appointment_type VARCHAR(100)  NOT NULL,
  notes            VARCHAR(1000),
  created_at       TIMESTAMPTZ   NOT NULL,
  updated_at       TIMESTAMPTZ   NOT NULL,
  version          BIGINT        NOT NULL DEFAULT 1,
  CONSTRAINT fk_appointments_patient FOREIGN KEY (patient_id) REFERENCES public.patients (id) ON DELETE RESTRICT,
  CONSTRAINT fk_appointments_provider FOREIGN KEY (provider_id) REFERENCES public.users (id) ON DELETE RESTRICT
);`,
	},
	{
		Name: "create_index_appointments_patient_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_appointments_patient_date ON public.appointments (patient_id, appointment_date);`,
	},
	{
		Name: "create_table_medical_records",
		SQL: `CREATE TABLE IF NOT EXISTS public.medical_records (
  id              UUID          PRIMARY KEY,
  patient_id      UUID          NOT NULL,
  provider_id     UUID          NOT NULL,
  visit_date      TIMESTAMPTZ   NOT NULL,
  chief_complaint VARCHAR(1000) NOT NULL,
  diagnosis       VARCHAR(1000) NOT NULL,
  treatment_plan  VARCHAR(2000) NOT NULL,
  notes           VARCHAR(2000),
  created_at      TIMESTAMPTZ   NOT NULL,
  updated_at      TIMESTAMPTZ   NOT NULL,
  version         BIGINT        NOT NULL DEFAULT 1,
  CONSTRAINT fk_medical_records_patient FOREIGN KEY (patient_id) REFERENCES public.patients (id) ON DELETE RESTRICT,
  CONSTRAINT fk_medical_records_provider FOREIGN KEY (provider_id) REFERENCES public.users (id) ON DELETE RESTRICT
);`,
	},
	{
		Name: "create_index_medical_records_patient_visit",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_medical_records_patient_visit ON public.medical_records (patient_id, visit_date);`,
	},
	{
		Name: "create_table_medications",
		SQL: `CREATE TABLE IF NOT EXISTS public.medications (
  id                      UUID         PRIMARY KEY,
  patient_id              UUID         NOT NULL,
  medication_name         VARCHAR(255) NOT NULL,
  dosage                  VARCHAR(100) NOT NULL,
  frequency               VARCHAR(100) NOT NULL,
  start_date              TIMESTAMPTZ  NOT NULL,
  end_date                TIMESTAMPTZ,
  prescribing_provider_id UUID         NOT NULL,
  status                  VARCHAR(50)  NOT NULL CHECK (status IN ('Active', 'Discontinued', 'Completed', 'OnHold')),
  created_at              TIMESTAMPTZ  NOT NULL,
  updated_at              TIMESTAMPTZ  NOT NULL,
  version                 BIGINT       NOT NULL DEFAULT 1,
  CONSTRAINT fk_medications_patient FOREIGN KEY (patient_id) REFERENCES public.patients (id) ON DELETE RESTRICT,
  CONSTRAINT fk_medications_provider FOREIGN KEY (prescribing_provider_id) REFERENCES public.users (id) ON DELETE RESTRICT
);`,
	},
	{
		Name: "create_index_medications_patient_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_medications_patient_status ON public.medications (patient_id, status);`,
	},
	{
		Name: "create_index_medications_patient_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_medications_patient_name ON public.medications (patient_id, medication_name);`,
	},
	{
		Name: "create_table_lab_results",
		SQL: `CREATE TABLE IF NOT EXISTS public.lab_results (
  id                   UUID          PRIMARY KEY,
  patient_id           UUID          NOT NULL,
  ordering_provider_id UUID          NOT NULL,
  test_name            VARCHAR(255)  NOT NULL,
  test_date            TIMESTAMPTZ   NOT NULL,
  result               VARCHAR(1000) NOT NULL,
  unit                 VARCHAR(50),
  reference_range      VARCHAR(100),
  status               VARCHAR(50)   NOT NULL CHECK (status IN ('Ordered', 'InProgress', 'Completed', 'Cancelled', 'Abnormal')),
  notes                VARCHAR(1000),
  created_at           TIMESTAMPTZ   NOT NULL,
  updated_at           TIMESTAMPTZ   NOT NULL,
  version              BIGINT        NOT NULL DEFAULT 1,
  CONSTRAINT fk_lab_results_patient FOREIGN KEY (patient_id) REFERENCES public.patients (id) ON DELETE RESTRICT,
  CONSTRAINT fk_lab_results_provider FOREIGN KEY (ordering_provider_id) REFERENCES public.users (id) ON DELETE RESTRICT
);`,
	},
	{
		Name: "create_index_lab_results_patient_test_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_lab_results_patient_test_date ON public.lab_results (patient_id, test_date);`,
	},
	{
		Name: "create_index_lab_results_patient_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_lab_results_patient_status ON public.lab_results (patient_id, status);`,
	},
	{
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit.audit_logs (
  id          UUID        PRIMARY KEY,
  user_id     UUID,
  action_type VARCHAR(50) NOT NULL CHECK (action_type IN ('Create', 'Read', 'Update', 'Delete')),
  table_name  VARCHAR(50) NOT NULL,
  record_id   UUID,
  old_values  JSONB,
  new_values  JSONB,
  ip_address  VARCHAR(45),
  created_at  TIMESTAMPTZ NOT NULL,
  updated_at  TIMESTAMPTZ NOT NULL,
  version     BIGINT      NOT NULL DEFAULT 1,
  CONSTRAINT fk_audit_logs_user FOREIGN KEY (user_id) REFERENCES public.users (id) ON DELETE RESTRICT
);`,
	},
	{
		Name: "create_index_audit_logs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit.audit_logs (created_at);`,
	},
	{
		Name: "create_index_audit_logs_record",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_record ON audit.audit_logs (table_name, record_id);`,
	},
	{
		Name: "create_index_audit_logs_user",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_user ON audit.audit_logs (user_id);`,
	},
	{
		Name: "create_function_audit_reject_mutation",
		SQL: `CREATE OR REPLACE FUNCTION audit.reject_mutation() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION 'audit log entries are append-only';
END;
$$ LANGUAGE plpgsql;`,
	},
	{
		Name: "create_trigger_audit_logs_append_only",
		SQL: `DROP TRIGGER IF EXISTS trg_audit_logs_append_only ON audit.audit_logs;
CREATE TRIGGER trg_audit_logs_append_only
  BEFORE UPDATE OR DELETE ON audit.audit_logs
  FOR EACH ROW EXECUTE FUNCTION audit.reject_mutation();`,
	},
}

// sentinelTable is created by the steps; its presence means the schema is in place.
const sentinelTable = "public.patients"

// EnsureMigrated checks the sentinel table and runs the migration steps if it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	start := time.Now()
	log := logger.With().Str("component", "migration").Logger()
	log.Info().Str("event", "db_migration_check").Msg("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Dur("duration", time.Since(start)).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Dur("duration", time.Since(start)).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Int("steps", len(steps)).Msg("applying schema")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Dur("duration", time.Since(start)).
			Msg("failed to begin migration transaction")
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Dur("duration", time.Since(start)).
				Dur("step_duration", time.Since(stepStart)).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Dur("step_duration", time.Since(stepStart)).
			Msg("migration step applied")
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Dur("duration", time.Since(start)).
			Msg("failed to commit migration")
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.Info().
		Str("event", "db_migration_success").
		Dur("duration", time.Since(start)).
		Msg("schema applied")
	return nil
}
