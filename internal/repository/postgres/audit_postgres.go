package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicapi/internal/database"
	"clinicapi/internal/model"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

// AuditLogPostgres stores the append-only audit trail in audit.audit_logs.
type AuditLogPostgres struct {
	*Repository[model.AuditLog]
}

func NewAuditLogPostgres(gw *database.Gateway, opts Options) *AuditLogPostgres {
	return &AuditLogPostgres{Repository: NewRepository(gw, AuditLogsTable, "AuditLog", opts)}
}

var _ repository.AuditLogRepository = (*AuditLogPostgres)(nil)

func (r *AuditLogPostgres) Add(ctx context.Context, entry *model.AuditLog) result.Result[*model.AuditLog] {
	return run(ctx, r.Repository, "Add", func(ctx context.Context) result.Result[*model.AuditLog] {
		if entry != nil && !entry.ActionType.Valid() {
			return result.Fail[*model.AuditLog](repository.ErrInvalidAuditAction)
		}
		return r.add(ctx, entry)
	})
}

// Update always fails; audit entries are never modified.
func (r *AuditLogPostgres) Update(ctx context.Context, _ *model.AuditLog) result.Result[*model.AuditLog] {
	return run(ctx, r.Repository, "Update", func(context.Context) result.Result[*model.AuditLog] {
		return result.Fail[*model.AuditLog](repository.ErrAuditLogImmutable)
	})
}

// Delete always fails; audit entries are never removed.
func (r *AuditLogPostgres) Delete(ctx context.Context, _ uuid.UUID) result.Result[result.Deleted] {
	return run(ctx, r.Repository, "Delete", func(context.Context) result.Result[result.Deleted] {
		return result.Fail[result.Deleted](repository.ErrAuditLogImmutable)
	})
}

func (r *AuditLogPostgres) ListForRecord(ctx context.Context, tableName string, recordID uuid.UUID) result.Result[[]model.AuditLog] {
	return run(ctx, r.Repository, "ListForRecord", func(ctx context.Context) result.Result[[]model.AuditLog] {
		items, err := r.query(ctx).
			Where("table_name = ?", tableName).
			Where("record_id = ?", recordID).
			List(ctx)
		if err != nil {
			return result.Fail[[]model.AuditLog](Translate(err))
		}
		return result.Ok(items)
	})
}

func (r *AuditLogPostgres) ListBetween(ctx context.Context, from, to time.Time) result.Result[[]model.AuditLog] {
	return run(ctx, r.Repository, "ListBetween", func(ctx context.Context) result.Result[[]model.AuditLog] {
		items, err := r.query(ctx).
			Where("created_at >= ?", from).
			Where("created_at < ?", to).
			OrderBy("created_at, id").
			List(ctx)
		if err != nil {
			return result.Fail[[]model.AuditLog](Translate(err))
		}
		return result.Ok(items)
	})
}
