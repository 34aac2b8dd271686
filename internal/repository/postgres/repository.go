package postgres

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"clinicapi/internal/database"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

const tracerName = "clinicapi/internal/repository/postgres"

// Options carries the instrumentation shared by all repositories.
// The zero value logs nothing and records no metrics.
type Options struct {
	Logger  zerolog.Logger
	Metrics *Metrics
}

// Include eagerly loads related data into items after a generic read.
type Include[T any] struct {
	Name string
	Load func(ctx context.Context, q database.Querier, items []*T) error
}

// Repository implements repository.Repository for any mapped table. Entity
// repositories embed it and override the operations that carry business rules.
type Repository[T any] struct {
	gw       *database.Gateway
	table    *database.Table[T]
	entity   string
	includes []Include[T]
	log      zerolog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// NewRepository builds the generic repository for table. entity names the
// type in logs, spans and metrics. includes run on GetAll, GetByID and GetPaged.
func NewRepository[T any](gw *database.Gateway, table *database.Table[T], entity string, opts Options, includes ...Include[T]) *Repository[T] {
	return &Repository[T]{
		gw:       gw,
		table:    table,
		entity:   entity,
		includes: includes,
		log:      opts.Logger.With().Str("component", "repository").Str("entity", entity).Logger(),
		metrics:  opts.Metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

var _ repository.Repository[struct{}] = (*Repository[struct{}])(nil)

func (r *Repository[T]) GetAll(ctx context.Context) result.Result[[]T] {
	return run(ctx, r, "GetAll", func(ctx context.Context) result.Result[[]T] {
		q := r.gw.Querier(ctx)
		items, err := database.From(q, r.table).List(ctx)
		if err == nil {
			err = r.load(ctx, q, items)
		}
		if err != nil {
			return result.Fail[[]T](Translate(err))
		}
		return result.Ok(items)
	})
}

func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) result.Result[*T] {
	return run(ctx, r, "GetByID", func(ctx context.Context) result.Result[*T] {
		q := r.gw.Querier(ctx)
		e, err := database.From(q, r.table).Where(database.ColumnID+" = ?", id).First(ctx)
		if errors.Is(err, database.ErrNotFound) {
			return result.Fail[*T](repository.EntityNotFound(id))
		}
		if err == nil && len(r.includes) > 0 {
			items := []T{*e}
			if err = r.load(ctx, q, items); err == nil {
				e = &items[0]
			}
		}
		if err != nil {
			return result.Fail[*T](Translate(err))
		}
		return result.Ok(e)
	})
}

func (r *Repository[T]) Add(ctx context.Context, entity *T) result.Result[*T] {
	return run(ctx, r, "Add", func(ctx context.Context) result.Result[*T] {
		return r.add(ctx, entity)
	})
}

func (r *Repository[T]) Update(ctx context.Context, entity *T) result.Result[*T] {
	return run(ctx, r, "Update", func(ctx context.Context) result.Result[*T] {
		return r.update(ctx, entity)
	})
}

func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) result.Result[result.Deleted] {
	return run(ctx, r, "Delete", func(ctx context.Context) result.Result[result.Deleted] {
		return r.delete(ctx, id)
	})
}

func (r *Repository[T]) GetPaged(ctx context.Context, pageIndex, pageSize int) result.Result[repository.PageResult[T]] {
	return run(ctx, r, "GetPaged", func(ctx context.Context) result.Result[repository.PageResult[T]] {
		// The offset must fit in an int.
		if pageIndex < 0 || pageSize <= 0 || pageIndex > math.MaxInt/pageSize {
			return result.Fail[repository.PageResult[T]](repository.ErrInvalidPaging)
		}
		q := r.gw.Querier(ctx)
		total, err := database.From(q, r.table).Count(ctx)
		if err != nil {
			return result.Fail[repository.PageResult[T]](Translate(err))
		}
		items, err := database.From(q, r.table).Page(pageSize, pageIndex*pageSize).List(ctx)
		if err == nil {
			err = r.load(ctx, q, items)
		}
		if err != nil {
			return result.Fail[repository.PageResult[T]](Translate(err))
		}
		return result.Ok(repository.PageResult[T]{Items: items, TotalCount: total})
	})
}

func (r *Repository[T]) add(ctx context.Context, entity *T) result.Result[*T] {
	if entity == nil {
		return result.Fail[*T](repository.ErrValidation)
	}
	s := r.gw.NewSession()
	database.Set(s, r.table).Add(entity)
	if _, err := s.SaveChanges(ctx); err != nil {
		return result.Fail[*T](Translate(err))
	}
	return result.Ok(entity)
}

func (r *Repository[T]) update(ctx context.Context, entity *T) result.Result[*T] {
	if entity == nil {
		return result.Fail[*T](repository.ErrValidation)
	}
	s := r.gw.NewSession()
	database.Set(s, r.table).Update(entity)
	if _, err := s.SaveChanges(ctx); err != nil {
		return result.Fail[*T](Translate(err))
	}
	return result.Ok(entity)
}

// delete loads the row and removes it at the loaded version, in one transaction.
func (r *Repository[T]) delete(ctx context.Context, id uuid.UUID) result.Result[result.Deleted] {
	return inTx(ctx, r.gw, func(ctx context.Context) result.Result[result.Deleted] {
		s := r.gw.NewSession()
		set := database.Set(s, r.table)
		e, err := set.Find(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return result.Fail[result.Deleted](repository.EntityNotFound(id))
		}
		if err != nil {
			return result.Fail[result.Deleted](Translate(err))
		}
		set.Remove(e)
		if _, err := s.SaveChanges(ctx); err != nil {
			return result.Fail[result.Deleted](Translate(err))
		}
		return result.Ok(result.Deleted{})
	})
}

func (r *Repository[T]) load(ctx context.Context, q database.Querier, items []T) error {
	if len(r.includes) == 0 || len(items) == 0 {
		return nil
	}
	ptrs := make([]*T, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	for _, inc := range r.includes {
		if err := inc.Load(ctx, q, ptrs); err != nil {
			return err
		}
	}
	return nil
}

// query starts a read on the repository's table that joins any transaction in ctx.
func (r *Repository[T]) query(ctx context.Context) *database.Query[T] {
	return database.From(r.gw.Querier(ctx), r.table)
}

// run wraps an operation with the cancellation check, a span, metrics and
// failure logging.
func run[T, R any](ctx context.Context, r *Repository[T], op string, fn func(context.Context) result.Result[R]) result.Result[R] {
	start := time.Now()

	var res result.Result[R]
	if err := ctx.Err(); err != nil {
		res = result.Fail[R](Translate(err))
	} else {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, r.entity+"."+op,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("repository.entity", r.entity),
				attribute.String("repository.operation", op),
			),
		)
		res = fn(ctx)
		if e, failed := res.Err(); failed {
			span.RecordError(e)
			span.SetStatus(codes.Error, e.Code)
		}
		span.End()
	}

	outcome := "ok"
	if e, failed := res.Err(); failed {
		outcome = e.Kind.String()
		ev := r.log.Debug()
		if e.Kind == result.Failure {
			ev = r.log.Warn().Err(e.Unwrap())
		}
		ev.Str("operation", op).Str("code", e.Code).Dur("duration", time.Since(start)).Msg("repository operation failed")
	}
	r.metrics.observe(r.entity, op, outcome, time.Since(start))
	return res
}
