package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"clinicapi/internal/model"
)

type entryState int

const (
	stateAdded entryState = iota
	stateModified
	stateDeleted
)

func (s entryState) String() string {
	switch s {
	case stateAdded:
		return "insert"
	case stateModified:
		return "update"
	default:
		return "delete"
	}
}

type entry struct {
	state      entryState
	table      string
	appendOnly bool
	base       *model.Entity
	write      func(ctx context.Context, q Querier) error
}

// Session tracks pending writes until SaveChanges flushes them in one
// transaction. A Session is not safe for concurrent use.
type Session struct {
	gw      *Gateway
	pending []*entry
}

func (g *Gateway) NewSession() *Session {
	return &Session{gw: g}
}

// Pending returns the number of tracked writes.
func (s *Session) Pending() int { return len(s.pending) }

// SaveChanges stamps the pending entities and executes their writes in a
// single transaction, returning the number of rows written. On error nothing
// is written and the entities' bookkeeping fields are restored. The pending
// set is cleared either way.
//
// Added entities get an id when they have none, created_at and updated_at set
// to now and version 1. Modified entities get updated_at set to now; their
// created_at and version are reloaded from the row.
func (s *Session) SaveChanges(ctx context.Context) (int, error) {
	pending := s.pending
	s.pending = nil
	if len(pending) == 0 {
		return 0, nil
	}

	for _, e := range pending {
		if e.appendOnly && e.state != stateAdded {
			return 0, fmt.Errorf("%s %s: %w", e.state, e.table, ErrAppendOnly)
		}
	}

	snapshots := make([]model.Entity, len(pending))
	for i, e := range pending {
		snapshots[i] = *e.base
	}
	restore := func() {
		for i, e := range pending {
			*e.base = snapshots[i]
		}
	}

	now := s.gw.Now()
	for _, e := range pending {
		switch e.state {
		case stateAdded:
			if e.base.ID == uuid.Nil {
				e.base.ID = uuid.New()
			}
			e.base.CreatedAt = now
			e.base.UpdatedAt = now
			e.base.Version = 1
		case stateModified:
			e.base.UpdatedAt = now
		}
	}

	written := 0
	err := s.gw.InTx(ctx, func(ctx context.Context) error {
		q := s.gw.Querier(ctx)
		for _, e := range pending {
			if err := e.write(ctx, q); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		restore()
		return 0, err
	}
	return written, nil
}

// DbSet is the per-entity handle of a Session.
type DbSet[T any] struct {
	s *Session
	t *Table[T]
}

// Set returns the handle for table t within s.
func Set[T any](s *Session, t *Table[T]) *DbSet[T] {
	return &DbSet[T]{s: s, t: t}
}

// Query starts a read that joins the transaction in ctx, if any.
func (d *DbSet[T]) Query(ctx context.Context) *Query[T] {
	return From(d.s.gw.Querier(ctx), d.t)
}

// Find loads an entity by id or returns ErrNotFound.
func (d *DbSet[T]) Find(ctx context.Context, id uuid.UUID) (*T, error) {
	return d.Query(ctx).Where(ColumnID+" = ?", id).First(ctx)
}

func (d *DbSet[T]) Add(e *T) {
	t := d.t
	d.track(stateAdded, e, func(ctx context.Context, q Querier) error {
		if _, err := q.ExecContext(ctx, t.insertSQL(), values(t.Dest(e))...); err != nil {
			return fmt.Errorf("insert %s: %w", t.Name, classify(err))
		}
		return nil
	})
}

// Update replaces every data column of e. The write only matches the row at
// e's current version; otherwise SaveChanges fails with ErrConcurrency.
func (d *DbSet[T]) Update(e *T) {
	t := d.t
	d.track(stateModified, e, func(ctx context.Context, q Querier) error {
		base := t.Base(e)
		args := make([]any, 0, len(t.Columns)+3)
		args = append(args, base.ID)
		args = append(args, values(t.Fields(e))...)
		args = append(args, base.UpdatedAt, base.Version)

		err := q.QueryRowContext(ctx, t.updateSQL(), args...).Scan(&base.CreatedAt, &base.Version)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update %s %s: %w", t.Name, base.ID, ErrConcurrency)
		}
		if err != nil {
			return fmt.Errorf("update %s: %w", t.Name, classify(err))
		}
		return nil
	})
}

// Remove deletes e at its current version.
func (d *DbSet[T]) Remove(e *T) {
	t := d.t
	d.track(stateDeleted, e, func(ctx context.Context, q Querier) error {
		base := t.Base(e)
		res, err := q.ExecContext(ctx, t.deleteSQL(), base.ID, base.Version)
		if err != nil {
			return fmt.Errorf("delete %s: %w", t.Name, classify(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete %s: %w", t.Name, err)
		}
		if n == 0 {
			return fmt.Errorf("delete %s %s: %w", t.Name, base.ID, ErrConcurrency)
		}
		return nil
	})
}

func (d *DbSet[T]) track(state entryState, e *T, write func(context.Context, Querier) error) {
	d.s.pending = append(d.s.pending, &entry{
		state:      state,
		table:      d.t.Name,
		appendOnly: d.t.AppendOnly,
		base:       d.t.Base(e),
		write:      write,
	})
}

// values dereferences field pointers into statement arguments.
func values(ptrs []any) []any {
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		out[i] = reflect.ValueOf(p).Elem().Interface()
	}
	return out
}
