package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Query builds a SELECT against one table. Conditions use ? placeholders,
// which are rebound to $n in the order they are added.
type Query[T any] struct {
	q       Querier
	table   *Table[T]
	where   []string
	args    []any
	orderBy string
	limit   int
	offset  int
	paged   bool
}

// From starts a query on t through q.
func From[T any](q Querier, t *Table[T]) *Query[T] {
	return &Query[T]{q: q, table: t, orderBy: t.OrderBy}
}

// Where adds a condition; multiple conditions are combined with AND.
func (b *Query[T]) Where(clause string, args ...any) *Query[T] {
	b.where = append(b.where, b.bind(clause))
	b.args = append(b.args, args...)
	return b
}

// WhereIn restricts column to ids. An empty ids matches nothing.
func (b *Query[T]) WhereIn(column string, ids []uuid.UUID) *Query[T] {
	if len(ids) == 0 {
		b.where = append(b.where, "FALSE")
		return b
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return b.Where(column+" IN ("+marks+")", args...)
}

func (b *Query[T]) OrderBy(expr string) *Query[T] {
	b.orderBy = expr
	return b
}

func (b *Query[T]) Page(limit, offset int) *Query[T] {
	b.limit, b.offset, b.paged = limit, offset, true
	return b
}

func (b *Query[T]) bind(clause string) string {
	n := len(b.args)
	var sb strings.Builder
	for _, r := range clause {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (b *Query[T]) whereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// SQL returns the SELECT statement and its arguments.
func (b *Query[T]) SQL() (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s", b.table.selectList(), b.table.QualifiedName(), b.whereSQL())
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY " + b.orderBy)
	}
	args := append([]any(nil), b.args...)
	if b.paged {
		fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, b.limit, b.offset)
	}
	return sb.String(), args
}

// List returns every matching row. The slice is empty, not nil, when nothing matches.
func (b *Query[T]) List(ctx context.Context) ([]T, error) {
	query, args := b.SQL()
	rows, err := b.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", b.table.Name, classify(err))
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var e T
		if err := rows.Scan(b.table.Dest(&e)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", b.table.Name, err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", b.table.Name, classify(err))
	}
	return items, nil
}

// First returns the first matching row or ErrNotFound.
func (b *Query[T]) First(ctx context.Context) (*T, error) {
	query, args := b.SQL()
	if !b.paged {
		query += " LIMIT 1"
	}
	var e T
	if err := b.q.QueryRowContext(ctx, query, args...).Scan(b.table.Dest(&e)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query %s: %w", b.table.Name, classify(err))
	}
	return &e, nil
}

// Count ignores ordering and paging.
func (b *Query[T]) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.table.QualifiedName(), b.whereSQL())
	var n int
	if err := b.q.QueryRowContext(ctx, query, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", b.table.Name, classify(err))
	}
	return n, nil
}

func (b *Query[T]) Exists(ctx context.Context) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s%s)", b.table.QualifiedName(), b.whereSQL())
	var ok bool
	if err := b.q.QueryRowContext(ctx, query, b.args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists %s: %w", b.table.Name, classify(err))
	}
	return ok, nil
}
