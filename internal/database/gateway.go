package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Gateway is the single entry point to the database for repositories. It owns
// the transaction boundary and the clock used to stamp entities.
type Gateway struct {
	db        *sql.DB
	isolation sql.IsolationLevel
	now       func() time.Time
}

type Option func(*Gateway)

// WithIsolation sets the isolation level of transactions opened by InTx.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(g *Gateway) { g.isolation = level }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func NewGateway(db *sql.DB, opts ...Option) *Gateway {
	g := &Gateway{
		db:        db,
		isolation: sql.LevelReadCommitted,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the gateway clock in UTC.
func (g *Gateway) Now() time.Time { return g.now().UTC() }

func (g *Gateway) Ping(ctx context.Context) error { return g.db.PingContext(ctx) }

// Querier returns the transaction carried by ctx, or the pool.
func (g *Gateway) Querier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return g.db
}

// InTx runs fn inside a transaction. When ctx already carries one, fn joins
// it and the outer call decides commit or rollback. Any error from fn, or a
// panic, rolls back.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := g.db.BeginTx(ctx, &sql.TxOptions{Isolation: g.isolation})
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	return nil
}
