package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"clinicapi/internal/config"
)

// sqlOpen is replaced in tests.
var sqlOpen = sql.Open

const pingTimeout = 5 * time.Second

var errIncompleteConfig = errors.New("database host, port, user and name are required")

// BuildPostgresDSN renders c as a postgres:// URL. The application name and
// statement timeout travel as runtime parameters, so every session the pool
// opens carries them.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", errIncompleteConfig
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	if c.StatementTimeout > 0 {
		q.Set("statement_timeout", strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres opens the pool over the pgx stdlib driver wrapped by otelsql,
// applies the pool limits and checks connectivity before returning.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL, semconv.DBName(c.Name)),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	db.SetConnMaxLifetime(c.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", serverAddr(c), err)
	}

	return db, nil
}

// serverAddr identifies the server in errors without credentials.
func serverAddr(c config.DatabaseConfig) string {
	return net.JoinHostPort(c.Host, c.Port) + "/" + c.Name
}

// ParseIsolation maps the configured isolation name to a sql.IsolationLevel.
// An empty name selects read committed.
func ParseIsolation(name string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "read committed":
		return sql.LevelReadCommitted, nil
	case "repeatable read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return 0, fmt.Errorf("unsupported isolation level %q", name)
	}
}
