// Package store persists accounts, reminder signups, mosque records, donations,
// widgets and search statistics in SQL.
//
// Postgres (lib/pq) is the production backend; SQLite (modernc.org/sqlite) is
// used locally and in tests. Queries are written with ? placeholders and
// rebound for the active driver.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is wrapped when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store wraps a sqlx connection pool.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	attempts int
	interval time.Duration
	now      func() time.Time
}

// WithRetry sets how many times Open tries to connect and the pause between tries.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *openOptions) {
		o.attempts = attempts
		o.interval = interval
	}
}

// WithClock replaces the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *openOptions) { o.now = now }
}

// Open connects to the database, retrying up to 10 times 2 seconds apart.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	o := openOptions{attempts: 10, interval: 2 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.attempts < 1 {
		o.attempts = 1
	}

	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= o.attempts; attempt++ {
		db, err = sqlx.ConnectContext(ctx, driver, dsn)
		if err == nil {
			log.Info().Str("driver", driver).Msg("connected to database")
			break
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", o.interval)

		if attempt == o.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.interval):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database after %d attempts: %w", o.attempts, err)
	}

	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, now: o.now}, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "store.Ping", "database unavailable", err)
	}
	return nil
}

// Migrate executes the embedded *.up.sql files in name order, skipping the ones
// already recorded in schema_migrations. It returns the names it applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var done []string
	if err := s.db.SelectContext(ctx, &done, `SELECT name FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, name := range done {
		applied[name] = true
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	var ran []string
	for _, file := range files {
		name := strings.TrimPrefix(file, "migrations/")
		if applied[name] {
			continue
		}

		body, err := migrationsFS.ReadFile(file)
		if err != nil {
			return ran, fmt.Errorf("could not read migration %q: %w", name, err)
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return ran, fmt.Errorf("could not begin migration %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			tx.Rollback()
			return ran, fmt.Errorf("error executing migration %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`),
			name, s.timestamp()); err != nil {
			tx.Rollback()
			return ran, fmt.Errorf("error recording migration %q: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return ran, fmt.Errorf("error committing migration %q: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("applied migration")
		ran = append(ran, name)
	}
	return ran, nil
}

// get runs a single-row query and maps errors.
func (s *Store) get(ctx context.Context, op string, dest any, query string, args ...any) error {
	if err := s.db.GetContext(ctx, dest, s.db.Rebind(query), args...); err != nil {
		return mapErr(op, err)
	}
	return nil
}

func (s *Store) selectAll(ctx context.Context, op string, dest any, query string, args ...any) error {
	if err := s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...); err != nil {
		return mapErr(op, err)
	}
	return nil
}

// exec runs a write. When mustAffect is set, zero affected rows is NotFound.
func (s *Store) exec(ctx context.Context, op string, mustAffect bool, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return mapErr(op, err)
	}
	if mustAffect {
		n, err := res.RowsAffected()
		if err != nil {
			return mapErr(op, err)
		}
		if n == 0 {
			return mapErr(op, sql.ErrNoRows)
		}
	}
	return nil
}

// timestamp returns the current time in UTC, truncated to microseconds.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a record id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.Wrap(apperr.NotFound, op, "not found", ErrNotFound)
	case isUniqueViolation(err):
		return apperr.Wrap(apperr.PersistenceFailure, op, "already exists", fmt.Errorf("%w: %v", ErrConflict, err))
	default:
		return apperr.Wrap(apperr.PersistenceFailure, op, "database error", err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsConflict reports whether err came from a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
