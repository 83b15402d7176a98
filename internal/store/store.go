// Package store is the relational storage layer. It speaks plain
// database/sql so the same queries run against Postgres (via the pgx
// stdlib driver) and embedded SQLite (modernc, used for development and
// tests).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported driver names, as they appear in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store wraps a SQL database handle. All methods are safe for
// concurrent use; the screening path only ever reads.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database. The caller owns the store
// and must Close it.
func Open(driver, dsn string) (*Store, error) {
	var db *sql.DB
	var err error

	switch driver {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres database: %w", err)
		}
	case DriverSQLite:
		// Have the driver store time.Time values in SQLite's own
		// format so TIMESTAMP columns scan back as time.Time.
		if !strings.Contains(dsn, "_time_format") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_time_format=sqlite"
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", driver)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites $N placeholders into the ?N form SQLite expects.
// Queries in this package never contain a literal dollar sign.
func (s *Store) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	return strings.ReplaceAll(query, "$", "?")
}

// now returns the timestamp written into created_at/updated_at columns.
// Generated in Go rather than SQL so both dialects store the same shape.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// nullStr maps empty strings to NULL on the way in.
func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// nullInt maps nil pointers to NULL on the way in.
func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullJSON maps empty raw JSON to NULL on the way in.
func nullJSON(v []byte) any {
	if len(v) == 0 {
		return nil
	}
	return string(v)
}
