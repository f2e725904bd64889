// Package storage holds the database/sql handles shared by the repositories,
// along with the embedded schema migrations for each supported driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names a supported relational backend.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// DB provides reader/writer database handles. For SQLite the writer is limited
// to a single connection; for PostgreSQL both point at the same pool.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	Driver Driver
}

// Rebind rewrites ?-style placeholders into the form the driver expects.
// Question marks inside single-quoted literals are left alone.
func (db *DB) Rebind(query string) string {
	if db.Driver != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func (db *DB) PingContext(ctx context.Context) error {
	if err := db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if db.Reader != db.Writer {
		if err := db.Reader.PingContext(ctx); err != nil {
			return fmt.Errorf("ping reader: %w", err)
		}
	}
	return nil
}

// Close closes both handles. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if db.Reader != nil && db.Reader != db.Writer {
		if err := db.Reader.Close(); err != nil {
			firstErr = fmt.Errorf("close reader: %w", err)
		}
	}

	if db.Writer != nil {
		if err := db.Writer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer: %w", err)
		}
	}

	return firstErr
}

// IsCheckViolation reports whether err is a CHECK or NOT NULL constraint
// failure from either backend.
func IsCheckViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		// 23502 not_null_violation, 23514 check_violation
		return pgErr.Code == "23502" || pgErr.Code == "23514"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// extended codes disabled
			msg := liteErr.Error()
			return strings.Contains(msg, "CHECK constraint") || strings.Contains(msg, "NOT NULL constraint")
		}
	}

	return false
}
