// Package storage persists cards, the review ledger and daily statistics in
// SQLite.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/conorfennell/lexideck/internal/domain"
)

const driverName = "sqlite"

// timeLayout is fixed width so that stored timestamps sort chronologically
// as plain strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
	loc  *time.Location
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the source of "now" used for new cards and resurrections.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.now = now
		}
	}
}

// WithLocation sets the time zone that decides which calendar day a review
// is counted on.
func WithLocation(loc *time.Location) Option {
	return func(db *DB) {
		if loc != nil {
			db.loc = loc
		}
	}
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string, opts ...Option) (*DB, error) {
	if path := dsnPath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases from splitting across the pool.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return New(conn, opts...), nil
}

// New wraps an existing connection without touching the schema.
func New(conn *sqlx.DB, opts ...Option) *DB {
	db := &DB{
		conn: conn,
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Cards returns the card store backed by this database.
func (db *DB) Cards() *CardStore {
	return &CardStore{db: db}
}

// Ledger returns the review ledger backed by this database.
func (db *DB) Ledger() *Ledger {
	return &Ledger{db: db}
}

// Reset removes every card, review record and daily bucket.
func (db *DB) Reset(ctx context.Context) error {
	return db.runInTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"review_history", "daily_stats", "cards"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return domain.Persistence("clear "+table, err)
			}
		}
		return nil
	})
}

// runInTx runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise, it is committed.
func (db *DB) runInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Persistence("begin transaction", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.Persistence("commit transaction", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// dsnPath returns the file system path of a sqlite DSN, or "" for in-memory
// databases.
func dsnPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return ""
	}
	return path
}
