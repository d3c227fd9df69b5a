// Package database owns the local SQLite database: opening it, applying the
// embedded goose migrations and sharing a single handle per process.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/storyshelf/storyshelf/internal/client/migrations"
	"github.com/storyshelf/storyshelf/internal/logging"

	_ "modernc.org/sqlite"
)

// Driver is the database/sql driver name registered by modernc.org/sqlite.
const Driver = "sqlite"

// ErrClosed is returned by DB after Close.
var ErrClosed = errors.New("database handle closed")

// Open opens the database at dsn and brings its schema up to date.
//
// The pool is limited to one connection: SQLite serializes writers anyway,
// and in-memory databases exist per connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dsn, err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("migration provider: %w", err)
	}
	return p, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	p, err := newProvider(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// schemaVersion reports the current schema version integer.
func schemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

// Handle opens the database on first use and hands the same *sql.DB to every
// caller afterwards. Concurrent first calls open it exactly once; a failed
// open is not cached, so a later call may try again.
type Handle struct {
	dsn  string
	log  logging.Logger
	open func(ctx context.Context, dsn string) (*sql.DB, error)

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

func NewHandle(dsn string, log logging.Logger) *Handle {
	return &Handle{dsn: dsn, log: logging.OrNop(log), open: Open}
}

// DB implements dbx.Opener.
func (h *Handle) DB(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if h.db != nil {
		return h.db, nil
	}

	db, err := h.open(ctx, h.dsn)
	if err != nil {
		h.log.Error(ctx, "database open failed", "dsn", h.dsn, "error", err)
		return nil, err
	}
	h.log.Info(ctx, "database opened", "dsn", h.dsn)
	h.db = db
	return db, nil
}

// Close releases the database. Further DB calls fail with ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
