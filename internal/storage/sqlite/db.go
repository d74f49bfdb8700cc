// Package sqlite implements the audit-trail storage interfaces on SQLite
// via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// auditReadConns bounds the read pool. Reads come only from the
// audit_recent admin tool and the readiness probe, so a handful of
// connections is plenty.
const auditReadConns = 4

// Store implements storage.AuditStore. The workload is append-mostly: the
// audit recorder inserts batches through a single writer connection while
// the read pool serves occasional lookups.
type Store struct {
	write *sql.DB
	read  *sql.DB
}

// New opens the audit database, applies migrations, and returns a Store.
func New(dsn string) (*Store, error) {
	write, err := open(dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("open audit writer: %w", err)
	}

	read, err := open(dsn, auditReadConns)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open audit reader: %w", err)
	}

	if err := migrate(write); err != nil {
		write.Close()
		read.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Store{write: write, read: read}, nil
}

// open returns a pool capped at maxConns. WAL keeps readers from blocking
// behind the recorder's batch transactions; the busy timeout covers the
// window where a flush holds the write lock. In-memory databases use shared
// cache so both pools see the same data.
func open(dsn string, maxConns int) (*sql.DB, error) {
	const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	full := "file:" + dsn + "?" + pragmas
	if dsn == ":memory:" {
		full = "file::memory:?mode=memory&cache=shared&" + pragmas
	}

	db, err := sql.Open("sqlite", full)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	return db, nil
}

// migrate applies the embedded SQL migrations with goose.
// fs.Sub strips the "migrations/" prefix so goose sees files at the FS root.
func migrate(db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sub fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	_, err = provider.Up(context.Background())
	return err
}

// Ping verifies connectivity through the read pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.read.PingContext(ctx)
}

// Close closes both pools.
func (s *Store) Close() error {
	return errors.Join(s.write.Close(), s.read.Close())
}
