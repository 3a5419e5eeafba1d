// Package store implements the canonical relational copy of the Mindwtr
// dataset on embedded SQLite.
//
// The store owns all structured queries and the full-text index. Writes go
// through a single primitive, ReplaceAll, which swaps the entire dataset in
// one transaction; there is no row-level upsert API. The JSON mirror file
// handled by package mirror is derived from this store, never the other
// way around (except for the one-time import of a pre-existing mirror into
// an empty store, which package storage drives).
//
// The database runs in embedded mode with WAL enabled. One installation
// owns one database file; concurrency across devices happens at the sync
// directory, not here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// StoreError wraps any relational engine failure surfaced to callers.
// The enclosing transaction has been rolled back by the time one of these
// is returned; no partial state persists.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Store wraps the SQLite connection for one local database file.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if necessary) the database at path, brings its
// schema up to the current version, and reconciles the search index with
// the base tables. The caller must Close the returned store.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// One connection serializes every operation: the whole-document write
	// model assumes one logical writer, and reads interleaved with an
	// in-flight replace would observe a half-empty dataset.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.reconcileSearchIndex(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path this store was opened on.
func (s *Store) Path() string { return s.path }

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// Empty reports whether the store holds no data at all: no entity rows and
// no settings row. A freshly migrated database is empty; that is the
// trigger for importing a pre-existing mirror file.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	for _, table := range []string{"tasks", "projects", "areas", "sections", "settings"} {
		var n int
		if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return false, storeErr("count "+table, err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}
