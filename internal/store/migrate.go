package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schemaVersion is the structural version the code requires. The ledger in
// schema_migrations records which versions a database has already applied;
// Open applies the delta exactly once.
//
// Version history:
//
//	1 — baseline ledger entry for the current table layout
//	2 — search index rewritten (contexts/tagIds columns became indexed),
//	    forcing a full rebuild from the base tables
const schemaVersion = 2

// baseSchema is the idempotent portion of the migration gate: creating it
// on an up-to-date store is a no-op. Columns added after the original
// flat layout are handled separately by ensureColumn so databases created
// by older builds pick them up via ALTER TABLE.
const baseSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL,
	priority TEXT,
	taskMode TEXT,
	startTime TEXT,
	dueDate TEXT,
	recurrence TEXT,
	pushCount INTEGER,
	tags TEXT,
	contexts TEXT,
	checklist TEXT,
	description TEXT,
	attachments TEXT,
	location TEXT,
	projectId TEXT,
	sectionId TEXT,
	areaId TEXT,
	orderNum INTEGER,
	isFocusedToday INTEGER,
	timeEstimate TEXT,
	reviewAt TEXT,
	completedAt TEXT,
	createdAt TEXT NOT NULL,
	updatedAt TEXT NOT NULL,
	deletedAt TEXT,
	purgedAt TEXT,
	rev INTEGER,
	revBy TEXT
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL,
	color TEXT NOT NULL,
	orderNum INTEGER,
	tagIds TEXT,
	isSequential INTEGER,
	isFocused INTEGER,
	supportNotes TEXT,
	attachments TEXT,
	reviewAt TEXT,
	areaId TEXT,
	areaTitle TEXT,
	createdAt TEXT NOT NULL,
	updatedAt TEXT NOT NULL,
	deletedAt TEXT,
	purgedAt TEXT,
	rev INTEGER,
	revBy TEXT
);

CREATE TABLE IF NOT EXISTS areas (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT,
	icon TEXT,
	orderNum INTEGER NOT NULL,
	createdAt TEXT,
	updatedAt TEXT,
	deletedAt TEXT,
	rev INTEGER,
	revBy TEXT
);

CREATE TABLE IF NOT EXISTS sections (
	id TEXT PRIMARY KEY,
	projectId TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	orderNum INTEGER,
	isCollapsed INTEGER,
	createdAt TEXT,
	updatedAt TEXT,
	deletedAt TEXT,
	rev INTEGER,
	revBy TEXT
);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	appliedAt TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_projectId ON tasks(projectId);
CREATE INDEX IF NOT EXISTS idx_tasks_deletedAt ON tasks(deletedAt);
CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
CREATE INDEX IF NOT EXISTS idx_projects_areaId ON projects(areaId);
CREATE INDEX IF NOT EXISTS idx_sections_projectId ON sections(projectId);

CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
	id UNINDEXED,
	title,
	description,
	tags,
	contexts
);

CREATE VIRTUAL TABLE IF NOT EXISTS projects_fts USING fts5(
	id UNINDEXED,
	title,
	supportNotes,
	tagIds,
	areaTitle
);
`

// addedColumns lists every column introduced after the original flat
// schema, per table. Migrations are additive only: columns are added with
// a NULL default and nothing is ever dropped.
var addedColumns = map[string][]struct{ name, typ string }{
	"tasks": {
		{"sectionId", "TEXT"},
		{"areaId", "TEXT"},
		{"orderNum", "INTEGER"},
		{"purgedAt", "TEXT"},
		{"rev", "INTEGER"},
		{"revBy", "TEXT"},
	},
	"projects": {
		{"orderNum", "INTEGER"},
		{"purgedAt", "TEXT"},
		{"rev", "INTEGER"},
		{"revBy", "TEXT"},
	},
	"areas": {
		{"deletedAt", "TEXT"},
		{"rev", "INTEGER"},
		{"revBy", "TEXT"},
	},
	"sections": {
		{"rev", "INTEGER"},
		{"revBy", "TEXT"},
	},
}

// migrate is the migration gate: it runs on every Open and must be safe
// to re-run. Step order matters — tables first, then additive columns,
// then the versioned structural steps recorded in the ledger.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, baseSchema); err != nil {
		return storeErr("create schema", err)
	}

	for table, cols := range addedColumns {
		for _, col := range cols {
			if err := s.ensureColumn(ctx, table, col.name, col.typ); err != nil {
				return err
			}
		}
	}

	applied, err := s.appliedVersion(ctx)
	if err != nil {
		return err
	}
	for v := applied + 1; v <= schemaVersion; v++ {
		if err := s.applyVersion(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// ensureColumn adds a column if table introspection says it is missing.
func (s *Store) ensureColumn(ctx context.Context, table, column, typ string) error {
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return storeErr("introspect "+table, err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return storeErr("introspect "+table, err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return storeErr("introspect "+table, err)
	}
	if found {
		return nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return storeErr(fmt.Sprintf("add column %s.%s", table, column), err)
	}
	return nil
}

// appliedVersion returns the highest version recorded in the ledger,
// zero for a database that has never run a versioned step.
func (s *Store) appliedVersion(ctx context.Context) (int, error) {
	var v int
	err := s.conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, storeErr("read migration ledger", err)
	}
	return v, nil
}

// applyVersion applies one structural migration step and records it, both
// inside a single transaction so a crash cannot leave a step half-applied
// but marked done (or done but unmarked).
func (s *Store) applyVersion(ctx context.Context, version int) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin migration", err)
	}
	defer tx.Rollback()

	switch version {
	case 1:
		// Baseline: table layout handled by baseSchema, only the ledger
		// entry is new.
	case 2:
		// Indexed columns changed shape; the old index contents cannot be
		// trusted. Rebuild wholesale from the base tables.
		if err := rebuildSearchIndexTx(ctx, tx); err != nil {
			return err
		}
	default:
		return storeErr("apply migration", fmt.Errorf("unknown schema version %d", version))
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, appliedAt) VALUES (?, ?)",
		version, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return storeErr("record migration", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit migration", err)
	}
	return nil
}
