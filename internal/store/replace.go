package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/seclution/Mindwtr/internal/document"
)

// ReplaceAll atomically substitutes every row of every table with the
// contents of doc. This is the only write primitive: the dataset's entity
// types cross-reference each other without enforced foreign keys, so the
// only safe granularity is all-or-nothing.
//
// The search index is refreshed inside the same transaction, so it never
// observably diverges from the base tables. On any row-level failure the
// transaction rolls back and the previous data is left intact.
func (s *Store) ReplaceAll(ctx context.Context, doc *document.Document) error {
	d := doc.Clone()
	d.Normalize()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin replace", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tasks", "projects", "areas", "sections", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storeErr("clear "+table, err)
		}
	}

	for i := range d.Tasks {
		if err := insertTask(ctx, tx, &d.Tasks[i]); err != nil {
			return storeErr("insert task "+d.Tasks[i].ID, err)
		}
	}
	for i := range d.Projects {
		if err := insertProject(ctx, tx, &d.Projects[i]); err != nil {
			return storeErr("insert project "+d.Projects[i].ID, err)
		}
	}
	for i := range d.Areas {
		if err := insertArea(ctx, tx, &d.Areas[i]); err != nil {
			return storeErr("insert area "+d.Areas[i].ID, err)
		}
	}
	for i := range d.Sections {
		if err := insertSection(ctx, tx, &d.Sections[i]); err != nil {
			return storeErr("insert section "+d.Sections[i].ID, err)
		}
	}

	settingsJSON, err := json.Marshal(d.Settings)
	if err != nil {
		return storeErr("marshal settings", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO settings (id, data) VALUES (1, ?)", string(settingsJSON)); err != nil {
		return storeErr("insert settings", err)
	}

	// Post-mutation hook: the index mutates in the same transaction as the
	// base tables.
	if err := rebuildSearchIndexTx(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit replace", err)
	}
	return nil
}

// ReadAll exports the entire dataset, including soft-deleted entities.
// Rows come back in insertion order so a ReplaceAll/ReadAll round trip
// preserves sequence order.
func (s *Store) ReadAll(ctx context.Context) (*document.Document, error) {
	d := document.Empty()

	rows, err := s.conn.QueryContext(ctx, "SELECT "+taskCols+" FROM tasks ORDER BY rowid")
	if err != nil {
		return nil, storeErr("read tasks", err)
	}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scan task", err)
		}
		d.Tasks = append(d.Tasks, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, storeErr("read tasks", err)
	}

	rows, err = s.conn.QueryContext(ctx, "SELECT "+projectCols+" FROM projects ORDER BY rowid")
	if err != nil {
		return nil, storeErr("read projects", err)
	}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scan project", err)
		}
		d.Projects = append(d.Projects, p)
	}
	if err := closeRows(rows); err != nil {
		return nil, storeErr("read projects", err)
	}

	rows, err = s.conn.QueryContext(ctx, "SELECT "+sectionCols+" FROM sections ORDER BY rowid")
	if err != nil {
		return nil, storeErr("read sections", err)
	}
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scan section", err)
		}
		d.Sections = append(d.Sections, sec)
	}
	if err := closeRows(rows); err != nil {
		return nil, storeErr("read sections", err)
	}

	rows, err = s.conn.QueryContext(ctx, "SELECT "+areaCols+" FROM areas ORDER BY rowid")
	if err != nil {
		return nil, storeErr("read areas", err)
	}
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scan area", err)
		}
		d.Areas = append(d.Areas, a)
	}
	if err := closeRows(rows); err != nil {
		return nil, storeErr("read areas", err)
	}

	var settingsJSON sql.NullString
	err = s.conn.QueryRowContext(ctx, "SELECT data FROM settings WHERE id = 1").Scan(&settingsJSON)
	if err != nil && err != sql.ErrNoRows {
		return nil, storeErr("read settings", err)
	}
	if settingsJSON.Valid && settingsJSON.String != "" {
		var m map[string]any
		if jsonErr := json.Unmarshal([]byte(settingsJSON.String), &m); jsonErr == nil && m != nil {
			d.Settings = m
		}
	}

	return d, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
