package store

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/seclution/Mindwtr/internal/document"
)

// SearchResults holds the entities matched by a full-text query.
type SearchResults struct {
	Tasks    []document.Task
	Projects []document.Project
}

// Search runs a prefix full-text search over tasks and projects. The
// input is tokenized on everything except alphanumerics and the '#'/'@'
// marker characters; each surviving token must match as a prefix. Input
// with no extractable tokens returns empty results, not an error and not
// every row. Soft-deleted entities never match.
func (s *Store) Search(ctx context.Context, text string) (SearchResults, error) {
	results := SearchResults{
		Tasks:    []document.Task{},
		Projects: []document.Project{},
	}

	match := ftsQuery(text)
	if match == "" {
		return results, nil
	}

	rows, err := s.conn.QueryContext(ctx, "SELECT "+taskCols+` FROM tasks
		WHERE deletedAt IS NULL
		  AND id IN (SELECT id FROM tasks_fts WHERE tasks_fts MATCH ?)
		ORDER BY rowid`, match)
	if err != nil {
		return results, storeErr("search tasks", err)
	}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return results, storeErr("scan task", err)
		}
		results.Tasks = append(results.Tasks, t)
	}
	if err := closeRows(rows); err != nil {
		return results, storeErr("search tasks", err)
	}

	rows, err = s.conn.QueryContext(ctx, "SELECT "+projectCols+` FROM projects
		WHERE deletedAt IS NULL
		  AND id IN (SELECT id FROM projects_fts WHERE projects_fts MATCH ?)
		ORDER BY rowid`, match)
	if err != nil {
		return results, storeErr("search projects", err)
	}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return results, storeErr("scan project", err)
		}
		results.Projects = append(results.Projects, p)
	}
	if err := closeRows(rows); err != nil {
		return results, storeErr("search projects", err)
	}

	return results, nil
}

// tokenize splits free text into search tokens. Alphanumerics and the
// '#'/'@' markers used for tags and contexts survive; everything else is
// a separator. Empty tokens are discarded by FieldsFunc.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '@'
	})
}

// ftsQuery turns free text into an FTS5 match expression of quoted prefix
// terms, e.g. `buy #err` -> `"buy"* "#err"*`. Quoting keeps FTS5 from
// interpreting marker characters as query syntax. Returns "" when the
// input yields no tokens.
func ftsQuery(text string) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, `"`+strings.ReplaceAll(tok, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}

// rebuildSearchIndexTx drops and repopulates both FTS tables from the
// base tables. Runs inside the caller's transaction so a replace and its
// index refresh commit or roll back together. Soft-deleted rows are
// excluded: the index holds exactly the live entities.
func rebuildSearchIndexTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks_fts"); err != nil {
		return storeErr("clear tasks_fts", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects_fts"); err != nil {
		return storeErr("clear projects_fts", err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks_fts (id, title, description, tags, contexts)
		SELECT id, title, COALESCE(description, ''), COALESCE(tags, ''), COALESCE(contexts, '')
		FROM tasks WHERE deletedAt IS NULL`)
	if err != nil {
		return storeErr("populate tasks_fts", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects_fts (id, title, supportNotes, tagIds, areaTitle)
		SELECT id, title, COALESCE(supportNotes, ''), COALESCE(tagIds, ''), COALESCE(areaTitle, '')
		FROM projects WHERE deletedAt IS NULL`)
	if err != nil {
		return storeErr("populate projects_fts", err)
	}

	return nil
}

// reconcileSearchIndex is the open-time safety net: if the index and the
// base tables disagree in either direction, rebuild the index wholesale
// before trusting it. A database written by an older build, or one whose
// last transaction predated the index tables, heals here.
func (s *Store) reconcileSearchIndex(ctx context.Context) error {
	consistent, err := s.searchIndexConsistent(ctx)
	if err != nil {
		return err
	}
	if consistent {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin index rebuild", err)
	}
	defer tx.Rollback()

	if err := rebuildSearchIndexTx(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit index rebuild", err)
	}
	return nil
}

func (s *Store) searchIndexConsistent(ctx context.Context) (bool, error) {
	checks := []string{
		`SELECT COUNT(*) FROM tasks
		 WHERE deletedAt IS NULL AND id NOT IN (SELECT id FROM tasks_fts)`,
		`SELECT COUNT(*) FROM tasks_fts
		 WHERE id NOT IN (SELECT id FROM tasks WHERE deletedAt IS NULL)`,
		`SELECT COUNT(*) FROM projects
		 WHERE deletedAt IS NULL AND id NOT IN (SELECT id FROM projects_fts)`,
		`SELECT COUNT(*) FROM projects_fts
		 WHERE id NOT IN (SELECT id FROM projects WHERE deletedAt IS NULL)`,
	}
	for _, check := range checks {
		var n int
		if err := s.conn.QueryRowContext(ctx, check).Scan(&n); err != nil {
			return false, storeErr("check search index", err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}
