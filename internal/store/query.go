package store

import (
	"context"
	"strings"

	"github.com/seclution/Mindwtr/internal/document"
)

// Filter configures a Query. The zero value returns every task that is
// neither soft-deleted nor archived.
type Filter struct {
	// Status restricts to one exact status. Empty or document.StatusAll
	// adds no constraint. Naming any other status also lifts the default
	// archived exclusion, so Status: "archived" does what it says.
	Status string
	// ExcludeStatuses removes tasks whose status is in the set.
	ExcludeStatuses []string
	// ProjectID restricts to tasks of one project (soft reference).
	ProjectID string
	// IncludeDeleted also returns soft-deleted tasks.
	IncludeDeleted bool
	// IncludeArchived lifts the default archived-status exclusion.
	IncludeArchived bool
}

// Query returns the tasks matching the filter, ordered by their manual
// sort position and then by creation time. All clauses AND together.
func (s *Store) Query(ctx context.Context, f Filter) ([]document.Task, error) {
	var conditions []string
	var args []any

	if !f.IncludeDeleted {
		conditions = append(conditions, "deletedAt IS NULL")
	}

	explicit := f.Status != "" && f.Status != document.StatusAll
	if explicit {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	} else if !f.IncludeArchived {
		conditions = append(conditions, "status != ?")
		args = append(args, document.StatusArchived)
	}

	for _, status := range f.ExcludeStatuses {
		conditions = append(conditions, "status != ?")
		args = append(args, status)
	}

	if f.ProjectID != "" {
		conditions = append(conditions, "projectId = ?")
		args = append(args, f.ProjectID)
	}

	query := "SELECT " + taskCols + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY orderNum IS NULL, orderNum ASC, createdAt ASC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query tasks", err)
	}
	defer rows.Close()

	tasks := []document.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeErr("scan task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query tasks", err)
	}
	return tasks, nil
}
