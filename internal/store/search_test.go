package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/seclution/Mindwtr/internal/document"
)

func searchFixture() *document.Document {
	groceries := minimalTask("task-groceries", document.StatusNext)
	groceries.Title = "Buy groceries"
	groceries.Tags = []string{"#errands"}
	groceries.Contexts = []string{"@town"}

	report := minimalTask("task-report", document.StatusNext)
	report.Title = "Draft report"
	report.Description = strp("quarterly figures for finance")

	gone := minimalTask("task-gone", document.StatusNext)
	gone.Title = "Buy groceries, old copy"
	gone.DeletedAt = strp("2026-01-15T00:00:00Z")

	doc := document.Empty()
	doc.Tasks = []document.Task{groceries, report, gone}
	doc.Projects = []document.Project{
		{
			ID:        "proj-groceries",
			Title:     "Grocery overhaul",
			Status:    "active",
			Color:     document.DefaultProjectColor,
			TagIDs:    []string{},
			CreatedAt: "2026-01-01T00:00:00Z",
			UpdatedAt: "2026-01-01T00:00:00Z",
		},
	}
	return doc
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceAll(ctx, searchFixture()); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	tests := []struct {
		name         string
		query        string
		wantTasks    []string
		wantProjects []string
	}{
		{"prefix match", "groc", []string{"task-groceries"}, []string{"proj-groceries"}},
		{"tag marker", "#errands", []string{"task-groceries"}, []string{}},
		{"context marker", "@town", []string{"task-groceries"}, []string{}},
		{"description text", "quarterly", []string{"task-report"}, []string{}},
		{"multiple terms narrow", "buy groc", []string{"task-groceries"}, []string{}},
		{"no match", "zzz", []string{}, []string{}},
		{"empty query", "", []string{}, []string{}},
		{"whitespace query", "   \t", []string{}, []string{}},
		{"punctuation only", "!?()", []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search(%q) failed: %v", tt.query, err)
			}
			if !sameSet(taskIDs(got.Tasks), tt.wantTasks) {
				t.Errorf("tasks = %v, want %v", taskIDs(got.Tasks), tt.wantTasks)
			}
			gotProjects := []string{}
			for _, p := range got.Projects {
				gotProjects = append(gotProjects, p.ID)
			}
			if !sameSet(gotProjects, tt.wantProjects) {
				t.Errorf("projects = %v, want %v", gotProjects, tt.wantProjects)
			}
		})
	}
}

func TestSearch_NeverReturnsSoftDeleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceAll(ctx, searchFixture()); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	got, err := s.Search(ctx, "groceries")
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	for _, task := range got.Tasks {
		if task.ID == "task-gone" {
			t.Error("soft-deleted task surfaced in search results")
		}
	}
}

// Open must notice a search index that no longer agrees with the base
// tables and rebuild it.
func TestOpen_ReconcilesSearchIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindwtr.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.ReplaceAll(ctx, searchFixture()); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		t.Fatalf("failed to open raw connection: %v", err)
	}
	if _, err := conn.Exec("DELETE FROM tasks_fts"); err != nil {
		t.Fatalf("failed to gut the search index: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("failed to close raw connection: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Search(ctx, "groceries")
	if err != nil {
		t.Fatalf("Search() after reconcile failed: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "task-groceries" {
		t.Errorf("search after reconcile = %v, want task-groceries", taskIDs(got.Tasks))
	}
}
