package mirror

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/seclution/Mindwtr/internal/document"
)

func strp(s string) *string { return &s }

func testDocument() *document.Document {
	doc := &document.Document{
		Tasks: []document.Task{
			{
				ID:        "task-1",
				Title:     "Water plants",
				Status:    document.StatusNext,
				Tags:      []string{"#home"},
				Contexts:  []string{},
				DueDate:   strp("2026-04-01T08:00:00Z"),
				CreatedAt: "2026-03-01T00:00:00Z",
				UpdatedAt: "2026-03-01T00:00:00Z",
			},
		},
		Areas: []document.Area{
			{ID: "area-1", Name: "Home", OrderNum: 3},
		},
		Settings: map[string]any{"theme": "light"},
	}
	doc.Normalize()
	return doc
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	want := testDocument()

	if err := Write(path, want); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestWrite_AreaOrderKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := Write(path, testDocument()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	var raw struct {
		Areas []map[string]any `json:"areas"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if len(raw.Areas) != 1 {
		t.Fatalf("areas = %v, want one entry", raw.Areas)
	}
	if _, ok := raw.Areas[0]["order"]; !ok {
		t.Errorf("area sort position must serialize under the key %q, got keys %v", "order", raw.Areas[0])
	}
}

func TestParse(t *testing.T) {
	valid := `{"tasks":[{"id":"t1","title":"A","status":"inbox","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}],"projects":[],"sections":[],"areas":[],"settings":{}}`

	tests := []struct {
		name      string
		input     string
		wantTasks int
		wantErr   bool
	}{
		{"valid", valid, 1, false},
		{"empty file", "", 0, false},
		{"only whitespace", "  \n\t ", 0, false},
		{"leading BOM", "\xEF\xBB\xBF" + valid, 1, false},
		{"trailing NUL padding", valid + "\x00\x00\x00\x00", 1, false},
		{"trailing garbage after document", valid + `{"tasks":[{"id":`, 1, false},
		{"log line before document", "sync agent was here\n" + valid, 1, false},
		{"torn mid-document", valid[:40], 0, true},
		{"not JSON at all", "definitely not json", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() should have failed")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			if len(doc.Tasks) != tt.wantTasks {
				t.Errorf("tasks = %d, want %d", len(doc.Tasks), tt.wantTasks)
			}
			if doc.Projects == nil || doc.Settings == nil {
				t.Error("parsed document must be normalized")
			}
		})
	}
}

func TestParse_MissingKeysNormalized(t *testing.T) {
	doc, err := Parse([]byte(`{"tasks":[{"id":"t1","title":"A","createdAt":"x","updatedAt":"x"}]}`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if doc.Tasks[0].Status != document.StatusInbox {
		t.Errorf("status = %q, want default %q", doc.Tasks[0].Status, document.StatusInbox)
	}
	if doc.Tasks[0].Tags == nil || doc.Tasks[0].Contexts == nil {
		t.Error("list fields must never be nil after parse")
	}
	if doc.Projects == nil || doc.Sections == nil || doc.Areas == nil || doc.Settings == nil {
		t.Error("missing top-level keys must be synthesized")
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("Read() of a missing file should fail")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		t.Error("a missing file is an I/O error, not a parse error")
	}
}

func TestRead_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("%%%%"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if parseErr.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", parseErr.Path, path)
	}
}

func TestWrite_KeepsBackupOfPreviousContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	first := testDocument()
	if err := Write(path, first); err != nil {
		t.Fatalf("first Write() failed: %v", err)
	}
	if _, err := os.Stat(BackupPath(path)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no backup expected before a second write, stat err = %v", err)
	}

	second := document.Empty()
	if err := Write(path, second); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	bak, err := Read(BackupPath(path))
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if !reflect.DeepEqual(bak, first) {
		t.Errorf("backup = %+v, want the first write's contents", bak)
	}

	cur, err := Read(path)
	if err != nil {
		t.Fatalf("failed to read current file: %v", err)
	}
	if len(cur.Tasks) != 0 {
		t.Errorf("current file = %+v, want the second write's contents", cur)
	}
}

func TestWrite_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := Write(path, testDocument()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind, stat err = %v", err)
	}
}

func TestWrite_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "data.json")
	if err := Write(path, document.Empty()); err != nil {
		t.Fatalf("Write() into missing directories failed: %v", err)
	}
	if _, err := Read(path); err != nil {
		t.Fatalf("Read() back failed: %v", err)
	}
}
