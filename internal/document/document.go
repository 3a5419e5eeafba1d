// Package document defines the in-memory model for the Mindwtr dataset.
//
// A Document is the unit of exchange between the relational store, the
// JSON mirror file, and the sync directory: the whole dataset travels as
// one value. Entities keep their timestamps as verbatim RFC 3339 strings
// because the merge layer above this one stamps them and expects to read
// back exactly what it wrote.
package document

import "encoding/json"

// Task statuses known to the UI. The set is open: the store accepts any
// status string, these are just the values the queries special-case.
const (
	StatusInbox     = "inbox"
	StatusNext      = "next"
	StatusWaiting   = "waiting"
	StatusScheduled = "scheduled"
	StatusSomeday   = "someday"
	StatusCompleted = "completed"
	StatusArchived  = "archived"

	// StatusAll is a query pseudo-status meaning "no status constraint".
	StatusAll = "all"
)

// DefaultProjectColor is the neutral gray assigned to projects that
// arrive without a color.
const DefaultProjectColor = "#6B7280"

// Task is a single to-do item. Structured sub-documents (recurrence,
// checklist, attachments) are carried opaquely so unknown shapes survive
// a round trip through the store.
type Task struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Status         string          `json:"status"`
	Priority       *string         `json:"priority,omitempty"`
	TaskMode       *string         `json:"taskMode,omitempty"`
	StartTime      *string         `json:"startTime,omitempty"`
	DueDate        *string         `json:"dueDate,omitempty"`
	Recurrence     json.RawMessage `json:"recurrence,omitempty"`
	PushCount      *int64          `json:"pushCount,omitempty"`
	Tags           []string        `json:"tags"`
	Contexts       []string        `json:"contexts"`
	Checklist      json.RawMessage `json:"checklist,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Attachments    json.RawMessage `json:"attachments,omitempty"`
	Location       *string         `json:"location,omitempty"`
	ProjectID      *string         `json:"projectId,omitempty"`
	SectionID      *string         `json:"sectionId,omitempty"`
	AreaID         *string         `json:"areaId,omitempty"`
	OrderNum       *int64          `json:"orderNum,omitempty"`
	IsFocusedToday bool            `json:"isFocusedToday,omitempty"`
	TimeEstimate   *string         `json:"timeEstimate,omitempty"`
	ReviewAt       *string         `json:"reviewAt,omitempty"`
	CompletedAt    *string         `json:"completedAt,omitempty"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	DeletedAt      *string         `json:"deletedAt,omitempty"`
	PurgedAt       *string         `json:"purgedAt,omitempty"`
	Rev            *int64          `json:"rev,omitempty"`
	RevBy          *string         `json:"revBy,omitempty"`
}

// Project groups tasks. AreaTitle is denormalized from the owning area so
// project lists render without a join.
type Project struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	Color        string          `json:"color"`
	OrderNum     *int64          `json:"orderNum,omitempty"`
	TagIDs       []string        `json:"tagIds"`
	IsSequential bool            `json:"isSequential,omitempty"`
	IsFocused    bool            `json:"isFocused,omitempty"`
	SupportNotes *string         `json:"supportNotes,omitempty"`
	Attachments  json.RawMessage `json:"attachments,omitempty"`
	ReviewAt     *string         `json:"reviewAt,omitempty"`
	AreaID       *string         `json:"areaId,omitempty"`
	AreaTitle    *string         `json:"areaTitle,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
	DeletedAt    *string         `json:"deletedAt,omitempty"`
	PurgedAt     *string         `json:"purgedAt,omitempty"`
	Rev          *int64          `json:"rev,omitempty"`
	RevBy        *string         `json:"revBy,omitempty"`
}

// Area is a top-level grouping of projects and loose tasks.
// The JSON key for its sort position is "order" for compatibility with
// the legacy data files; the relational column is orderNum.
type Area struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	OrderNum  int64   `json:"order"`
	CreatedAt *string `json:"createdAt,omitempty"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
	DeletedAt *string `json:"deletedAt,omitempty"`
	Rev       *int64  `json:"rev,omitempty"`
	RevBy     *string `json:"revBy,omitempty"`
}

// Section is a named slice of a project's task list. It is owned by
// exactly one project; the reference is informational, not enforced.
type Section struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	OrderNum    *int64  `json:"orderNum,omitempty"`
	IsCollapsed bool    `json:"isCollapsed,omitempty"`
	CreatedAt   *string `json:"createdAt,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
	DeletedAt   *string `json:"deletedAt,omitempty"`
	Rev         *int64  `json:"rev,omitempty"`
	RevBy       *string `json:"revBy,omitempty"`
}

// Document is the whole dataset. Settings is a free-form map owned by the
// UI; this layer only guarantees it is never nil.
type Document struct {
	Tasks    []Task         `json:"tasks"`
	Projects []Project      `json:"projects"`
	Sections []Section      `json:"sections"`
	Areas    []Area         `json:"areas"`
	Settings map[string]any `json:"settings"`
}

// Empty returns a normalized document with no entities.
func Empty() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize fills in the shapes callers are promised: top-level sequences
// and settings are never nil, required per-entity fields get their
// documented defaults, and list-valued fields are never nil so they
// serialize as [] instead of null.
func (d *Document) Normalize() {
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Sections == nil {
		d.Sections = []Section{}
	}
	if d.Areas == nil {
		d.Areas = []Area{}
	}
	if d.Settings == nil {
		d.Settings = map[string]any{}
	}
	for i := range d.Tasks {
		t := &d.Tasks[i]
		if t.Status == "" {
			t.Status = StatusInbox
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if t.Contexts == nil {
			t.Contexts = []string{}
		}
	}
	for i := range d.Projects {
		p := &d.Projects[i]
		if p.Status == "" {
			p.Status = "active"
		}
		if p.Color == "" {
			p.Color = DefaultProjectColor
		}
		if p.TagIDs == nil {
			p.TagIDs = []string{}
		}
	}
}

// Clone returns a structural copy of the document: slices, raw blobs and
// the settings map are duplicated, so appending to or reordering the copy
// never disturbs the original.
func (d *Document) Clone() *Document {
	out := &Document{
		Tasks:    make([]Task, len(d.Tasks)),
		Projects: make([]Project, len(d.Projects)),
		Sections: make([]Section, len(d.Sections)),
		Areas:    make([]Area, len(d.Areas)),
		Settings: make(map[string]any, len(d.Settings)),
	}
	copy(out.Tasks, d.Tasks)
	copy(out.Projects, d.Projects)
	copy(out.Sections, d.Sections)
	copy(out.Areas, d.Areas)
	for i := range out.Tasks {
		t := &out.Tasks[i]
		t.Tags = append([]string(nil), t.Tags...)
		t.Contexts = append([]string(nil), t.Contexts...)
		t.Recurrence = append(json.RawMessage(nil), t.Recurrence...)
		t.Checklist = append(json.RawMessage(nil), t.Checklist...)
		t.Attachments = append(json.RawMessage(nil), t.Attachments...)
	}
	for i := range out.Projects {
		p := &out.Projects[i]
		p.TagIDs = append([]string(nil), p.TagIDs...)
		p.Attachments = append(json.RawMessage(nil), p.Attachments...)
	}
	for k, v := range d.Settings {
		out.Settings[k] = v
	}
	return out
}
