package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/seclution/Mindwtr/internal/document"
)

// The entity codec: conversion between document entities and flat rows.
//
// Rules, in both directions:
//   - optional scalars travel as NULL, never as empty strings
//   - embedded sub-documents (recurrence, checklist, attachments) are
//     stored as opaque JSON text and handed back verbatim
//   - ordered string sets (tags, contexts, tagIds) are always stored as a
//     JSON array, "[]" when empty, and always decode to a non-nil slice
//   - booleans are stored as 0/1 integers
//
// Unreadable blob or list text decodes to absent/empty instead of failing
// the whole row; a single corrupt cell must not make the dataset
// unreadable.

const taskCols = `id, title, status, priority, taskMode, startTime, dueDate, recurrence,
	pushCount, tags, contexts, checklist, description, attachments, location,
	projectId, sectionId, areaId, orderNum, isFocusedToday, timeEstimate,
	reviewAt, completedAt, createdAt, updatedAt, deletedAt, purgedAt, rev, revBy`

const projectCols = `id, title, status, color, orderNum, tagIds, isSequential, isFocused,
	supportNotes, attachments, reviewAt, areaId, areaTitle,
	createdAt, updatedAt, deletedAt, purgedAt, rev, revBy`

const areaCols = `id, name, color, icon, orderNum, createdAt, updatedAt, deletedAt, rev, revBy`

const sectionCols = `id, projectId, title, description, orderNum, isCollapsed,
	createdAt, updatedAt, deletedAt, rev, revBy`

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

func boolCol(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// blobCol serializes an opaque sub-document cell. Absent and literal-null
// blobs are stored as NULL so they stay absent after a round trip.
func blobCol(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 || string(raw) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func blobVal(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" || ns.String == "null" {
		return nil
	}
	if !json.Valid([]byte(ns.String)) {
		return nil
	}
	return json.RawMessage(ns.String)
}

// listCol serializes an ordered string set as a JSON array cell.
func listCol(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func listVal(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return []string{}
	}
	var ss []string
	if err := json.Unmarshal([]byte(ns.String), &ss); err != nil || ss == nil {
		return []string{}
	}
	return ss
}

func insertTask(ctx context.Context, tx *sql.Tx, t *document.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks (`+taskCols+`) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Status,
		nullStr(t.Priority), nullStr(t.TaskMode), nullStr(t.StartTime), nullStr(t.DueDate),
		blobCol(t.Recurrence), nullInt(t.PushCount),
		listCol(t.Tags), listCol(t.Contexts),
		blobCol(t.Checklist), nullStr(t.Description), blobCol(t.Attachments), nullStr(t.Location),
		nullStr(t.ProjectID), nullStr(t.SectionID), nullStr(t.AreaID), nullInt(t.OrderNum),
		boolCol(t.IsFocusedToday), nullStr(t.TimeEstimate),
		nullStr(t.ReviewAt), nullStr(t.CompletedAt),
		t.CreatedAt, t.UpdatedAt,
		nullStr(t.DeletedAt), nullStr(t.PurgedAt), nullInt(t.Rev), nullStr(t.RevBy),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (document.Task, error) {
	var (
		t document.Task

		priority, taskMode, startTime, dueDate sql.NullString
		recurrence, tags, contexts, checklist  sql.NullString
		description, attachments, location     sql.NullString
		projectID, sectionID, areaID           sql.NullString
		pushCount, orderNum, focused, rev      sql.NullInt64
		timeEstimate, reviewAt, completedAt    sql.NullString
		deletedAt, purgedAt, revBy             sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Status,
		&priority, &taskMode, &startTime, &dueDate,
		&recurrence, &pushCount,
		&tags, &contexts,
		&checklist, &description, &attachments, &location,
		&projectID, &sectionID, &areaID, &orderNum,
		&focused, &timeEstimate,
		&reviewAt, &completedAt,
		&t.CreatedAt, &t.UpdatedAt,
		&deletedAt, &purgedAt, &rev, &revBy,
	)
	if err != nil {
		return t, err
	}

	t.Priority = strPtr(priority)
	t.TaskMode = strPtr(taskMode)
	t.StartTime = strPtr(startTime)
	t.DueDate = strPtr(dueDate)
	t.Recurrence = blobVal(recurrence)
	t.PushCount = intPtr(pushCount)
	t.Tags = listVal(tags)
	t.Contexts = listVal(contexts)
	t.Checklist = blobVal(checklist)
	t.Description = strPtr(description)
	t.Attachments = blobVal(attachments)
	t.Location = strPtr(location)
	t.ProjectID = strPtr(projectID)
	t.SectionID = strPtr(sectionID)
	t.AreaID = strPtr(areaID)
	t.OrderNum = intPtr(orderNum)
	t.IsFocusedToday = focused.Valid && focused.Int64 != 0
	t.TimeEstimate = strPtr(timeEstimate)
	t.ReviewAt = strPtr(reviewAt)
	t.CompletedAt = strPtr(completedAt)
	t.DeletedAt = strPtr(deletedAt)
	t.PurgedAt = strPtr(purgedAt)
	t.Rev = intPtr(rev)
	t.RevBy = strPtr(revBy)

	return t, nil
}

func insertProject(ctx context.Context, tx *sql.Tx, p *document.Project) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects (`+projectCols+`) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Status, p.Color,
		nullInt(p.OrderNum), listCol(p.TagIDs),
		boolCol(p.IsSequential), boolCol(p.IsFocused),
		nullStr(p.SupportNotes), blobCol(p.Attachments), nullStr(p.ReviewAt),
		nullStr(p.AreaID), nullStr(p.AreaTitle),
		p.CreatedAt, p.UpdatedAt,
		nullStr(p.DeletedAt), nullStr(p.PurgedAt), nullInt(p.Rev), nullStr(p.RevBy),
	)
	return err
}

func scanProject(row rowScanner) (document.Project, error) {
	var (
		p document.Project

		orderNum, sequential, focused, rev sql.NullInt64
		tagIDs, supportNotes, attachments  sql.NullString
		reviewAt, areaID, areaTitle        sql.NullString
		deletedAt, purgedAt, revBy         sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Status, &p.Color,
		&orderNum, &tagIDs,
		&sequential, &focused,
		&supportNotes, &attachments, &reviewAt,
		&areaID, &areaTitle,
		&p.CreatedAt, &p.UpdatedAt,
		&deletedAt, &purgedAt, &rev, &revBy,
	)
	if err != nil {
		return p, err
	}

	p.OrderNum = intPtr(orderNum)
	p.TagIDs = listVal(tagIDs)
	p.IsSequential = sequential.Valid && sequential.Int64 != 0
	p.IsFocused = focused.Valid && focused.Int64 != 0
	p.SupportNotes = strPtr(supportNotes)
	p.Attachments = blobVal(attachments)
	p.ReviewAt = strPtr(reviewAt)
	p.AreaID = strPtr(areaID)
	p.AreaTitle = strPtr(areaTitle)
	p.DeletedAt = strPtr(deletedAt)
	p.PurgedAt = strPtr(purgedAt)
	p.Rev = intPtr(rev)
	p.RevBy = strPtr(revBy)

	return p, nil
}

func insertArea(ctx context.Context, tx *sql.Tx, a *document.Area) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO areas (`+areaCols+`) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, nullStr(a.Color), nullStr(a.Icon), a.OrderNum,
		nullStr(a.CreatedAt), nullStr(a.UpdatedAt), nullStr(a.DeletedAt),
		nullInt(a.Rev), nullStr(a.RevBy),
	)
	return err
}

func scanArea(row rowScanner) (document.Area, error) {
	var (
		a document.Area

		color, icon, createdAt, updatedAt sql.NullString
		deletedAt, revBy                  sql.NullString
		rev                               sql.NullInt64
	)

	err := row.Scan(
		&a.ID, &a.Name, &color, &icon, &a.OrderNum,
		&createdAt, &updatedAt, &deletedAt, &rev, &revBy,
	)
	if err != nil {
		return a, err
	}

	a.Color = strPtr(color)
	a.Icon = strPtr(icon)
	a.CreatedAt = strPtr(createdAt)
	a.UpdatedAt = strPtr(updatedAt)
	a.DeletedAt = strPtr(deletedAt)
	a.Rev = intPtr(rev)
	a.RevBy = strPtr(revBy)

	return a, nil
}

func insertSection(ctx context.Context, tx *sql.Tx, sec *document.Section) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sections (`+sectionCols+`) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sec.ID, sec.ProjectID, sec.Title,
		nullStr(sec.Description), nullInt(sec.OrderNum), boolCol(sec.IsCollapsed),
		nullStr(sec.CreatedAt), nullStr(sec.UpdatedAt), nullStr(sec.DeletedAt),
		nullInt(sec.Rev), nullStr(sec.RevBy),
	)
	return err
}

func scanSection(row rowScanner) (document.Section, error) {
	var (
		sec document.Section

		description, createdAt, updatedAt sql.NullString
		deletedAt, revBy                  sql.NullString
		orderNum, collapsed, rev          sql.NullInt64
	)

	err := row.Scan(
		&sec.ID, &sec.ProjectID, &sec.Title,
		&description, &orderNum, &collapsed,
		&createdAt, &updatedAt, &deletedAt, &rev, &revBy,
	)
	if err != nil {
		return sec, err
	}

	sec.Description = strPtr(description)
	sec.OrderNum = intPtr(orderNum)
	sec.IsCollapsed = collapsed.Valid && collapsed.Int64 != 0
	sec.CreatedAt = strPtr(createdAt)
	sec.UpdatedAt = strPtr(updatedAt)
	sec.DeletedAt = strPtr(deletedAt)
	sec.Rev = intPtr(rev)
	sec.RevBy = strPtr(revBy)

	return sec, nil
}
