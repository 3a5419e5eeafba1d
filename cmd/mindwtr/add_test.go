package main

import (
	"testing"
	"time"
)

func TestParseQuickAdd(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	task, err := parseQuickAdd("Pay rent #finance @home", now)
	if err != nil {
		t.Fatalf("parseQuickAdd() failed: %v", err)
	}
	if task.Title != "Pay rent" {
		t.Errorf("title = %q, want markers stripped", task.Title)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "#finance" {
		t.Errorf("tags = %v", task.Tags)
	}
	if len(task.Contexts) != 1 || task.Contexts[0] != "@home" {
		t.Errorf("contexts = %v", task.Contexts)
	}
	if task.ID == "" {
		t.Error("task must get an id")
	}
	if task.CreatedAt != "2026-03-10T12:00:00Z" {
		t.Errorf("createdAt = %q", task.CreatedAt)
	}
}

func TestParseQuickAdd_NaturalLanguageDueDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	task, err := parseQuickAdd("Call the dentist tomorrow", now)
	if err != nil {
		t.Fatalf("parseQuickAdd() failed: %v", err)
	}
	if task.DueDate == nil {
		t.Fatal("expected a due date")
	}
	due, err := time.Parse(time.RFC3339, *task.DueDate)
	if err != nil {
		t.Fatalf("due date %q is not RFC 3339: %v", *task.DueDate, err)
	}
	if due.Day() != 11 || due.Month() != time.March {
		t.Errorf("due = %v, want March 11", due)
	}
	if task.Title != "Call the dentist" {
		t.Errorf("title = %q, want date expression stripped", task.Title)
	}
}

func TestParseQuickAdd_NoTitle(t *testing.T) {
	if _, err := parseQuickAdd("#just-a-tag", time.Now()); err == nil {
		t.Error("tag-only input should be rejected")
	}
}

func TestParseQuickAdd_BareMarkersStayInTitle(t *testing.T) {
	task, err := parseQuickAdd("Email # and @ review", time.Now())
	if err != nil {
		t.Fatalf("parseQuickAdd() failed: %v", err)
	}
	if task.Title != "Email # and @ review" {
		t.Errorf("title = %q, bare markers are not tags", task.Title)
	}
	if len(task.Tags) != 0 || len(task.Contexts) != 0 {
		t.Errorf("tags = %v, contexts = %v; want none", task.Tags, task.Contexts)
	}
}
