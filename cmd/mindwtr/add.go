package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/seclution/Mindwtr/internal/document"
)

var (
	addStatus  string
	addProject string
)

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Quick-add a task",
	Long: `Add a task from free text.

Words starting with # become tags and words starting with @ become
contexts. A recognized natural-language date ("tomorrow", "next friday
5pm") becomes the due date and is removed from the title:

  mindwtr add Pay rent tomorrow #finance @home`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := parseQuickAdd(strings.Join(args, " "), time.Now())
		if err != nil {
			fail("%v", err)
		}
		task.Status = addStatus
		if addProject != "" {
			task.ProjectID = &addProject
		}

		engine, _, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		ctx := context.Background()
		doc, err := engine.Load(ctx)
		if err != nil {
			fail("loading dataset: %v", err)
		}
		doc.Tasks = append(doc.Tasks, task)
		if err := engine.Save(ctx, doc); err != nil {
			fail("saving dataset: %v", err)
		}

		fmt.Printf("Added %q (%s)\n", task.Title, task.ID)
		if task.DueDate != nil {
			fmt.Printf("   due %s\n", *task.DueDate)
		}
	},
}

// parseQuickAdd turns free text into a task: #words become tags, @words
// become contexts, and a natural-language date expression becomes the
// due date. What remains is the title.
func parseQuickAdd(text string, now time.Time) (document.Task, error) {
	task := document.Task{
		ID:        uuid.NewString(),
		Tags:      []string{},
		Contexts:  []string{},
		CreatedAt: now.UTC().Format(time.RFC3339),
		UpdatedAt: now.UTC().Format(time.RFC3339),
	}

	var titleWords []string
	for _, word := range strings.Fields(text) {
		switch {
		case len(word) > 1 && strings.HasPrefix(word, "#"):
			task.Tags = append(task.Tags, word)
		case len(word) > 1 && strings.HasPrefix(word, "@"):
			task.Contexts = append(task.Contexts, word)
		default:
			titleWords = append(titleWords, word)
		}
	}
	title := strings.Join(titleWords, " ")

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if r, err := w.Parse(title, now); err == nil && r != nil {
		due := r.Time.UTC().Format(time.RFC3339)
		task.DueDate = &due
		title = strings.TrimSpace(title[:r.Index] + title[r.Index+len(r.Text):])
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return document.Task{}, fmt.Errorf("task has no title after extracting markers and dates")
	}
	task.Title = title
	return task, nil
}

func init() {
	addCmd.Flags().StringVarP(&addStatus, "status", "s", document.StatusInbox, "initial status")
	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "project id to file the task under")
	rootCmd.AddCommand(addCmd)
}
