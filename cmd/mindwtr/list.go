package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seclution/Mindwtr/internal/document"
	"github.com/seclution/Mindwtr/internal/store"
)

var (
	listStatus          string
	listProject         string
	listExclude         []string
	listIncludeDeleted  bool
	listIncludeArchived bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks from the canonical store.

By default soft-deleted and archived tasks are hidden. Passing an
explicit --status shows exactly that status, archived included.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, _, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		filter := store.Filter{
			Status:          listStatus,
			ProjectID:       listProject,
			ExcludeStatuses: listExclude,
			IncludeDeleted:  listIncludeDeleted,
			IncludeArchived: listIncludeArchived,
		}
		tasks, err := engine.Store().Query(context.Background(), filter)
		if err != nil {
			fail("querying tasks: %v", err)
		}

		if len(tasks) == 0 {
			fmt.Println("No matching tasks")
			return
		}
		for _, task := range tasks {
			printTask(task)
		}
		fmt.Printf("\n%d task(s)\n", len(tasks))
	},
}

func printTask(task document.Task) {
	line := fmt.Sprintf("[%s] %s", task.Status, task.Title)
	var extras []string
	if task.DueDate != nil {
		extras = append(extras, "due "+*task.DueDate)
	}
	if len(task.Tags) > 0 {
		extras = append(extras, strings.Join(task.Tags, " "))
	}
	if len(task.Contexts) > 0 {
		extras = append(extras, strings.Join(task.Contexts, " "))
	}
	if len(extras) > 0 {
		line += "  (" + strings.Join(extras, ", ") + ")"
	}
	fmt.Println(line)
	fmt.Printf("    id: %s\n", task.ID)
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", `filter by status ("all" for every status)`)
	listCmd.Flags().StringVarP(&listProject, "project", "p", "", "filter by project id")
	listCmd.Flags().StringSliceVar(&listExclude, "exclude", nil, "statuses to exclude")
	listCmd.Flags().BoolVar(&listIncludeDeleted, "deleted", false, "include soft-deleted tasks")
	listCmd.Flags().BoolVar(&listIncludeArchived, "archived", false, "include archived tasks")
	rootCmd.AddCommand(listCmd)
}
