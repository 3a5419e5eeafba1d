package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Full-text search over tasks and projects",
	Long: `Search task titles, descriptions, tags and contexts, and project
titles and notes. Every word must match as a prefix; #tag and @context
markers are matched literally.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, _, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		results, err := engine.Store().Search(context.Background(), strings.Join(args, " "))
		if err != nil {
			fail("searching: %v", err)
		}

		if len(results.Tasks) == 0 && len(results.Projects) == 0 {
			fmt.Println("No matches")
			return
		}
		for _, task := range results.Tasks {
			printTask(task)
		}
		for _, proj := range results.Projects {
			fmt.Printf("[project] %s\n    id: %s\n", proj.Title, proj.ID)
		}
		fmt.Printf("\n%d task(s), %d project(s)\n", len(results.Tasks), len(results.Projects))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
