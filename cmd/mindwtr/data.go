package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seclution/Mindwtr/internal/mirror"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Import and export the dataset",
}

var dataExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the full dataset to a JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, _, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		doc, err := engine.Load(context.Background())
		if err != nil {
			fail("loading dataset: %v", err)
		}
		if err := mirror.Write(args[0], doc); err != nil {
			fail("writing export: %v", err)
		}
		fmt.Printf("Exported %d tasks, %d projects to %s\n",
			len(doc.Tasks), len(doc.Projects), args[0])
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the dataset with the contents of a JSON file",
	Long: `Replace the entire dataset with the contents of a JSON file.

The previous dataset is still recoverable from the mirror's .bak
sibling until the next save.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := mirror.Read(args[0])
		if err != nil {
			fail("reading %s: %v", args[0], err)
		}

		engine, _, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		if err := engine.Save(context.Background(), doc); err != nil {
			fail("importing dataset: %v", err)
		}
		fmt.Printf("Imported %d tasks, %d projects from %s\n",
			len(doc.Tasks), len(doc.Projects), args[0])
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the resolved on-disk locations",
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := appPaths()
		if err != nil {
			fail("%v", err)
		}
		mgr := newConfigManager(paths)

		fmt.Printf("Config:   %s\n", mgr.ConfigPath())
		fmt.Printf("Secrets:  %s\n", mgr.SecretsPath())
		fmt.Printf("Database: %s\n", paths.DBFile())
		fmt.Printf("Mirror:   %s\n", paths.DataFile())

		if info, err := os.Stat(paths.DBFile()); err == nil {
			fmt.Printf("\nDatabase size: %d bytes, modified %s\n",
				info.Size(), info.ModTime().Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(pathsCmd)
}
