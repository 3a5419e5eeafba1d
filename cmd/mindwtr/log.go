package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seclution/Mindwtr/internal/applog"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage the application log",
}

func openAppLog() *applog.Log {
	paths, err := appPaths()
	if err != nil {
		fail("%v", err)
	}
	return applog.New(paths.DataDir)
}

var logPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the log file location",
	Run: func(cmd *cobra.Command, args []string) {
		l := openAppLog()
		defer l.Close()
		fmt.Println(l.Path())
	},
}

var logAppendCmd = &cobra.Command{
	Use:   "append <line>",
	Short: "Append a line to the application log",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := openAppLog()
		defer l.Close()
		if _, err := l.Append(strings.Join(args, " ")); err != nil {
			fail("%v", err)
		}
	},
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Truncate the application log",
	Run: func(cmd *cobra.Command, args []string) {
		l := openAppLog()
		defer l.Close()
		path, err := l.Clear()
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("Cleared %s\n", path)
	},
}

func init() {
	logCmd.AddCommand(logPathCmd)
	logCmd.AddCommand(logAppendCmd)
	logCmd.AddCommand(logClearCmd)
	rootCmd.AddCommand(logCmd)
}
