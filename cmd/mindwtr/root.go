package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seclution/Mindwtr/internal/config"
	"github.com/seclution/Mindwtr/internal/secrets"
	"github.com/seclution/Mindwtr/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "mindwtr",
	Short: "Local-first task data store and sync",
	Long: `mindwtr manages the on-disk dataset of the Mindwtr task manager:
a canonical SQLite database with a JSON mirror, plus sync through a
shared folder replicated by an external agent (Syncthing, Dropbox,
a network mount).

Locations default to the platform conventions and can be overridden
with --config-dir / --data-dir or MINDWTR_CONFIG_DIR / MINDWTR_DATA_DIR.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", "", "override the config directory")
	rootCmd.PersistentFlags().String("data-dir", "", "override the data directory")

	viper.SetEnvPrefix("MINDWTR")
	viper.BindPFlag("config-dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindEnv("config-dir", "MINDWTR_CONFIG_DIR")
	viper.BindEnv("data-dir", "MINDWTR_DATA_DIR")
}

// appPaths resolves the installation directories, applying flag and
// environment overrides on top of the platform defaults.
func appPaths() (storage.Paths, error) {
	paths, err := storage.DefaultPaths()
	if err != nil {
		return storage.Paths{}, fmt.Errorf("failed to resolve default paths: %w", err)
	}
	if dir := viper.GetString("config-dir"); dir != "" {
		paths.ConfigDir = dir
	}
	if dir := viper.GetString("data-dir"); dir != "" {
		paths.DataDir = dir
	}
	return paths, nil
}

func newConfigManager(paths storage.Paths) *config.Manager {
	return config.NewManager(paths.ConfigDir, secrets.NewKeyring(), nil)
}

// openEngine bootstraps the on-disk layout and opens the storage engine.
func openEngine() (*storage.Engine, storage.Paths, error) {
	paths, err := appPaths()
	if err != nil {
		return nil, storage.Paths{}, err
	}
	if err := storage.Bootstrap(paths, newConfigManager(paths)); err != nil {
		return nil, storage.Paths{}, err
	}
	engine, err := storage.Open(paths, nil)
	if err != nil {
		return nil, storage.Paths{}, err
	}
	return engine, paths, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
