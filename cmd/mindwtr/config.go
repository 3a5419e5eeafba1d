package main

import (
	"fmt"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/seclution/Mindwtr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		fmt.Printf("Sync backend: %s\n", cfg.Backend())
		path, err := cfg.SyncDirPath()
		if err == nil {
			fmt.Printf("Sync folder:  %s\n", path)
		}
		if cfg.WebdavURL != nil {
			fmt.Printf("WebDAV:       %s", *cfg.WebdavURL)
			if cfg.WebdavUsername != nil {
				fmt.Printf(" (user %s)", *cfg.WebdavUsername)
			}
			fmt.Println()
		}
		if cfg.CloudURL != nil {
			fmt.Printf("Cloud:        %s\n", *cfg.CloudURL)
		}
		if cals := cfg.Calendars(); len(cals) > 0 {
			fmt.Printf("Calendars:    %d subscription(s)\n", len(cals))
		}
	},
}

var configBackendCmd = &cobra.Command{
	Use:   "backend <file|webdav|cloud>",
	Short: "Select the sync backend",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		backend, err := config.NormalizeBackend(args[0])
		if err != nil {
			fail("%v", err)
		}
		cfg := loadConfig()
		cfg.SyncBackend = &backend
		saveConfig(cfg)
		fmt.Printf("Sync backend set to %s\n", backend)
	},
}

var configSyncPathCmd = &cobra.Command{
	Use:   "sync-path <dir>",
	Short: "Set the sync folder location",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		cfg.SyncPath = &args[0]
		saveConfig(cfg)
		fmt.Printf("Sync folder set to %s\n", args[0])
	},
}

var configWebdavCmd = &cobra.Command{
	Use:   "webdav <url> <username>",
	Short: "Configure WebDAV credentials (prompts for the password)",
	Long: `Configure the WebDAV remote. The password is read from the
terminal and stored in the OS keyring; it never lands in a file unless
no keyring is available. Pass an empty URL ("") to clear the remote and
purge the stored password.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if args[0] == "" {
			if err := cfg.SetWebdav("", "", ""); err != nil {
				fail("%v", err)
			}
			saveConfig(cfg)
			fmt.Println("WebDAV credentials cleared")
			return
		}
		if len(args) != 2 {
			fail("username required")
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fail("reading password: %v", err)
		}

		if err := cfg.SetWebdav(args[0], args[1], string(password)); err != nil {
			fail("%v", err)
		}
		saveConfig(cfg)
		fmt.Printf("WebDAV remote set to %s\n", args[0])
	},
}

var configCloudCmd = &cobra.Command{
	Use:   "cloud <url>",
	Short: "Configure the cloud backend (prompts for the token)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if args[0] == "" {
			if err := cfg.SetCloud("", ""); err != nil {
				fail("%v", err)
			}
			saveConfig(cfg)
			fmt.Println("Cloud credentials cleared")
			return
		}

		fmt.Print("Token: ")
		token, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fail("reading token: %v", err)
		}

		if err := cfg.SetCloud(args[0], string(token)); err != nil {
			fail("%v", err)
		}
		saveConfig(cfg)
		fmt.Printf("Cloud remote set to %s\n", args[0])
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage external calendar subscriptions",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calendar subscriptions",
	Run: func(cmd *cobra.Command, args []string) {
		cals := loadConfig().Calendars()
		if len(cals) == 0 {
			fmt.Println("No calendar subscriptions")
			return
		}
		for _, cal := range cals {
			state := "enabled"
			if !cal.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s  %s (%s)\n    %s\n", cal.ID, cal.Name, state, cal.URL)
		}
	},
}

var calendarAddCmd = &cobra.Command{
	Use:   "add <url> [name]",
	Short: "Subscribe to an ICS calendar feed",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		cfg := loadConfig()
		cals := append(cfg.Calendars(), config.Calendar{
			ID:      uuid.NewString(),
			Name:    name,
			URL:     args[0],
			Enabled: true,
		})
		if err := cfg.SetCalendars(cals); err != nil {
			fail("%v", err)
		}
		saveConfig(cfg)
		fmt.Println("Calendar added")
	},
}

var calendarRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a calendar subscription",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		kept := []config.Calendar{}
		for _, cal := range cfg.Calendars() {
			if cal.ID != args[0] {
				kept = append(kept, cal)
			}
		}
		if err := cfg.SetCalendars(kept); err != nil {
			fail("%v", err)
		}
		saveConfig(cfg)
		fmt.Println("Calendar removed")
	},
}

func loadConfig() *config.Config {
	paths, err := appPaths()
	if err != nil {
		fail("%v", err)
	}
	cfg, err := newConfigManager(paths).Load()
	if err != nil {
		fail("loading config: %v", err)
	}
	return cfg
}

func saveConfig(cfg *config.Config) {
	paths, err := appPaths()
	if err != nil {
		fail("%v", err)
	}
	if err := newConfigManager(paths).Save(cfg); err != nil {
		fail("saving config: %v", err)
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configBackendCmd)
	configCmd.AddCommand(configSyncPathCmd)
	configCmd.AddCommand(configWebdavCmd)
	configCmd.AddCommand(configCloudCmd)
	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarAddCmd)
	calendarCmd.AddCommand(calendarRemoveCmd)
	configCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(configCmd)
}
