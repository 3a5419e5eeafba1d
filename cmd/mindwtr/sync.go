package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seclution/Mindwtr/internal/config"
	"github.com/seclution/Mindwtr/internal/storage"
	"github.com/seclution/Mindwtr/internal/syncdir"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange the dataset through the sync folder",
	Long: `Exchange the dataset through a shared folder that an external
agent (Syncthing, Dropbox, a network mount) replicates across devices.

The folder location comes from the configured sync path, defaulting to
~/Sync/mindwtr.`,
}

// openSyncDir resolves and validates the configured sync directory.
func openSyncDir(paths storage.Paths) (*syncdir.Dir, error) {
	cfg, err := newConfigManager(paths).Load()
	if err != nil {
		return nil, err
	}
	if backend := cfg.Backend(); backend != config.BackendFile {
		return nil, fmt.Errorf("sync backend is %q; folder sync requires the file backend", backend)
	}
	path, err := cfg.SyncDirPath()
	if err != nil {
		return nil, err
	}
	return syncdir.Open(path, nil)
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Write the local dataset to the sync folder",
	Run: func(cmd *cobra.Command, args []string) {
		engine, paths, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		dir, err := openSyncDir(paths)
		if err != nil {
			fail("%v", err)
		}

		doc, err := engine.Load(context.Background())
		if err != nil {
			fail("loading dataset: %v", err)
		}
		if err := dir.Push(doc); err != nil {
			fail("pushing: %v", err)
		}
		fmt.Printf("Pushed %d tasks to %s\n", len(doc.Tasks), dir.FilePath())
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local dataset with the sync folder's copy",
	Long: `Replace the local dataset with the sync folder's copy.

Conflict resolution between devices happens in the app's merge layer;
this command takes the folder's document as-is. The previous local
dataset remains in the mirror's .bak sibling until the next save.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, paths, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		dir, err := openSyncDir(paths)
		if err != nil {
			fail("%v", err)
		}

		doc, err := dir.Pull()
		if err != nil {
			fail("pulling: %v", err)
		}
		if err := engine.Save(context.Background(), doc); err != nil {
			fail("saving pulled dataset: %v", err)
		}
		fmt.Printf("Pulled %d tasks from %s\n", len(doc.Tasks), dir.Path())
	},
}

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the sync folder and pull on every remote change",
	Run: func(cmd *cobra.Command, args []string) {
		engine, paths, err := openEngine()
		if err != nil {
			fail("%v", err)
		}
		defer engine.Close()

		dir, err := openSyncDir(paths)
		if err != nil {
			fail("%v", err)
		}

		watcher, err := syncdir.NewWatcher(dir)
		if err != nil {
			fail("%v", err)
		}
		if err := watcher.Start(); err != nil {
			fail("%v", err)
		}
		defer watcher.Stop()

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", dir.Path())

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case ev := <-watcher.Events():
				if ev.Op != syncdir.OpReplaced {
					continue
				}
				doc, err := dir.Pull()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Pull failed: %v\n", err)
					continue
				}
				if err := engine.Save(context.Background(), doc); err != nil {
					fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
					continue
				}
				fmt.Printf("Pulled %d tasks\n", len(doc.Tasks))
			case err := <-watcher.Errors():
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			case <-sigs:
				fmt.Println("\nStopping")
				return
			}
		}
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync folder state",
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := appPaths()
		if err != nil {
			fail("%v", err)
		}
		cfg, err := newConfigManager(paths).Load()
		if err != nil {
			fail("%v", err)
		}

		fmt.Printf("Backend: %s\n", cfg.Backend())
		path, err := cfg.SyncDirPath()
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("Folder:  %s\n", path)

		dir, err := syncdir.Open(path, nil)
		if err != nil {
			fail("%v", err)
		}
		info, err := os.Stat(dir.FilePath())
		if os.IsNotExist(err) {
			fmt.Println("Payload: never pushed")
			return
		}
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("Payload: %d bytes, modified %s\n",
			info.Size(), info.ModTime().Format("2006-01-02 15:04:05"))
	},
}

func init() {
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncWatchCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
