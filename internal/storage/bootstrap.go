package storage

import (
	"fmt"
	"os"

	"github.com/seclution/Mindwtr/internal/config"
	"github.com/seclution/Mindwtr/internal/document"
	"github.com/seclution/Mindwtr/internal/mirror"
)

// Bootstrap brings a fresh or legacy installation up to the current
// on-disk layout: directories exist, the legacy config.json (if any) has
// been folded into config.toml, and a data.json mirror is in place —
// recovered from whichever legacy location still has one, or seeded
// empty. Safe to run on every start.
func Bootstrap(paths Paths, mgr *config.Manager) error {
	if err := os.MkdirAll(paths.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	legacyDataFile, err := mgr.MigrateLegacy(paths.LegacyConfigFile())
	if err != nil {
		return err
	}

	if _, err := os.Stat(paths.DataFile()); err == nil {
		return nil
	}

	// Oldest location first: an explicitly configured custom data file,
	// then the config-directory copy from before data moved out of it.
	for _, candidate := range []string{legacyDataFile, paths.LegacyDataFile()} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := copyFileBestEffort(candidate, paths.DataFile()); err != nil {
			return fmt.Errorf("failed to recover legacy data file: %w", err)
		}
		return nil
	}

	return mirror.Write(paths.DataFile(), document.Empty())
}
