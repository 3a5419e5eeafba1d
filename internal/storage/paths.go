package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "mindwtr"
	// DataFileName is the JSON mirror of the dataset kept next to the
	// database as bootstrap source and crash-recovery backup.
	DataFileName = "data.json"
	// DBFileName is the canonical SQLite database.
	DBFileName = "mindwtr.db"
)

// Paths locates the per-installation directories. The config dir holds
// config.toml/secrets.toml, the data dir holds the database, the mirror
// and the logs.
type Paths struct {
	ConfigDir string
	DataDir   string
}

// DefaultPaths resolves the platform-conventional locations:
// the user config dir for configuration, and XDG_DATA_HOME (or the
// platform equivalent) for data.
func DefaultPaths() (Paths, error) {
	cfgBase, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, err
	}

	dataBase := os.Getenv("XDG_DATA_HOME")
	if dataBase == "" {
		switch runtime.GOOS {
		case "darwin", "windows":
			dataBase = cfgBase
		default:
			home, err := os.UserHomeDir()
			if err != nil {
				return Paths{}, err
			}
			dataBase = filepath.Join(home, ".local", "share")
		}
	}

	return Paths{
		ConfigDir: filepath.Join(cfgBase, appName),
		DataDir:   filepath.Join(dataBase, appName),
	}, nil
}

// DataFile returns the mirror file path.
func (p Paths) DataFile() string { return filepath.Join(p.DataDir, DataFileName) }

// DBFile returns the database file path.
func (p Paths) DBFile() string { return filepath.Join(p.DataDir, DBFileName) }

// LegacyConfigFile returns the pre-TOML config.json location.
func (p Paths) LegacyConfigFile() string { return filepath.Join(p.ConfigDir, "config.json") }

// LegacyDataFile returns where the dataset lived before data moved out
// of the config directory.
func (p Paths) LegacyDataFile() string { return filepath.Join(p.ConfigDir, DataFileName) }
