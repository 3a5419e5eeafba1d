package config

import (
	"encoding/json"
	"os"
)

// legacyConfig is the pre-TOML config.json layout. It carried only the
// sync path and an optional custom data file location.
type legacyConfig struct {
	DataFilePath *string `json:"data_file_path"`
	SyncPath     *string `json:"sync_path"`
}

// MigrateLegacy performs the one-time upgrade from the legacy config.json
// layout. If config.toml does not exist yet and the legacy file does, its
// sync path is carried over into a fresh config.toml. The returned string
// is the legacy custom data file path, if one was configured — the
// storage bootstrap uses it to locate the old dataset. Idempotent: once
// config.toml exists this is a no-op.
func (m *Manager) MigrateLegacy(legacyPath string) (string, error) {
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		return "", nil // no legacy layout, nothing to do
	}

	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		legacy = legacyConfig{}
	}

	dataFile := ""
	if legacy.DataFilePath != nil {
		dataFile = *legacy.DataFilePath
	}

	if _, err := os.Stat(m.ConfigPath()); err == nil {
		return dataFile, nil
	}

	cfg := Config{SyncPath: legacy.SyncPath}
	if err := m.Save(&cfg); err != nil {
		return dataFile, err
	}
	return dataFile, nil
}
