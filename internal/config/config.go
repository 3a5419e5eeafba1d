// Package config manages the layered application configuration.
//
// Configuration merges three layers, each overriding the previous for
// whichever fields it defines: the public config.toml, the plaintext
// secrets.toml sibling, and the OS secret store. Credentials found in
// plaintext are migrated into the secret store on every load; when the
// secret store is unavailable the plaintext copy stays where it is, so
// the feature degrades to "secrets stored in plaintext" instead of
// losing data.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/seclution/Mindwtr/internal/secrets"
)

const (
	// ConfigFileName is the public configuration file.
	ConfigFileName = "config.toml"
	// SecretsFileName is the plaintext secrets sibling; fields migrate
	// out of it into the secret store when one is available.
	SecretsFileName = "secrets.toml"

	configHeader  = "# Mindwtr desktop config"
	secretsHeader = "# Mindwtr desktop secrets"
)

// Sync backends.
const (
	BackendFile   = "file"
	BackendWebdav = "webdav"
	BackendCloud  = "cloud"
)

// ValidationError rejects an invalid configuration value before any I/O
// is attempted.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// Config is the merged configuration. Every field is optional; a nil
// pointer means the layer stack never defined it.
type Config struct {
	SyncPath          *string `toml:"sync_path,omitempty"`
	SyncBackend       *string `toml:"sync_backend,omitempty"`
	WebdavURL         *string `toml:"webdav_url,omitempty"`
	WebdavUsername    *string `toml:"webdav_username,omitempty"`
	WebdavPassword    *string `toml:"webdav_password,omitempty"`
	CloudURL          *string `toml:"cloud_url,omitempty"`
	CloudToken        *string `toml:"cloud_token,omitempty"`
	ExternalCalendars *string `toml:"external_calendars,omitempty"`
}

// Merge overlays src onto dst: every field src defines replaces dst's.
// Pure over the two structs; the layered load is three Merges.
func Merge(dst *Config, src Config) {
	if src.SyncPath != nil {
		dst.SyncPath = src.SyncPath
	}
	if src.SyncBackend != nil {
		dst.SyncBackend = src.SyncBackend
	}
	if src.WebdavURL != nil {
		dst.WebdavURL = src.WebdavURL
	}
	if src.WebdavUsername != nil {
		dst.WebdavUsername = src.WebdavUsername
	}
	if src.WebdavPassword != nil {
		dst.WebdavPassword = src.WebdavPassword
	}
	if src.CloudURL != nil {
		dst.CloudURL = src.CloudURL
	}
	if src.CloudToken != nil {
		dst.CloudToken = src.CloudToken
	}
	if src.ExternalCalendars != nil {
		dst.ExternalCalendars = src.ExternalCalendars
	}
}

func (c *Config) hasValues() bool {
	return c.SyncPath != nil || c.SyncBackend != nil ||
		c.WebdavURL != nil || c.WebdavUsername != nil || c.WebdavPassword != nil ||
		c.CloudURL != nil || c.CloudToken != nil || c.ExternalCalendars != nil
}

// Backend returns the normalized sync backend, defaulting to "file".
func (c *Config) Backend() string {
	if c.SyncBackend == nil {
		return BackendFile
	}
	b, err := NormalizeBackend(*c.SyncBackend)
	if err != nil {
		return BackendFile
	}
	return b
}

// NormalizeBackend validates a backend name. Empty input means the
// default backend; anything outside the known set is rejected.
func NormalizeBackend(raw string) (string, error) {
	switch strings.TrimSpace(raw) {
	case "":
		return BackendFile, nil
	case BackendFile, BackendWebdav, BackendCloud:
		return strings.TrimSpace(raw), nil
	default:
		return "", &ValidationError{Field: "sync backend", Value: raw}
	}
}

// ValidateRemoteURL checks a WebDAV/cloud endpoint before it is stored.
func ValidateRemoteURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "remote URL", Value: raw}
	}
	return nil
}

// SetWebdav updates the WebDAV credential triple. An empty URL means
// "credentials cleared": all three fields are dropped, and Save will also
// purge the stored secret.
func (c *Config) SetWebdav(rawURL, username, password string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		c.WebdavURL = nil
		c.WebdavUsername = nil
		c.WebdavPassword = nil
		return nil
	}
	if err := ValidateRemoteURL(rawURL); err != nil {
		return err
	}
	c.WebdavURL = &rawURL
	c.WebdavUsername = &username
	c.WebdavPassword = &password
	return nil
}

// SetCloud updates the cloud credential pair, with the same
// empty-URL-clears semantics as SetWebdav.
func (c *Config) SetCloud(rawURL, token string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		c.CloudURL = nil
		c.CloudToken = nil
		return nil
	}
	if err := ValidateRemoteURL(rawURL); err != nil {
		return err
	}
	c.CloudURL = &rawURL
	c.CloudToken = &token
	return nil
}

// SyncDirPath returns the configured sync directory, defaulting to
// ~/Sync/mindwtr when unset.
func (c *Config) SyncDirPath() (string, error) {
	if c.SyncPath != nil && strings.TrimSpace(*c.SyncPath) != "" {
		return *c.SyncPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory for default sync path: %w", err)
	}
	return filepath.Join(home, "Sync", "mindwtr"), nil
}

// Manager loads and persists the configuration for one config directory.
type Manager struct {
	dir     string
	secrets secrets.Store
	logger  *log.Logger
}

// NewManager returns a manager over dir. If logger is nil, a default
// logger writing to stderr is used.
func NewManager(dir string, store secrets.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stderr, "[config] ", log.LstdFlags)
	}
	return &Manager{dir: dir, secrets: store, logger: logger}
}

// ConfigPath returns the public config file path.
func (m *Manager) ConfigPath() string { return filepath.Join(m.dir, ConfigFileName) }

// SecretsPath returns the plaintext secrets file path.
func (m *Manager) SecretsPath() string { return filepath.Join(m.dir, SecretsFileName) }

// Load reads and merges the configuration layers and resolves secrets.
// If a plaintext credential can be moved into the secret store, the
// files are rewritten without it before Load returns.
func (m *Manager) Load() (*Config, error) {
	cfg, err := readTOMLFile(m.ConfigPath())
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(m.SecretsPath()); statErr == nil {
		overlay, err := readTOMLFile(m.SecretsPath())
		if err != nil {
			return nil, err
		}
		Merge(&cfg, overlay)
	}

	wdResident, wdMigrated := m.resolveSecret(&cfg.WebdavPassword, secrets.KeyWebdavPassword)
	ctResident, ctMigrated := m.resolveSecret(&cfg.CloudToken, secrets.KeyCloudToken)

	if wdMigrated || ctMigrated {
		if err := m.write(&cfg, wdResident, ctResident); err != nil {
			// The secret made it into the store; failing to strip the
			// plaintext copy is not worth failing the load over.
			m.logger.Printf("Failed to rewrite config after secret migration: %v", err)
		}
	}
	return &cfg, nil
}

// resolveSecret applies the precedence rule for one credential: the
// secret store wins when it has a value; otherwise the plaintext value is
// used and migration into the store is attempted. It reports whether the
// field now lives in the store, and whether a plaintext copy was absorbed
// (meaning the files should be rewritten without it).
func (m *Manager) resolveSecret(field **string, key string) (resident, migrated bool) {
	plaintext := *field != nil

	stored, err := m.secrets.Get(key)
	switch {
	case err == nil:
		*field = &stored
		return true, plaintext
	case !errors.Is(err, secrets.ErrNotFound):
		m.logger.Printf("Secret store unavailable for %s, using plaintext: %v", key, err)
		return false, false
	}

	if !plaintext {
		return false, false
	}
	if err := m.secrets.Set(key, **field); err != nil {
		m.logger.Printf("Failed to migrate %s into secret store, keeping plaintext: %v", key, err)
		return false, false
	}
	return true, true
}

// Save persists cfg, pushing credentials into the secret store and
// splitting whatever could not be stored there into secrets.toml. A nil
// credential field deletes the corresponding stored secret: clearing
// credentials purges them everywhere.
func (m *Manager) Save(cfg *Config) error {
	wdResident := m.stash(cfg.WebdavPassword, secrets.KeyWebdavPassword)
	ctResident := m.stash(cfg.CloudToken, secrets.KeyCloudToken)
	return m.write(cfg, wdResident, ctResident)
}

// stash writes one credential to the secret store, reporting whether it
// now lives there. Store failures are swallowed — the caller keeps the
// plaintext copy instead.
func (m *Manager) stash(field *string, key string) bool {
	if field == nil {
		if err := m.secrets.Delete(key); err != nil {
			m.logger.Printf("Failed to delete stored secret %s: %v", key, err)
		}
		return false
	}
	if err := m.secrets.Set(key, *field); err != nil {
		m.logger.Printf("Secret store unavailable for %s, keeping plaintext: %v", key, err)
		return false
	}
	return true
}

// write splits cfg across the two files: secret-bearing fields go to
// secrets.toml unless they are resident in the secret store, everything
// else goes to config.toml. An empty secrets file is removed.
func (m *Manager) write(cfg *Config, wdResident, ctResident bool) error {
	public := *cfg
	public.WebdavPassword = nil
	public.CloudToken = nil
	public.ExternalCalendars = nil

	var secret Config
	if !wdResident {
		secret.WebdavPassword = cfg.WebdavPassword
	}
	if !ctResident {
		secret.CloudToken = cfg.CloudToken
	}
	secret.ExternalCalendars = cfg.ExternalCalendars

	if err := writeTOMLFile(m.ConfigPath(), &public, configHeader, 0o644); err != nil {
		return err
	}

	if secret.hasValues() {
		return writeTOMLFile(m.SecretsPath(), &secret, secretsHeader, 0o600)
	}
	if _, err := os.Stat(m.SecretsPath()); err == nil {
		if err := os.Remove(m.SecretsPath()); err != nil {
			return fmt.Errorf("failed to remove empty secrets file: %w", err)
		}
	}
	return nil
}

// readTOMLFile decodes one config layer. A missing file is an empty
// layer, not an error.
func readTOMLFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func writeTOMLFile(path string, cfg *Config, header string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(header + "\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(sb.String()), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
