package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/seclution/Mindwtr/internal/secrets"
)

func strp(s string) *string { return &s }

func newTestManager(t *testing.T) (*Manager, *secrets.Memory) {
	t.Helper()
	store := secrets.NewMemory()
	return NewManager(t.TempDir(), store, nil), store
}

func TestMerge(t *testing.T) {
	dst := Config{
		SyncPath:    strp("/old/path"),
		SyncBackend: strp(BackendFile),
	}
	Merge(&dst, Config{
		SyncPath:       strp("/new/path"),
		WebdavPassword: strp("hunter2"),
	})

	if *dst.SyncPath != "/new/path" {
		t.Errorf("SyncPath = %q, want overlay value", *dst.SyncPath)
	}
	if *dst.SyncBackend != BackendFile {
		t.Errorf("SyncBackend = %q, want untouched base value", *dst.SyncBackend)
	}
	if dst.WebdavPassword == nil || *dst.WebdavPassword != "hunter2" {
		t.Error("overlay-only field must be adopted")
	}
}

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", BackendFile, false},
		{"  ", BackendFile, false},
		{"file", BackendFile, false},
		{"webdav", BackendWebdav, false},
		{"cloud", BackendCloud, false},
		{" webdav ", BackendWebdav, false},
		{"ftp", "", true},
		{"WebDAV", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeBackend(tt.in)
		if tt.wantErr {
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("NormalizeBackend(%q) error = %v, want *ValidationError", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeBackend(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestValidateRemoteURL(t *testing.T) {
	valid := []string{"https://dav.example.com/mindwtr", "http://10.0.0.2:8080"}
	for _, u := range valid {
		if err := ValidateRemoteURL(u); err != nil {
			t.Errorf("ValidateRemoteURL(%q) = %v, want nil", u, err)
		}
	}
	invalid := []string{"", "ftp://example.com", "dav.example.com", "https://", "file:///etc/passwd"}
	for _, u := range invalid {
		if err := ValidateRemoteURL(u); err == nil {
			t.Errorf("ValidateRemoteURL(%q) = nil, want error", u)
		}
	}
}

func TestSetWebdav_EmptyURLClears(t *testing.T) {
	var cfg Config
	if err := cfg.SetWebdav("https://dav.example.com", "user", "pass"); err != nil {
		t.Fatalf("SetWebdav() failed: %v", err)
	}
	if err := cfg.SetWebdav("", "ignored", "ignored"); err != nil {
		t.Fatalf("SetWebdav(\"\") failed: %v", err)
	}
	if cfg.WebdavURL != nil || cfg.WebdavUsername != nil || cfg.WebdavPassword != nil {
		t.Errorf("clearing left fields behind: %+v", cfg)
	}
}

func TestSaveLoad_SplitsSecretsOutOfPublicFile(t *testing.T) {
	m, store := newTestManager(t)

	cfg := Config{
		SyncPath:       strp("/sync/mindwtr"),
		SyncBackend:    strp(BackendWebdav),
		WebdavURL:      strp("https://dav.example.com"),
		WebdavUsername: strp("user"),
		WebdavPassword: strp("hunter2"),
	}
	if err := m.Save(&cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	public, err := os.ReadFile(m.ConfigPath())
	if err != nil {
		t.Fatalf("failed to read public config: %v", err)
	}
	if strings.Contains(string(public), "hunter2") {
		t.Error("password leaked into the public config file")
	}
	if !strings.Contains(string(public), "dav.example.com") {
		t.Error("public fields missing from config file")
	}

	if v, err := store.Get(secrets.KeyWebdavPassword); err != nil || v != "hunter2" {
		t.Errorf("secret store = %q, %v; want the password", v, err)
	}
	// Secret went into the store, so no plaintext secrets file remains.
	if _, err := os.Stat(m.SecretsPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("secrets file should not exist, stat err = %v", err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.WebdavPassword == nil || *got.WebdavPassword != "hunter2" {
		t.Error("Load() must resolve the credential from the secret store")
	}
	if *got.SyncPath != "/sync/mindwtr" || got.Backend() != BackendWebdav {
		t.Errorf("Load() = %+v, want saved public fields", got)
	}
}

func TestSave_UnavailableStoreKeepsPlaintext(t *testing.T) {
	m, store := newTestManager(t)
	store.FailWrites = errors.New("no keyring service")

	cfg := Config{
		WebdavURL:      strp("https://dav.example.com"),
		WebdavPassword: strp("hunter2"),
	}
	if err := m.Save(&cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(m.SecretsPath())
	if err != nil {
		t.Fatalf("secrets file should exist when the store is down: %v", err)
	}
	if !strings.Contains(string(data), "hunter2") {
		t.Error("password missing from plaintext secrets file")
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(m.SecretsPath())
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("secrets file mode = %v, want 0600", info.Mode().Perm())
		}
	}

	public, err := os.ReadFile(m.ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(public), "hunter2") {
		t.Error("password leaked into the public config file")
	}
}

func TestLoad_MigratesPlaintextIntoStore(t *testing.T) {
	m, store := newTestManager(t)

	// A previous run on a keyring-less system left plaintext behind.
	store.FailWrites = errors.New("no keyring service")
	cfg := Config{CloudURL: strp("https://cloud.example.com"), CloudToken: strp("tok-123")}
	if err := m.Save(&cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(m.SecretsPath()); err != nil {
		t.Fatalf("plaintext secrets file expected: %v", err)
	}

	// The keyring is back; loading absorbs the plaintext copy.
	store.FailWrites = nil
	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.CloudToken == nil || *got.CloudToken != "tok-123" {
		t.Error("Load() must still expose the credential")
	}
	if v, err := store.Get(secrets.KeyCloudToken); err != nil || v != "tok-123" {
		t.Errorf("store = %q, %v; want the migrated token", v, err)
	}
	if _, err := os.Stat(m.SecretsPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("plaintext secrets file should be gone after migration, stat err = %v", err)
	}
}

func TestLoad_StoreValueWinsOverPlaintext(t *testing.T) {
	m, store := newTestManager(t)
	if err := store.Set(secrets.KeyWebdavPassword, "from-store"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(m.SecretsPath(), []byte("webdav_password = \"stale-plaintext\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.WebdavPassword == nil || *got.WebdavPassword != "from-store" {
		t.Errorf("WebdavPassword = %v, want the store's value", got.WebdavPassword)
	}
}

func TestSave_ClearingCredentialPurgesStoredSecret(t *testing.T) {
	m, store := newTestManager(t)

	cfg := Config{WebdavURL: strp("https://dav.example.com"), WebdavPassword: strp("hunter2")}
	if err := m.Save(&cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if err := cfg.SetWebdav("", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(&cfg); err != nil {
		t.Fatalf("Save() after clearing failed: %v", err)
	}

	if _, err := store.Get(secrets.KeyWebdavPassword); !errors.Is(err, secrets.ErrNotFound) {
		t.Errorf("stored secret should be purged, Get err = %v", err)
	}
}

func TestLoad_MissingFilesYieldEmptyConfig(t *testing.T) {
	m, _ := newTestManager(t)
	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.hasValues() {
		t.Errorf("Load() on empty directory = %+v, want all-nil config", got)
	}
	if got.Backend() != BackendFile {
		t.Errorf("Backend() = %q, want default %q", got.Backend(), BackendFile)
	}
}

func TestCalendars(t *testing.T) {
	var cfg Config
	if len(cfg.Calendars()) != 0 {
		t.Error("unset calendars should be empty")
	}

	err := cfg.SetCalendars([]Calendar{
		{ID: "c1", Name: "Team", URL: " https://example.com/team.ics ", Enabled: true},
		{ID: "c2", Name: "", URL: "https://example.com/anon.ics"},
		{ID: "c3", Name: "Blank", URL: "   "},
	})
	if err != nil {
		t.Fatalf("SetCalendars() failed: %v", err)
	}

	got := cfg.Calendars()
	if len(got) != 2 {
		t.Fatalf("calendars = %+v, want blank-URL entry dropped", got)
	}
	if got[0].URL != "https://example.com/team.ics" {
		t.Errorf("URL not trimmed: %q", got[0].URL)
	}
	if got[1].Name != "Calendar" {
		t.Errorf("unnamed feed = %q, want placeholder name", got[1].Name)
	}
}

func TestCalendars_GarbageState(t *testing.T) {
	cfg := Config{ExternalCalendars: strp("not json at all")}
	if got := cfg.Calendars(); len(got) != 0 {
		t.Errorf("Calendars() on garbage = %+v, want empty", got)
	}
}

func TestMigrateLegacy(t *testing.T) {
	m, _ := newTestManager(t)
	legacyPath := filepath.Join(t.TempDir(), "config.json")
	legacy := `{"data_file_path": "/old/data.json", "sync_path": "/old/sync"}`
	if err := os.WriteFile(legacyPath, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	dataFile, err := m.MigrateLegacy(legacyPath)
	if err != nil {
		t.Fatalf("MigrateLegacy() failed: %v", err)
	}
	if dataFile != "/old/data.json" {
		t.Errorf("data file path = %q, want the legacy value", dataFile)
	}

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SyncPath == nil || *cfg.SyncPath != "/old/sync" {
		t.Errorf("SyncPath = %v, want carried-over legacy value", cfg.SyncPath)
	}

	// Second run must not clobber newer settings.
	cfg.SyncPath = strp("/new/sync")
	if err := m.Save(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := m.MigrateLegacy(legacyPath); err != nil {
		t.Fatalf("second MigrateLegacy() failed: %v", err)
	}
	cfg, err = m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.SyncPath != "/new/sync" {
		t.Errorf("SyncPath = %q, migration must be one-time", *cfg.SyncPath)
	}
}

func TestMigrateLegacy_NoLegacyFile(t *testing.T) {
	m, _ := newTestManager(t)
	dataFile, err := m.MigrateLegacy(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || dataFile != "" {
		t.Errorf("MigrateLegacy() = %q, %v; want empty no-op", dataFile, err)
	}
	if _, err := os.Stat(m.ConfigPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no config file should be created, stat err = %v", err)
	}
}
