// Package syncdir implements the shared-folder sync protocol.
//
// A sync directory is a user-chosen folder that an external file-sync
// agent (Syncthing, Dropbox, a network mount) replicates across devices.
// That agent is an uncontrolled concurrent writer of the same file, so
// every read here assumes it may be racing a foreign atomic replace:
// reads retry with backoff, then fall back to the .bak sibling, then to a
// legacy-named file. Writes use the same temp-file-and-rename protocol as
// the local mirror. There is no locking across processes; the last
// writer's rename wins.
package syncdir

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seclution/Mindwtr/internal/document"
	"github.com/seclution/Mindwtr/internal/mirror"
)

const (
	// DataFileName is the mirror payload file inside the sync directory.
	DataFileName = "data.json"
	// legacyFileName is the pre-1.0 sync payload name, read as a
	// fallback when data.json has never been written.
	legacyFileName = "mindwtr-sync.json"

	primaryAttempts = 5
	backupAttempts  = 2

	// Backoff for a read racing an external writer: base plus a growing
	// per-attempt increment, with jitter so two installs do not retry in
	// lockstep.
	backoffBase = 120 * time.Millisecond
	backoffStep = 80 * time.Millisecond
	jitterMax   = 40 * time.Millisecond
)

// ValidationError rejects an unusable sync directory target before any
// I/O happens on it.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid sync directory %q: %s", e.Path, e.Reason)
}

// Dir is a validated sync directory handle.
type Dir struct {
	path   string
	logger *log.Logger

	// sleep is swapped out by tests to keep the retry loop fast.
	sleep func(time.Duration)
}

// Open validates path and returns a handle, creating the directory if it
// does not exist. Validation rejects empty paths and symlinks — the
// symlink check runs both before and after canonicalization so a target
// swapped for a symlink between the two checks is still refused.
//
// If logger is nil, a default logger writing to stderr is used.
func Open(path string, logger *log.Logger) (*Dir, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[syncdir] ", log.LstdFlags)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &ValidationError{Path: path, Reason: "empty path"}
	}

	if err := rejectSymlink(path); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sync directory: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize sync directory: %w", err)
	}
	// Re-check the original path after canonicalization: a concurrent
	// swap of the directory for a symlink is rejected here.
	if err := rejectSymlink(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to stat sync directory: %w", err)
	}
	if !info.IsDir() {
		return nil, &ValidationError{Path: path, Reason: "not a directory"}
	}

	return &Dir{path: path, logger: logger, sleep: time.Sleep}, nil
}

func rejectSymlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat sync directory: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return &ValidationError{Path: path, Reason: "path is a symlink"}
	}
	return nil
}

// Path returns the validated directory path.
func (d *Dir) Path() string { return d.path }

// FilePath returns the full path of the sync payload file.
func (d *Dir) FilePath() string { return filepath.Join(d.path, DataFileName) }

// Pull reads the sync payload. The primary file gets the full retry
// budget; if it never parses, the .bak sibling gets a shorter one. A
// directory that has never been pushed to yields the empty document (via
// the legacy-named file when one exists). Only when every recovery path
// is exhausted does the primary file's last error surface.
func (d *Dir) Pull() (*document.Document, error) {
	primary := d.FilePath()

	if _, err := os.Stat(primary); os.IsNotExist(err) {
		legacy := filepath.Join(d.path, legacyFileName)
		if _, err := os.Stat(legacy); err == nil {
			d.logger.Printf("Primary sync file absent, reading legacy %s", legacyFileName)
			return mirror.Read(legacy)
		}
		return document.Empty(), nil
	}

	doc, primaryErr := d.readWithRetries(primary, primaryAttempts)
	if primaryErr == nil {
		return doc, nil
	}

	backup := mirror.BackupPath(primary)
	if _, err := os.Stat(backup); err == nil {
		d.logger.Printf("Primary sync file unreadable (%v), trying backup", primaryErr)
		if doc, err := d.readWithRetries(backup, backupAttempts); err == nil {
			return doc, nil
		}
	}

	return nil, primaryErr
}

// Push atomically writes the sync payload, keeping a .bak advisory copy
// of the previous contents.
func (d *Dir) Push(doc *document.Document) error {
	if err := mirror.Write(d.FilePath(), doc); err != nil {
		return fmt.Errorf("failed to write sync file: %w", err)
	}
	return nil
}

// readWithRetries reads and leniently parses path, backing off between
// attempts to let a concurrent external writer finish its own atomic
// replace. Total wait is bounded by the attempt budget: liveness, not
// correctness, is what the retries buy.
func (d *Dir) readWithRetries(path string, attempts int) (*document.Document, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		doc, err := mirror.Read(path)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		var parseErr *mirror.ParseError
		if errors.As(err, &parseErr) {
			d.logger.Printf("Sync file parse failed (attempt %d/%d): %v", attempt+1, attempts, err)
		}

		if attempt+1 < attempts {
			delay := backoffBase + time.Duration(attempt)*backoffStep
			delay += rand.N(jitterMax)
			d.sleep(delay)
		}
	}
	return nil, lastErr
}
