// Package applog manages the on-disk application log the UI appends
// diagnostic lines to. Rotation is handled by lumberjack so the log can
// run unattended for months without growing unbounded.
package applog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "mindwtr.log"

// Log appends lines to a rotated log file under dir/logs/.
type Log struct {
	mu sync.Mutex
	w  *lumberjack.Logger
}

// New returns a log writing under dataDir/logs/mindwtr.log. The file and
// its directory are created on first append.
func New(dataDir string) *Log {
	return &Log{
		w: &lumberjack.Logger{
			Filename:   filepath.Join(dataDir, "logs", logFileName),
			MaxSize:    5, // megabytes
			MaxBackups: 2,
			MaxAge:     30, // days
		},
	}
}

// Path returns the current log file path.
func (l *Log) Path() string { return l.w.Filename }

// Append writes one line (a trailing newline is added when missing) and
// returns the log file path.
func (l *Log) Append(line string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := l.w.Write([]byte(line)); err != nil {
		return "", fmt.Errorf("failed to append log line: %w", err)
	}
	return l.w.Filename, nil
}

// Clear truncates the log by removing the current file; the next append
// recreates it. Rotated backups are left alone.
func (l *Log) Clear() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Close(); err != nil {
		return "", fmt.Errorf("failed to close log: %w", err)
	}
	if err := os.Remove(l.w.Filename); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove log file: %w", err)
	}
	return l.w.Filename, nil
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}
