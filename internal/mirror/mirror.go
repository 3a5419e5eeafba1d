// Package mirror reads and writes the single-file JSON snapshot of the
// dataset.
//
// The mirror serves three jobs: bootstrap/import source for an empty
// relational store, crash-recovery backup, and the payload exchanged
// through the sync directory. Writes are atomic (temp file, fsync,
// rename); reads tolerate the torn files a third-party sync agent can
// leave behind mid-replace.
package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/seclution/Mindwtr/internal/document"
)

// ParseError is returned when a mirror file cannot be parsed even by the
// lenient path. Callers usually respond by trying a fallback file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mirror: failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Read loads and parses the mirror file at path. The document comes back
// normalized: missing top-level keys are synthesized as empty. I/O errors
// (including a missing file) are returned wrapped; parse failures come
// back as *ParseError.
func Read(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// Parse decodes mirror file bytes, surviving the artifacts of partial
// writes: a leading byte-order mark, trailing NUL padding, and trailing
// garbage after a well-formed prefix (a reader racing a writer that has
// only partially replaced the file). An empty file parses as the empty
// document.
func Parse(data []byte) (*document.Document, error) {
	data = sanitize(data)
	if len(data) == 0 {
		return document.Empty(), nil
	}

	// Strict parse first.
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err == nil {
		doc.Normalize()
		return &doc, nil
	}

	// Lenient parse: decode the first JSON value starting at the first
	// brace and ignore whatever trails it.
	start := bytes.IndexAny(data, "{[")
	if start < 0 {
		start = 0
	}
	doc = document.Document{}
	dec := json.NewDecoder(bytes.NewReader(data[start:]))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

// sanitize strips a leading BOM and trailing whitespace/NUL padding.
func sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return bytes.TrimRight(data, " \t\r\n\x00")
}

// Write atomically replaces the mirror file at path with a serialization
// of doc. The previous contents are first copied to a .bak sibling on a
// best-effort basis; that backup is advisory and its failure is ignored.
func Write(path string, doc *document.Document) error {
	d := doc.Clone()
	d.Normalize()

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return WriteBytes(path, data)
}

// WriteBytes is Write for pre-serialized content.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		_ = copyFile(path, BackupPath(path))
	}

	tmp := path + ".tmp"
	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	// Windows refuses to rename onto an existing file.
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				_ = os.Remove(tmp)
				return fmt.Errorf("failed to remove previous mirror file: %w", err)
			}
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// BackupPath returns the .bak sibling for a mirror file path.
func BackupPath(path string) string {
	return path + ".bak"
}

func writeAndSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
