// Package storage ties the relational store and the JSON mirror together
// into the engine the application talks to.
//
// The store is canonical; the mirror is a derived snapshot refreshed as a
// best-effort side effect of every save and consulted only when the
// store cannot be read (or is empty at first start, in which case a
// pre-existing mirror is imported once). All methods here block; callers
// on an interactive surface dispatch them through a worker.Pool.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/seclution/Mindwtr/internal/document"
	"github.com/seclution/Mindwtr/internal/mirror"
	"github.com/seclution/Mindwtr/internal/store"
)

// Engine is the dual-representation storage engine for one installation.
type Engine struct {
	store    *store.Store
	dataPath string
	logger   *log.Logger
}

// Open opens the engine over the given paths: the database is opened
// (running migrations) and the mirror path remembered for import,
// refresh and fallback. If logger is nil, a default logger writing to
// stderr is used.
func Open(paths Paths, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[storage] ", log.LstdFlags)
	}
	st, err := store.Open(paths.DBFile())
	if err != nil {
		return nil, err
	}
	return &Engine{store: st, dataPath: paths.DataFile(), logger: logger}, nil
}

// Store exposes the underlying relational store for structured queries
// and search.
func (e *Engine) Store() *store.Store { return e.store }

// DataPath returns the mirror file path.
func (e *Engine) DataPath() string { return e.dataPath }

// Close closes the underlying store.
func (e *Engine) Close() error { return e.store.Close() }

// Load returns the full dataset.
//
// An empty store lazily imports the mirror file first (the one direction
// in which the mirror feeds the store), snapshotting it to .bak before
// the import. If the store read fails, the mirror and then its .bak are
// consulted before the store's error is surfaced.
func (e *Engine) Load(ctx context.Context) (*document.Document, error) {
	empty, err := e.store.Empty(ctx)
	if err == nil && empty {
		if doc, readErr := mirror.Read(e.dataPath); readErr == nil {
			e.logger.Printf("Store empty, importing mirror %s", e.dataPath)
			_ = copyFileBestEffort(e.dataPath, mirror.BackupPath(e.dataPath))
			if err := e.store.ReplaceAll(ctx, doc); err != nil {
				return nil, err
			}
		}
	}

	doc, storeErr := e.store.ReadAll(ctx)
	if storeErr == nil {
		return doc, nil
	}

	if doc, err := mirror.Read(e.dataPath); err == nil {
		e.logger.Printf("Store read failed (%v), serving mirror", storeErr)
		return doc, nil
	}
	if doc, err := mirror.Read(mirror.BackupPath(e.dataPath)); err == nil {
		e.logger.Printf("Store and mirror unreadable, serving mirror backup")
		return doc, nil
	}
	return nil, storeErr
}

// Save replaces the entire dataset in the store, then refreshes the
// mirror. The mirror refresh is best-effort: its failure is logged, not
// returned, because the canonical copy has already committed.
func (e *Engine) Save(ctx context.Context, doc *document.Document) error {
	if err := e.store.ReplaceAll(ctx, doc); err != nil {
		return err
	}
	if err := mirror.Write(e.dataPath, doc); err != nil {
		e.logger.Printf("Failed to refresh mirror %s: %v", e.dataPath, err)
	}
	return nil
}

func copyFileBestEffort(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
