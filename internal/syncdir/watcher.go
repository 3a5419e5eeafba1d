package syncdir

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the kind of change observed on the sync payload.
type EventOp int

const (
	// OpReplaced indicates the payload file was created or rewritten,
	// typically by the external sync agent delivering a remote change.
	OpReplaced EventOp = iota
	// OpRemoved indicates the payload file was deleted or renamed away.
	OpRemoved
)

func (op EventOp) String() string {
	switch op {
	case OpReplaced:
		return "replaced"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a change notification for the sync payload file.
type Event struct {
	// Path is the absolute path of the payload file.
	Path string
	// Op is the observed operation.
	Op EventOp
}

// Watcher watches a sync directory for external changes to the payload
// file. External sync agents replace the file by rename, so a remote
// update usually arrives as a create event; the caller responds by
// running Pull, whose retry/backoff handles any rename still in flight.
type Watcher struct {
	dir     *Dir
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher over the given sync directory. It must be
// started with Start before it emits events.
func NewWatcher(dir *Dir) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		dir:     dir,
		watcher: fsw,
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the sync directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if err := w.watcher.Add(w.dir.Path()); err != nil {
		return fmt.Errorf("failed to watch sync directory %s: %w", w.dir.Path(), err)
	}
	w.running = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Events returns the channel of payload change events.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Stop halts the watcher and closes the event channels.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	w.running = false
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isPayload(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.emit(Event{Path: ev.Name, Op: OpReplaced})
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.emit(Event{Path: ev.Name, Op: OpRemoved})
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// isPayload filters to the payload file (current or legacy name); temp
// and backup siblings churn constantly during writes and are ignored.
func (w *Watcher) isPayload(name string) bool {
	base := filepath.Base(name)
	return base == DataFileName || base == legacyFileName
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}
