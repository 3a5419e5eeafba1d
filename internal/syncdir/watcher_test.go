package syncdir

import (
	"os"
	"testing"
	"time"
)

func startTestWatcher(t *testing.T, d *Dir) *Watcher {
	t.Helper()
	w, err := NewWatcher(d)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w
}

func waitForEvent(t *testing.T, w *Watcher, wantOp EventOp) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Op == wantOp {
				return ev
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-deadline:
			t.Fatalf("timed out waiting for %v event", wantOp)
		}
	}
}

func TestWatcher_SeesExternalReplace(t *testing.T) {
	d := openTestDir(t)
	w := startTestWatcher(t, d)

	if err := d.Push(oneTaskDocument("task-1")); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	ev := waitForEvent(t, w, OpReplaced)
	if ev.Path != d.FilePath() {
		t.Errorf("event path = %q, want %q", ev.Path, d.FilePath())
	}
}

func TestWatcher_SeesRemoval(t *testing.T) {
	d := openTestDir(t)
	if err := d.Push(oneTaskDocument("task-1")); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	w := startTestWatcher(t, d)

	if err := os.Remove(d.FilePath()); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, w, OpRemoved)
}

func TestWatcher_IgnoresTempAndBackupChurn(t *testing.T) {
	d := openTestDir(t)
	w := startTestWatcher(t, d)

	for _, name := range []string{"data.json.tmp", "data.json.bak", "unrelated.txt"} {
		if err := os.WriteFile(d.Path()+string(os.PathSeparator)+name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for sibling file: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	d := openTestDir(t)
	w := startTestWatcher(t, d)
	if err := w.Start(); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	d := openTestDir(t)
	w, err := NewWatcher(d)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("first Stop() failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
}
