package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitomidl/hitomidl/internal/hitomi/gg"
	"github.com/hitomidl/hitomidl/internal/hitomi/httpclient"
	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

func newTestManager() *Manager {
	return New(gg.New(nil), httpclient.NewPool())
}

func waitForTerminal(t *testing.T, events <-chan model.DownloadTaskEvent, id int) model.DownloadTaskEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-events:
			if evt.ComicID == id && evt.State.IsTerminal() {
				return evt
			}
		case <-deadline:
			t.Fatal("timed out waiting for task to reach a terminal state")
		}
	}
}

// A comic with no files completes without ever calling the gg table or an
// HTTP client, so the whole task lifecycle can be driven without network
// access.
func TestCreateRunsTaskToCompletionWithNoFiles(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	events := make(chan model.DownloadTaskEvent, 32)
	m.SubscribeTaskEvents(events)

	dir := t.TempDir()
	comic := model.Comic{ID: 1, Title: "empty"}

	if err := m.Create(context.Background(), comic, dir, model.FormatWebp, "{id} {title}"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	evt := waitForTerminal(t, events, 1)
	if evt.State != model.StateCompleted {
		t.Fatalf("final state = %v, want Completed", evt.State)
	}

	snap, ok := m.Snapshot(1)
	if !ok {
		t.Fatal("expected a snapshot for task 1")
	}
	if snap.State != model.StateCompleted {
		t.Errorf("snapshot state = %v, want Completed", snap.State)
	}

	final := filepath.Join(dir, "1 empty")
	if _, err := os.Stat(filepath.Join(final, "metadata.json")); err != nil {
		t.Errorf("expected metadata.json at %s: %s", final, err)
	}
}

func TestCreateIsIdempotentWhileTaskIsLive(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	dir := t.TempDir()
	comic := model.Comic{ID: 2, Title: "dup"}

	if err := m.Create(context.Background(), comic, dir, model.FormatWebp, "{id}"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	before, _ := m.Snapshot(2)

	// A second Create for the same id while it may still be Pending or
	// Downloading must not replace the task record.
	if err := m.Create(context.Background(), comic, dir, model.FormatWebp, "{id}"); err != nil {
		t.Fatalf("unexpected error on duplicate create: %s", err)
	}
	after, _ := m.Snapshot(2)

	if before.Comic.ID != after.Comic.ID {
		t.Errorf("duplicate Create replaced the task record")
	}
}

func TestPauseCancelResumeUnknownTaskReturnsNotFound(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	if err := m.Pause(999); !errors.Is(err, hitomierr.ErrNotFound) {
		t.Errorf("Pause: got %v, want ErrNotFound", err)
	}
	if err := m.Cancel(999); !errors.Is(err, hitomierr.ErrNotFound) {
		t.Errorf("Cancel: got %v, want ErrNotFound", err)
	}
	if err := m.Resume(context.Background(), 999, t.TempDir(), "{id}"); !errors.Is(err, hitomierr.ErrNotFound) {
		t.Errorf("Resume: got %v, want ErrNotFound", err)
	}
}

func TestCancelTransitionsTaskAndCancelsContext(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	dir := t.TempDir()
	comic := model.Comic{ID: 3, Title: "cancel-me"}

	if err := m.Create(context.Background(), comic, dir, model.FormatWebp, "{id}"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := m.Cancel(3); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	snap, ok := m.Snapshot(3)
	if !ok {
		t.Fatal("expected a snapshot for task 3")
	}
	if snap.State != model.StateCancelled {
		t.Errorf("state = %v, want Cancelled", snap.State)
	}

	m.mu.RLock()
	handle := m.tasks[3]
	m.mu.RUnlock()
	if handle.ctx.Err() == nil {
		t.Error("expected Cancel to cancel the task's context")
	}
}

func TestListReturnsEveryKnownTask(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	dir := t.TempDir()
	for id := 10; id < 13; id++ {
		comic := model.Comic{ID: id, Title: "t"}
		if err := m.Create(context.Background(), comic, dir, model.FormatWebp, "{id}"); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	got := m.List()
	if len(got) != 3 {
		t.Fatalf("got %d tasks, want 3", len(got))
	}
}
