package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

// errPaused is a private sentinel runDownload returns when the task's state
// was observed to leave Downloading mid-flight; it is never surfaced
// outside this package.
var errPaused = errors.New("download paused")

// drive runs task's state machine for its whole lifetime. It is started
// once per Create/resume-after-terminal call and returns once the task
// reaches a terminal state.
func (m *Manager) drive(t *taskHandle) {
	var havePermit bool

	for {
		state, changed := t.state.Changed()

		switch state {
		case model.StatePending:
			if err := m.acquireComic(t.ctx, changed); err != nil {
				switch t.state.Get() {
				case model.StatePaused, model.StatePending:
					// Paused (or nudged) while still queued; keep looping so
					// the Paused case below can wait for a resume.
					continue
				case model.StateCancelled:
					return
				}
				t.state.Set(model.StateFailed)
				m.emitUpdate(t)
				return
			}
			havePermit = true
			t.state.Set(model.StateDownloading)
			m.emitUpdate(t)

		case model.StateDownloading:
			if !havePermit {
				// Reached Downloading without a permit (shouldn't happen on
				// the normal path); fall back to re-acquiring.
				t.state.Set(model.StatePending)
				continue
			}

			err := m.runDownload(t)
			m.comicSem.Release(1)
			havePermit = false

			switch {
			case errors.Is(err, errPaused):
				// State has already left Downloading (Paused, or Pending after
				// a Resume); loop back to the top, where the matching case
				// waits for a resume or re-acquires a permit.
				continue
			case t.state.Get() == model.StateCancelled:
				return
			case err != nil:
				logError("comic %d failed: %s", t.comic.ID, err)
				t.state.Set(model.StateFailed)
				m.emitUpdate(t)
				return
			default:
				t.state.Set(model.StateCompleted)
				m.emitUpdate(t)
				logInfo("comic %d downloaded to %s", t.comic.ID, t.finalDirPath())
				return
			}

		case model.StatePaused:
			<-changed

		case model.StateCancelled, model.StateCompleted, model.StateFailed:
			return
		}
	}
}

// acquireComic blocks until the comic semaphore is available or changed
// fires (the task's state moved out of Pending, e.g. to Cancelled while
// still queued).
func (m *Manager) acquireComic(ctx context.Context, changed <-chan struct{}) error {
	acquireCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- m.comicSem.Acquire(acquireCtx, 1) }()

	select {
	case err := <-errCh:
		return err
	case <-changed:
		cancel()
		// The acquire may still have won the race; give the permit back if so.
		if err := <-errCh; err == nil {
			m.comicSem.Release(1)
		}
		return context.Canceled
	}
}

// tempDirPath is where in-progress images accumulate; finalDirPath is
// where a completed download ends up after the rename.
func (t *taskHandle) tempDirPath() string {
	return filepath.Join(t.downloadDir, ".downloading-"+t.dirName)
}

func (t *taskHandle) finalDirPath() string {
	return filepath.Join(t.downloadDir, t.dirName)
}

// runDownload executes the download procedure once. It is re-entrant: a
// resumed task calls it again, and already-present files on disk are
// treated as already downloaded.
func (m *Manager) runDownload(t *taskHandle) error {
	tempDir := t.tempDirPath()
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create temp directory %s: %s", hitomierr.ErrFilesystem, tempDir, err)
	}

	cleanResidue(tempDir, t.format.Ext())

	// Each pass recounts from zero; files already on disk from a previous
	// pass are counted again by the skip branch below, so a resumed task's
	// counter never exceeds the total.
	t.mu.Lock()
	t.downloadedImgCount = 0
	t.mu.Unlock()

	urls, err := m.resolveImageURLs(t.ctx, t)
	if err != nil {
		return err
	}

	downloadCtx, cancelDownload := context.WithCancel(t.ctx)
	defer cancelDownload()

	cur, changed := t.state.Changed()
	if cur != model.StateDownloading {
		// A pause/cancel slipped in between the driver's transition and this
		// point; bail before any image work starts.
		if cur == model.StateCancelled {
			return nil
		}
		return errPaused
	}
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-changed:
			cancelDownload()
		case <-downloadCtx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(downloadCtx)
	for i, url := range urls {
		i, url := i, url
		name := fmt.Sprintf("%04d.%s", i+1, t.format.Ext())
		path := filepath.Join(tempDir, name)

		if fileExists(path) {
			m.bumpDownloaded(t)
			continue
		}

		g.Go(func() error {
			return m.downloadOneImage(gctx, url, path, t)
		})
	}

	waitErr := g.Wait()
	// Every image goroutine has returned; release the state watcher so it
	// does not wait for a state change that may never come.
	cancelDownload()
	<-watcherDone

	t.mu.Lock()
	downloaded := t.downloadedImgCount
	total := t.totalImgCount
	t.mu.Unlock()

	state := t.state.Get()
	if state == model.StateCancelled {
		return nil
	}
	if state != model.StateDownloading {
		return errPaused
	}
	if waitErr != nil {
		return waitErr
	}
	if downloaded != total {
		return fmt.Errorf("downloaded %d/%d images for comic %d", downloaded, total, t.comic.ID)
	}

	return m.finalizeDownload(t, tempDir)
}

// resolveImageURLs builds the per-file CDN URL list in parallel,
// aborting the whole task if any single URL fails to synthesize.
func (m *Manager) resolveImageURLs(ctx context.Context, t *taskHandle) ([]string, error) {
	files := t.comic.Files
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := m.gg.ImageURL(gctx, f.Hash, t.format.Dir())
			if err != nil {
				return fmt.Errorf("resolve URL for file %d of comic %d: %w", i, t.comic.ID, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// finalizeDownload renames the temp directory into place and writes
// metadata.json.
func (m *Manager) finalizeDownload(t *taskHandle, tempDir string) error {
	final := t.finalDirPath()

	if _, err := os.Stat(final); err == nil {
		if err := os.RemoveAll(final); err != nil {
			return fmt.Errorf("%w: failed to remove stale final directory %s: %s", hitomierr.ErrFilesystem, final, err)
		}
	}

	if err := os.Rename(tempDir, final); err != nil {
		return fmt.Errorf("%w: failed to rename %s to %s: %s", hitomierr.ErrFilesystem, tempDir, final, err)
	}

	data, err := t.comic.MarshalMetadata()
	if err != nil {
		return fmt.Errorf("marshal metadata for comic %d: %w", t.comic.ID, err)
	}

	metaPath := filepath.Join(final, "metadata.json")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %s", hitomierr.ErrFilesystem, metaPath, err)
	}

	return nil
}

func (m *Manager) bumpDownloaded(t *taskHandle) {
	t.mu.Lock()
	t.downloadedImgCount++
	t.mu.Unlock()
	m.emitUpdate(t)
}

// cleanResidue deletes any file under tempDir not matching the expected
// "NNNN.<ext>" pattern, clearing format-mismatched leftovers from a
// previous run at a different DownloadFormat.
func cleanResidue(tempDir, ext string) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isExpectedImageName(name, ext) {
			_ = os.Remove(filepath.Join(tempDir, name))
		}
	}
}

func isExpectedImageName(name, ext string) bool {
	want := ext
	got := filepath.Ext(name)
	if len(got) == 0 {
		return false
	}
	if got[1:] != want {
		return false
	}
	stem := name[:len(name)-len(got)]
	if len(stem) != 4 {
		return false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
