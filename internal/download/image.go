package download

import (
	"context"
	"io"
	"os"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
)

// countingWriter wraps an io.Writer, reporting every write to addBytes so
// the manager's 1Hz speed emitter stays current.
type countingWriter struct {
	w   io.Writer
	add func(int64)
}

func (c countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.add(int64(n))
	}
	return n, err
}

// downloadOneImage is a single DownloadImgTask: acquire an img_sem permit (held only while the parent is
// Downloading, enforced by ctx being derived from that state), GET the URL
// with the image client, and write it to path. ctx is cancelled the moment
// the parent task leaves Downloading, so a request in flight aborts at its
// next read rather than running unbounded while paused or cancelled.
func (m *Manager) downloadOneImage(ctx context.Context, url, path string, t *taskHandle) error {
	if err := m.imgSem.Acquire(ctx, 1); err != nil {
		return nil // parent left Downloading before a permit was free; not a failure
	}
	defer m.imgSem.Release(1)

	resp, err := m.http.GetImage(ctx, url)
	if err != nil {
		logWarn("comic %d: image fetch failed for %s: %s", t.comic.ID, url, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == 503 {
		logWarn("comic %d: image %s unavailable: %s", t.comic.ID, url, hitomierr.ErrServiceUnavailable)
		return nil
	}
	if resp.StatusCode != 200 {
		logWarn("comic %d: image %s returned status %d", t.comic.ID, url, resp.StatusCode)
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		logWarn("comic %d: failed to create %s: %s", t.comic.ID, path, err)
		return nil
	}
	defer f.Close()

	cw := countingWriter{w: f, add: m.addBytes}
	if _, err := io.Copy(cw, resp.Body); err != nil {
		logWarn("comic %d: failed writing %s: %s", t.comic.ID, path, err)
		return nil
	}

	m.bumpDownloaded(t)
	return nil
}
