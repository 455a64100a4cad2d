// Package export implements the archive exporters: a PDF writer that
// embeds one page per image sized to that image's pixel dimensions, and
// a CBZ (ZIP + ComicInfo.xml) writer for import into comic-library
// readers such as Kavita.
package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

// Event is published at the start, end, and on error of an export, keyed by
// a generated UUID.
type Event = model.ExportEvent

// Notifier receives export lifecycle events. Implementations must not
// block; the exporters send best-effort.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

func newEventUUID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

// comicImagePaths lists <downloadDir>/<dirName>/*.{webp,avif} in
// filename order.
func comicImagePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read comic directory %s: %s", hitomierr.ErrFilesystem, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".webp" || ext == ".avif" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

func mkdirAllExport(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create export directory %s: %s", hitomierr.ErrFilesystem, dir, err)
	}
	return nil
}

// decodeBounds decodes just enough of path to learn its pixel dimensions.
func decodeBounds(path string) (image.Rectangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: failed to open %s: %s", hitomierr.ErrFilesystem, path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: failed to decode image dimensions for %s: %s", hitomierr.ErrDecode, path, err)
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}
