package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/hitomidl/hitomidl/internal/model"
)

func TestCBZWritesComicInfoAndImageEntries(t *testing.T) {
	downloadDir := t.TempDir()
	exportDir := t.TempDir()

	srcDir := filepath.Join(downloadDir, "1 title")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %s", srcDir, err)
	}
	for _, name := range []string{"0001.webp", "0002.webp"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte("fake image bytes"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %s", name, err)
		}
	}

	comic := model.Comic{ID: 1, Title: "title", DirName: "1 title", Artists: []string{"a"}}

	var events []Event
	notify := NotifierFunc(func(e Event) { events = append(events, e) })

	if err := CBZ(comic, downloadDir, exportDir, notify); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if len(events) != 2 || events[0].Kind != model.ExportEventStart || events[1].Kind != model.ExportEventEnd {
		t.Fatalf("got events %+v, want Start then End", events)
	}

	archivePath := filepath.Join(exportDir, "1 title.cbz")
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("failed to open %s: %s", archivePath, err)
	}
	defer r.Close()

	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	for _, want := range []string{"ComicInfo.xml", "0001.webp", "0002.webp"} {
		if !names[want] {
			t.Errorf("archive missing entry %q, got %v", want, names)
		}
	}
}

func TestCBZFailsWhenSourceDirectoryHasNoImages(t *testing.T) {
	downloadDir := t.TempDir()
	srcDir := filepath.Join(downloadDir, "1 title")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %s", srcDir, err)
	}

	comic := model.Comic{ID: 1, Title: "title", DirName: "1 title"}

	var gotErrorEvent bool
	notify := NotifierFunc(func(e Event) {
		if e.Kind == model.ExportEventError {
			gotErrorEvent = true
		}
	})

	if err := CBZ(comic, downloadDir, t.TempDir(), notify); err == nil {
		t.Fatal("expected an error for an empty source directory")
	}
	if !gotErrorEvent {
		t.Error("expected an Error event to be published")
	}
}
