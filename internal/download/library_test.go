package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hitomidl/hitomidl/internal/model"
)

func writeMetadata(t *testing.T, downloadDir, dirName string, comic model.Comic) {
	t.Helper()

	dir := filepath.Join(downloadDir, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %s", dir, err)
	}

	data, err := comic.MarshalMetadata()
	if err != nil {
		t.Fatalf("failed to marshal metadata: %s", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644); err != nil {
		t.Fatalf("failed to write metadata.json: %s", err)
	}
}

func TestScanDownloadedReadsEveryMetadataFile(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, "1 first", model.Comic{ID: 1, Title: "first"})
	writeMetadata(t, dir, "2 second", model.Comic{ID: 2, Title: "second"})

	if err := os.MkdirAll(filepath.Join(dir, ".downloading-stale"), 0o755); err != nil {
		t.Fatalf("failed to create stale temp dir: %s", err)
	}

	comics, err := ScanDownloaded(dir)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(comics) != 2 {
		t.Fatalf("got %d comics, want 2", len(comics))
	}

	for _, c := range comics {
		if !c.IsDownloaded {
			t.Errorf("comic %d: IsDownloaded should be true", c.ID)
		}
		if c.DirName == "" {
			t.Errorf("comic %d: DirName should be set", c.ID)
		}
	}
}

func TestScanDownloadedSkipsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, "1 a", model.Comic{ID: 1, Title: "a"})
	writeMetadata(t, dir, "1 b", model.Comic{ID: 1, Title: "b"})

	comics, err := ScanDownloaded(dir)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(comics) != 1 {
		t.Fatalf("got %d comics, want 1 (duplicate id should be skipped)", len(comics))
	}
}

func TestScanDownloadedMissingDirectoryIsNotAnError(t *testing.T) {
	comics, err := ScanDownloaded(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if comics != nil {
		t.Errorf("got %v, want nil", comics)
	}
}

func TestSyncFindsComicByIDRegardlessOfStoredDirName(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, "renamed by user", model.Comic{ID: 42, Title: "forty-two"})

	comic := model.Comic{ID: 42, DirName: "stale-dir-name"}
	synced := Sync(dir, comic)

	if !synced.IsDownloaded {
		t.Error("expected IsDownloaded to become true")
	}
	if synced.DirName != "renamed by user" {
		t.Errorf("DirName = %q, want %q", synced.DirName, "renamed by user")
	}
}

func TestSyncReportsNotDownloadedWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	synced := Sync(dir, model.Comic{ID: 7})

	if synced.IsDownloaded {
		t.Error("expected IsDownloaded to be false")
	}
	if synced.DirName != "" {
		t.Errorf("DirName = %q, want empty", synced.DirName)
	}
}
