package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hitomidl/hitomidl/internal/model"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got := Load(t.TempDir())
	want := model.Default()
	if got != want {
		t.Errorf("got %+v, want defaults %+v", got, want)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := model.Default()
	cfg.DownloadDir = "custom-download"
	cfg.DirFmt = "{title}"

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	got := Load(dir)
	if got != cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}

func TestLoadOverlaysPartialConfigOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fileName)

	// Simulate an older config.json missing keys a newer version added.
	partial := `{"downloadDir": "only-this-key"}`
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("failed to write partial config: %s", err)
	}

	got := Load(dir)
	if got.DownloadDir != "only-this-key" {
		t.Errorf("DownloadDir = %q, want %q", got.DownloadDir, "only-this-key")
	}
	if got.DirFmt != model.Default().DirFmt {
		t.Errorf("DirFmt should fall back to the default, got %q", got.DirFmt)
	}
}

func TestLoadCorruptJSONFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt config: %s", err)
	}

	got := Load(dir)
	if got != model.Default() {
		t.Errorf("got %+v, want defaults", got)
	}
}
