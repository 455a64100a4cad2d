package command

import (
	"path/filepath"
	"testing"
)

func TestResolvePathKeepsAbsolutePathUnchanged(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "somewhere", "else")
	if got := resolvePath("/app/data", abs); got != abs {
		t.Errorf("got %q, want %q", got, abs)
	}
}

func TestResolvePathJoinsRelativePathAgainstBase(t *testing.T) {
	got := resolvePath("/app/data", "downloads")
	want := filepath.Join("/app/data", "downloads")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
