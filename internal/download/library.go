package download

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hitomidl/hitomidl/internal/model"
)

// ScanDownloaded walks downloadDir's immediate children, parses each
// metadata.json, and reports every comic found with IsDownloaded/DirName
// filled in from filesystem context. A directory whose metadata.json is
// missing or unreadable is skipped silently; one whose metadata.json fails
// to parse is skipped and logged. Neither is treated as fatal.
func ScanDownloaded(downloadDir string) ([]model.Comic, error) {
	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []model.Comic
	seen := map[int]bool{}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".downloading-") {
			continue
		}

		comic, ok := loadMetadata(downloadDir, entry.Name())
		if !ok {
			continue
		}

		// Duplicate on-disk ids are expected; the first discovered wins,
		// the conflict is logged, nothing is deleted.
		if seen[comic.ID] {
			logWarn("duplicate on-disk copy of comic %d at %s ignored", comic.ID, entry.Name())
			continue
		}
		seen[comic.ID] = true

		out = append(out, comic)
	}

	return out, nil
}

func loadMetadata(downloadDir, dirName string) (model.Comic, bool) {
	path := filepath.Join(downloadDir, dirName, "metadata.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Comic{}, false
	}

	comic, err := model.UnmarshalMetadata(data)
	if err != nil {
		logWarn("failed to parse metadata at %s: %s", path, err)
		return model.Comic{}, false
	}

	comic.DirName = dirName
	comic.IsDownloaded = true
	return comic, true
}

// Sync refreshes IsDownloaded/DirName for comic by re-matching against
// downloadDir by id rather than trusting any previously stored directory
// path, so a user renaming the directory is tolerated.
func Sync(downloadDir string, comic model.Comic) model.Comic {
	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		comic.IsDownloaded = false
		comic.DirName = ""
		return comic
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".downloading-") {
			continue
		}
		found, ok := loadMetadata(downloadDir, entry.Name())
		if !ok || found.ID != comic.ID {
			continue
		}
		comic.IsDownloaded = true
		comic.DirName = found.DirName
		return comic
	}

	comic.IsDownloaded = false
	comic.DirName = ""
	return comic
}
