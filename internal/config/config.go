// Package config loads and saves the application's config.json under the
// OS app-data directory, with forward-compatible "overlay defaults,
// retry" load semantics.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

const fileName = "config.json"

// AppDataDir resolves the OS-specific application data directory used for
// config.json and the logs/ subdirectory. A missing/unresolvable directory
// is a ConfigError.
func AppDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: could not resolve app data directory: %s", hitomierr.ErrConfig, err)
	}
	return filepath.Join(dir, "hitomi-downloader"), nil
}

// Load reads config.json from dir, overlays it onto the built-in defaults to
// cover any keys a newer version of this program might add, and returns the
// merged result. A missing file, or one that fails to parse even after the
// overlay retry, falls back to defaults entirely.
func Load(dir string) model.Config {
	cfg := model.Default()

	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := json.Unmarshal(data, &cfg); err == nil {
		return cfg
	}

	// Retry: overlay the raw JSON onto fresh defaults field by field via a
	// generic map merge, in case the file is an older/partial shape.
	merged := model.Default()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Default()
	}

	full, err := json.Marshal(merged)
	if err != nil {
		return model.Default()
	}
	var fullMap map[string]json.RawMessage
	if err := json.Unmarshal(full, &fullMap); err != nil {
		return model.Default()
	}
	for k, v := range raw {
		fullMap[k] = v
	}
	mergedData, err := json.Marshal(fullMap)
	if err != nil {
		return model.Default()
	}
	if err := json.Unmarshal(mergedData, &merged); err != nil {
		return model.Default()
	}

	return merged
}

// Save writes cfg to dir/config.json, creating dir as needed.
func Save(dir string, cfg model.Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create app data directory %s: %s", hitomierr.ErrFilesystem, dir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write config file %s: %s", hitomierr.ErrFilesystem, path, err)
	}

	return nil
}
