// Package indexcache persists the remote index's two version strings
// across process restarts: gorm over glebarez/sqlite, a single
// AutoMigrate call, and a thin typed wrapper around the table. This is
// purely an acceleration layer. internal/hitomi/index.Client works
// without it, and falls back to fetching a fresh version whenever the
// cache misses.
package indexcache

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
)

// versionEntry is the single gorm-managed table: one row per index name
// ("tagindex"/"galleriesindex"), keyed by Name.
type versionEntry struct {
	Name    string `gorm:"primaryKey"`
	Version string
}

// Cache is a gorm/sqlite-backed implementation of index.VersionCache.
type Cache struct {
	db *gorm.DB
}

// Open opens (creating as needed) the sqlite database at path and migrates
// its schema.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open index cache database %s: %s", hitomierr.ErrFilesystem, path, err)
	}

	if err := db.AutoMigrate(&versionEntry{}); err != nil {
		return nil, fmt.Errorf("%w: failed to migrate index cache schema: %s", hitomierr.ErrFilesystem, err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to close index cache, can't read inner connection: %w", err)
	}
	return sqlDB.Close()
}

// Get implements index.VersionCache.
func (c *Cache) Get(name string) (string, bool) {
	var row versionEntry
	if err := c.db.First(&row, "name = ?", name).Error; err != nil {
		return "", false
	}
	return row.Version, true
}

// Set implements index.VersionCache.
func (c *Cache) Set(name, version string) {
	c.db.Save(&versionEntry{Name: name, Version: version})
}
