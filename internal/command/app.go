// Package command implements the request/response command surface: the
// thin boundary a front end talks to. Each exported App method is one
// command, wiring together the gg/index/gallery clients, the download
// manager, and the archive exporters behind a single typed entry point.
// cmd/hitomidl exposes the same methods as CLI subcommands.
package command

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hitomidl/hitomidl/internal/config"
	"github.com/hitomidl/hitomidl/internal/download"
	"github.com/hitomidl/hitomidl/internal/hitomi/gallery"
	"github.com/hitomidl/hitomidl/internal/hitomi/gg"
	"github.com/hitomidl/hitomidl/internal/hitomi/httpclient"
	"github.com/hitomidl/hitomidl/internal/hitomi/index"
	"github.com/hitomidl/hitomidl/internal/indexcache"
	"github.com/hitomidl/hitomidl/internal/logging"
	"github.com/hitomidl/hitomidl/internal/model"
)

// App is the process's single command surface instance. Construct with New.
type App struct {
	appDataDir string

	cfgMu sync.RWMutex
	cfg   model.Config

	pool    *httpclient.Pool
	gg      *gg.Table
	index   *index.Client
	gallery *gallery.Client
	manager *download.Manager

	idxCache *indexcache.Cache
}

// New builds an App rooted at the OS application-data directory, loading
// config.json (or falling back to defaults) and wiring every subsystem
// the command surface needs.
func New() (*App, error) {
	dir, err := config.AppDataDir()
	if err != nil {
		return nil, err
	}

	cfg := config.Load(dir)

	pool := httpclient.NewPool()
	if cfg.ProxyMode != model.ProxySystem {
		fellBack, rerr := pool.ReloadAll(cfg.ProxyMode, cfg.ProxyHost, cfg.ProxyPort)
		if rerr != nil {
			return nil, fmt.Errorf("apply proxy config: %w", rerr)
		}
		if fellBack {
			logging.Warnf("app", "custom proxy URL invalid at startup, falling back to system proxy")
		}
	}

	ggTable := gg.New(pool.API)
	idxClient := index.New(pool.API)

	var cache *indexcache.Cache
	if c, cerr := indexcache.Open(filepath.Join(dir, "indexcache.db")); cerr == nil {
		idxClient.SetVersionCache(c)
		cache = c
	} else {
		logging.Warnf("app", "index version cache unavailable, continuing without it: %s", cerr)
	}

	galleryClient := gallery.New(pool.API, ggTable)
	manager := download.New(ggTable, pool)

	if cfg.EnableFileLogger {
		if lerr := logging.EnableFileLogger(filepath.Join(dir, "logs")); lerr != nil {
			logging.Warnf("app", "failed to enable file logger: %s", lerr)
		}
	}

	return &App{
		appDataDir: dir,
		cfg:        cfg,
		pool:       pool,
		gg:         ggTable,
		index:      idxClient,
		gallery:    galleryClient,
		manager:    manager,
		idxCache:   cache,
	}, nil
}

// Close releases background resources (the download manager's speed
// ticker, the index version cache's sqlite connection).
func (a *App) Close() {
	a.manager.Close()
	if a.idxCache != nil {
		_ = a.idxCache.Close()
	}
}

// GetConfig implements the get_config command.
func (a *App) GetConfig() model.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg
}

// SaveConfig implements the save_config command: persists cfg to disk and
// hot-applies the parts of it that affect live state (proxy, file logger).
func (a *App) SaveConfig(cfg model.Config) error {
	if err := config.Save(a.appDataDir, cfg); err != nil {
		return err
	}

	a.cfgMu.Lock()
	old := a.cfg
	a.cfg = cfg
	a.cfgMu.Unlock()

	if old.ProxyMode != cfg.ProxyMode || old.ProxyHost != cfg.ProxyHost || old.ProxyPort != cfg.ProxyPort {
		fellBack, err := a.pool.ReloadAll(cfg.ProxyMode, cfg.ProxyHost, cfg.ProxyPort)
		if err != nil {
			return fmt.Errorf("apply proxy config: %w", err)
		}
		if fellBack {
			logging.Warnf("app", "custom proxy URL invalid, falling back to system proxy")
		}
	}

	if cfg.EnableFileLogger && !old.EnableFileLogger {
		if err := logging.EnableFileLogger(a.logsDir()); err != nil {
			return err
		}
	} else if !cfg.EnableFileLogger && old.EnableFileLogger {
		logging.DisableFileLogger()
	}

	return nil
}

func (a *App) downloadDir() string {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return resolvePath(a.appDataDir, a.cfg.DownloadDir)
}

func (a *App) exportDir() string {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return resolvePath(a.appDataDir, a.cfg.ExportDir)
}

func (a *App) dirTemplate() string {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg.DirFmt
}

func (a *App) downloadFormat() model.DownloadFormat {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg.DownloadFormat
}

func (a *App) logsDir() string {
	return filepath.Join(a.appDataDir, "logs")
}

// resolvePath resolves p against base when p is relative.
func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
