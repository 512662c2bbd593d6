package adapter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mmcdole/albumsync/internal/domain"
	"github.com/mmcdole/albumsync/internal/store"
	"github.com/mmcdole/albumsync/internal/store/sqlite"
)

// OpenStore opens the album cache selected by cfg.Store.Backend
func OpenStore(cfg *Config, logger *slog.Logger) (domain.AlbumStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := expandHome(cfg.Store.Dir)
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case StoreBackendBolt, "":
		s, err := store.NewAlbumStore(dir, cfg.API.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt cache: %w", err)
		}
		logger.Debug("opened album cache", "backend", StoreBackendBolt, "dir", dir)
		return s, nil

	case StoreBackendSQLite:
		if dir == "" {
			return nil, fmt.Errorf("sqlite backend requires store.dir")
		}
		s, err := sqlite.NewStore(filepath.Join(dir, "albums.sqlite"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}
		logger.Debug("opened album cache", "backend", StoreBackendSQLite, "path", s.Path())
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
