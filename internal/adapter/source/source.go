package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/albumsync/internal/adapter"
	"github.com/mmcdole/albumsync/internal/adapter/source/musicapi"
	"github.com/mmcdole/albumsync/internal/domain"
)

// NewClient creates the album metadata client described by cfg.
func NewClient(cfg *adapter.APIConfig, logger *slog.Logger) (domain.AlbumClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("api config is nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}

	return musicapi.NewClient(musicapi.Options{
		BaseURL:       cfg.BaseURL,
		Key:           cfg.Key,
		HL:            cfg.HL,
		GL:            cfg.GL,
		ClientName:    cfg.ClientName,
		ClientVersion: cfg.ClientVersion,
		Timeout:       cfg.Timeout,
	}, logger)
}

// NewClientFromConfig creates an AlbumClient from the application config
func NewClientFromConfig(cfg *adapter.Config, logger *slog.Logger) (domain.AlbumClient, error) {
	return NewClient(&cfg.API, logger)
}
