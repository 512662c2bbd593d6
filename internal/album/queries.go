package album

import (
	"log/slog"

	"github.com/mmcdole/albumsync/internal/domain"
	"github.com/mmcdole/albumsync/internal/search"
)

// Queries provides synchronous, cache-only reads. Never touches the network.
type Queries struct {
	store  domain.AlbumStore
	logger *slog.Logger
}

// NewQueries creates a new Queries instance.
func NewQueries(store domain.AlbumStore, logger *slog.Logger) *Queries {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queries{store: store, logger: logger}
}

func (q *Queries) Album(albumID string) (*domain.AlbumWithSongs, error) {
	if albumID == "" {
		return nil, domain.ErrEmptyAlbumID
	}
	return q.store.Album(albumID)
}

func (q *Queries) Albums() ([]domain.Album, error) {
	return q.store.Albums()
}

// Search fuzzy-matches query against cached album titles and artists
func (q *Queries) Search(query string) ([]search.Result, error) {
	albums, err := q.store.Albums()
	if err != nil {
		q.logger.Error("failed to list cached albums", "error", err)
		return nil, err
	}
	results := search.Albums(query, albums)
	q.logger.Debug("searched cache", "query", query, "candidates", len(albums), "results", len(results))
	return results, nil
}
