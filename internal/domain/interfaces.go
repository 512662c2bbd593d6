package domain

import "context"

// AlbumClient fetches authoritative album data (implemented by metadata service clients)
type AlbumClient interface {
	// Album returns the album page, or an error whose message carries
	// NotFoundMarker when the service reports the album does not exist.
	Album(ctx context.Context, albumID string) (*AlbumPage, error)
}

// AlbumStore is the local album cache. Every method runs in its own transaction.
type AlbumStore interface {
	// Album returns the cached album with songs, or (nil, nil) when absent
	Album(albumID string) (*AlbumWithSongs, error)

	// Albums returns every cached album without songs, ordered by title
	Albums() ([]Album, error)

	// Insert stores a page as a new cache entry under albumID
	Insert(albumID string, page *AlbumPage) (*AlbumWithSongs, error)

	// Update merges a page into an existing entry, keeping local-only fields
	Update(existing *Album, page *AlbumPage) (*AlbumWithSongs, error)

	// Delete removes an entry and the songs it owns
	Delete(existing *Album) error

	// InvalidateAll removes every cached album
	InvalidateAll() error

	Close() error
}

// Reporter receives fetch failures for diagnostics.
// Report must return immediately; delivery is best effort.
type Reporter interface {
	Report(err error)
}

// NoOpReporter discards reports (for testing/batch operations).
type NoOpReporter struct{}

func (NoOpReporter) Report(error) {}
