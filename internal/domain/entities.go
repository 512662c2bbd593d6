package domain

import (
	"fmt"
	"strings"
	"time"
)

// Artist is a credited performer
type Artist struct {
	ID   string `json:"id,omitempty"` // Empty for uncredited/unlinked artists
	Name string `json:"name"`
}

// Album is the persisted album entity.
// Fields below LastUpdated are owned by the local cache and never come from the remote payload.
type Album struct {
	ID           string        `json:"id"`
	PlaylistID   string        `json:"playlistId,omitempty"` // Playlist that plays the whole album
	Title        string        `json:"title"`
	Year         int           `json:"year,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	SongCount    int           `json:"songCount"`
	Duration     time.Duration `json:"duration"`
	Explicit     bool          `json:"explicit,omitempty"`
	Artists      []Artist      `json:"artists,omitempty"`

	LastUpdated  time.Time  `json:"lastUpdated"`
	BookmarkedAt *time.Time `json:"bookmarkedAt,omitempty"` // Set when the user saved the album
	InLibrary    bool       `json:"inLibrary,omitempty"`
}

// ArtistNames returns the album artists joined for display
func (a Album) ArtistNames() string {
	return joinArtists(a.Artists)
}

// FormattedDuration returns the total runtime in a human-readable format
func (a Album) FormattedDuration() string {
	h := int(a.Duration.Hours())
	mins := int(a.Duration.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Song is a track belonging to an album
type Song struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Artists      []Artist      `json:"artists,omitempty"`
	AlbumID      string        `json:"albumId"`
	Duration     time.Duration `json:"duration"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	Explicit     bool          `json:"explicit,omitempty"`
	Index        int           `json:"index"` // Position within the album, 0-based
}

// ArtistNames returns the song artists joined for display
func (s Song) ArtistNames() string {
	return joinArtists(s.Artists)
}

// FormattedDuration returns the track length as m:ss
func (s Song) FormattedDuration() string {
	total := int(s.Duration.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// AlbumWithSongs is a cached album together with the songs it owns
type AlbumWithSongs struct {
	Album Album  `json:"album"`
	Songs []Song `json:"songs"`
}

// AlbumItem is an album summary as returned in listings and "other versions"
type AlbumItem struct {
	BrowseID     string   `json:"browseId"`
	PlaylistID   string   `json:"playlistId,omitempty"`
	Title        string   `json:"title"`
	Artists      []Artist `json:"artists,omitempty"`
	Year         int      `json:"year,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Explicit     bool     `json:"explicit,omitempty"`
}

// AlbumPage is the full remote response for one album
type AlbumPage struct {
	Album         AlbumItem
	Songs         []Song
	OtherVersions []AlbumItem
}

// ToAlbum builds the remote-owned part of an Album entity keyed by albumID.
// The service may answer with a canonical browse ID; the cache keeps the requested one.
// Local-only fields are left zero; callers merging into an existing row must carry them over.
func (p *AlbumPage) ToAlbum(albumID string, now time.Time) Album {
	var total time.Duration
	for _, s := range p.Songs {
		total += s.Duration
	}
	return Album{
		ID:           albumID,
		PlaylistID:   p.Album.PlaylistID,
		Title:        p.Album.Title,
		Year:         p.Album.Year,
		ThumbnailURL: p.Album.ThumbnailURL,
		SongCount:    len(p.Songs),
		Duration:     total,
		Explicit:     p.Album.Explicit,
		Artists:      p.Album.Artists,
		LastUpdated:  now,
	}
}

// ToSongs returns the page songs keyed to albumID, indexed in order
func (p *AlbumPage) ToSongs(albumID string) []Song {
	songs := make([]Song, len(p.Songs))
	for i, s := range p.Songs {
		s.AlbumID = albumID
		s.Index = i
		if s.ThumbnailURL == "" {
			s.ThumbnailURL = p.Album.ThumbnailURL
		}
		songs[i] = s
	}
	return songs
}

// MergeAlbum applies a fresh remote page onto an existing cached album.
// Local-only fields survive; everything the remote owns is replaced.
func MergeAlbum(existing Album, page *AlbumPage, now time.Time) Album {
	merged := page.ToAlbum(existing.ID, now)
	merged.BookmarkedAt = existing.BookmarkedAt
	merged.InLibrary = existing.InLibrary
	return merged
}

func joinArtists(artists []Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}
