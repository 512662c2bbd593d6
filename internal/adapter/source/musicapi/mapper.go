package musicapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/albumsync/internal/domain"
)

// MapAlbumPage converts a browse response to a domain AlbumPage
func MapAlbumPage(resp *BrowseResponse) *domain.AlbumPage {
	page := &domain.AlbumPage{
		Album:         MapAlbumItem(resp.Album),
		Songs:         make([]domain.Song, 0, len(resp.Tracks)),
		OtherVersions: make([]domain.AlbumItem, 0, len(resp.OtherVersions)),
	}
	for i, t := range resp.Tracks {
		page.Songs = append(page.Songs, MapSong(t, page.Album, i))
	}
	for _, v := range resp.OtherVersions {
		// The service sometimes lists the album itself among its versions
		if v.BrowseID == "" || v.BrowseID == resp.Album.BrowseID {
			continue
		}
		page.OtherVersions = append(page.OtherVersions, MapAlbumItem(v))
	}
	return page
}

// MapAlbumItem converts an album DTO to a domain AlbumItem
func MapAlbumItem(a AlbumDTO) domain.AlbumItem {
	return domain.AlbumItem{
		BrowseID:     a.BrowseID,
		PlaylistID:   a.PlaylistID,
		Title:        a.Title,
		Artists:      mapArtists(a.Artists),
		Year:         parseYear(a.Year),
		ThumbnailURL: bestThumbnail(a.Thumbnails),
		Explicit:     a.Explicit,
	}
}

// MapSong converts a track DTO; artists fall back to the album credit
func MapSong(t TrackDTO, album domain.AlbumItem, index int) domain.Song {
	artists := mapArtists(t.Artists)
	if len(artists) == 0 {
		artists = album.Artists
	}
	return domain.Song{
		ID:           t.VideoID,
		Title:        t.Title,
		Artists:      artists,
		AlbumID:      album.BrowseID,
		Duration:     parseDuration(t.Duration),
		ThumbnailURL: bestThumbnail(t.Thumbnails),
		Explicit:     t.Explicit,
		Index:        index,
	}
}

func mapArtists(in []ArtistDTO) []domain.Artist {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Artist, 0, len(in))
	for _, a := range in {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		out = append(out, domain.Artist{ID: a.ID, Name: name})
	}
	return out
}

// bestThumbnail picks the widest rendition
func bestThumbnail(thumbs []ThumbnailDTO) string {
	best := ""
	bestWidth := -1
	for _, t := range thumbs {
		if t.URL != "" && t.Width > bestWidth {
			best = t.URL
			bestWidth = t.Width
		}
	}
	return best
}

func parseYear(s string) int {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 0 {
		return 0
	}
	return year
}

// parseDuration reads "ss", "m:ss" or "h:mm:ss". Unparseable text yields 0.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	var total int
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
