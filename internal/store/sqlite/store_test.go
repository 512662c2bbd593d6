package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/albumsync/internal/domain"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "albums.db"))
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { s.Close() })
	return s
}

func page(id, title string, songs ...string) *domain.AlbumPage {
	p := &domain.AlbumPage{Album: domain.AlbumItem{
		BrowseID: id,
		Title:    title,
		Year:     2020,
		Artists:  []domain.Artist{{ID: "UC1", Name: "First"}, {Name: "Guest"}},
	}}
	for _, s := range songs {
		p.Songs = append(p.Songs, domain.Song{
			ID:       id + "-" + s,
			Title:    s,
			Duration: 90 * time.Second,
			Artists:  []domain.Artist{{ID: "UC1", Name: "First"}},
		})
	}
	return p
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(1) FROM `+table).Scan(&n))
	return n
}

func TestMissingAlbum(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Album("A1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestInsertAndRead(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Insert("A1", page("A1", "X", "one", "two"))
	require.NoError(t, err)

	got, err := s.Album("A1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "X", got.Album.Title)
	assert.Equal(t, 2020, got.Album.Year)
	assert.Equal(t, 3*time.Minute, got.Album.Duration)
	assert.True(t, fixedNow.Equal(got.Album.LastUpdated))
	assert.Nil(t, got.Album.BookmarkedAt)
	assert.Equal(t, []domain.Artist{{ID: "UC1", Name: "First"}, {Name: "Guest"}}, got.Album.Artists)

	require.Len(t, got.Songs, 2)
	assert.Equal(t, "one", got.Songs[0].Title)
	assert.Equal(t, 1, got.Songs[1].Index)
	assert.Equal(t, "A1", got.Songs[1].AlbumID)
	assert.Equal(t, []domain.Artist{{ID: "UC1", Name: "First"}}, got.Songs[0].Artists)

	assert.Equal(t, 1, countRows(t, s, "artist"))
}

func TestInsertDuplicateRollsBack(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert("A1", page("A1", "X", "one"))
	require.NoError(t, err)

	_, err = s.Insert("A1", page("A1", "Y", "one", "two"))
	assert.ErrorIs(t, err, domain.ErrAlbumExists)
	assert.Equal(t, 1, countRows(t, s, "song"))
}

func TestUpdateKeepsLocalFieldsAndReplacesSongs(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert("A1", page("A1", "X", "one", "two", "three"))
	require.NoError(t, err)

	bookmarked := fixedNow.Add(-24 * time.Hour)
	existing := &domain.Album{ID: "A1", BookmarkedAt: &bookmarked, InLibrary: true}

	_, err = s.Update(existing, page("A1", "X (Remastered)", "one", "four"))
	require.NoError(t, err)

	got, err := s.Album("A1")
	require.NoError(t, err)
	assert.Equal(t, "X (Remastered)", got.Album.Title)
	assert.True(t, got.Album.InLibrary)
	require.NotNil(t, got.Album.BookmarkedAt)
	assert.True(t, bookmarked.Equal(*got.Album.BookmarkedAt))
	assert.Equal(t, 2, got.Album.SongCount)

	require.Len(t, got.Songs, 2)
	assert.Equal(t, "four", got.Songs[1].Title)
	assert.Equal(t, 2, countRows(t, s, "song"), "dropped songs should not linger")
}

func TestUpdateMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Update(&domain.Album{ID: "A1"}, page("A1", "X"))
	assert.ErrorIs(t, err, domain.ErrAlbumNotCached)
	assert.Equal(t, 0, countRows(t, s, "album"))
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Insert("A1", page("A1", "X", "one", "two"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(&rec.Album))

	got, err := s.Album("A1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, countRows(t, s, "song"))
	assert.Equal(t, 0, countRows(t, s, "album_artist"))

	assert.ErrorIs(t, s.Delete(&rec.Album), domain.ErrAlbumNotCached)
}

func TestSharedSongSurvivesOtherAlbum(t *testing.T) {
	s := newTestStore(t)

	standard := page("STD", "X", "one")
	deluxe := page("DLX", "X (Deluxe)", "one", "bonus")
	shared := domain.Song{ID: "shared", Title: "Shared", Duration: time.Minute}
	standard.Songs = append(standard.Songs, shared)
	deluxe.Songs = append(deluxe.Songs, shared)

	_, err := s.Insert("STD", standard)
	require.NoError(t, err)
	dlx, err := s.Insert("DLX", deluxe)
	require.NoError(t, err)

	got, err := s.Album("STD")
	require.NoError(t, err)
	require.Len(t, got.Songs, 2)
	assert.Equal(t, "STD", got.Songs[1].AlbumID)

	_, err = s.Update(&dlx.Album, page("DLX", "X (Deluxe)", "bonus"))
	require.NoError(t, err)
	got, err = s.Album("STD")
	require.NoError(t, err)
	assert.Len(t, got.Songs, 2, "updating one album must not touch another's songs")

	require.NoError(t, s.Delete(&dlx.Album))
	got, err = s.Album("STD")
	require.NoError(t, err)
	require.Len(t, got.Songs, 2, "deleting one album must not touch another's songs")
	assert.Equal(t, "shared", got.Songs[1].ID)
}

func TestInvalidateAll(t *testing.T) {
	s := newTestStore(t)
	for _, p := range []*domain.AlbumPage{page("A1", "Alpha", "one"), page("A2", "Beta", "two")} {
		_, err := s.Insert(p.Album.BrowseID, p)
		require.NoError(t, err)
	}

	require.NoError(t, s.InvalidateAll())

	albums, err := s.Albums()
	require.NoError(t, err)
	assert.Empty(t, albums)
	for _, table := range []string{"album", "artist", "album_artist", "song"} {
		assert.Equal(t, 0, countRows(t, s, table), table)
	}
}

func TestInsertKeysByRequestedID(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Insert("requested", page("canonical", "X", "one"))
	require.NoError(t, err)
	assert.Equal(t, "requested", rec.Album.ID)

	got, err := s.Album("requested")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "requested", got.Songs[0].AlbumID)

	missing, err := s.Album("canonical")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAlbumsOrdered(t *testing.T) {
	s := newTestStore(t)
	for _, p := range []*domain.AlbumPage{page("A2", "Beta"), page("A1", "Alpha")} {
		_, err := s.Insert(p.Album.BrowseID, p)
		require.NoError(t, err)
	}

	albums, err := s.Albums()
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "Alpha", albums[0].Title)
	assert.Len(t, albums[1].Artists, 2)
}
