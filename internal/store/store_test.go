package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/albumsync/internal/domain"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func samplePage(id, title string, songTitles ...string) *domain.AlbumPage {
	page := &domain.AlbumPage{
		Album: domain.AlbumItem{
			BrowseID:     id,
			PlaylistID:   "PL" + id,
			Title:        title,
			Artists:      []domain.Artist{{ID: "UC1", Name: "Artist"}},
			Year:         2013,
			ThumbnailURL: "https://img/" + id,
		},
	}
	for i, t := range songTitles {
		page.Songs = append(page.Songs, domain.Song{
			ID:       id + "-s" + string(rune('0'+i)),
			Title:    t,
			Duration: 3 * time.Minute,
		})
	}
	return page
}

// openStores returns a disk-backed and a memory-only store so every test covers both modes.
func openStores(t *testing.T) map[string]*AlbumStore {
	t.Helper()

	disk, err := NewAlbumStore(t.TempDir(), "https://music.example.com/")
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	mem, err := NewAlbumStore("", "")
	require.NoError(t, err)

	for _, s := range []*AlbumStore{disk, mem} {
		s.now = func() time.Time { return fixedNow }
	}
	return map[string]*AlbumStore{"bolt": disk, "memory": mem}
}

func TestAlbumMissing(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.Album("nope")
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestInsertThenRead(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			inserted, err := s.Insert("A1", samplePage("A1", "X", "one", "two"))
			require.NoError(t, err)

			got, err := s.Album("A1")
			require.NoError(t, err)
			require.NotNil(t, got)

			if diff := cmp.Diff(inserted, got); diff != "" {
				t.Fatalf("read back differs (-inserted +got):\n%s", diff)
			}
			assert.Equal(t, "X", got.Album.Title)
			assert.Equal(t, 2, got.Album.SongCount)
			assert.Equal(t, 6*time.Minute, got.Album.Duration)
			require.Len(t, got.Songs, 2)
			assert.Equal(t, "A1", got.Songs[1].AlbumID)
			assert.Equal(t, 1, got.Songs[1].Index)
			assert.Equal(t, "https://img/A1", got.Songs[0].ThumbnailURL)
		})
	}
}

func TestInsertExistingFails(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert("A1", samplePage("A1", "X"))
			require.NoError(t, err)

			_, err = s.Insert("A1", samplePage("A1", "Y"))
			assert.True(t, errors.Is(err, domain.ErrAlbumExists), "got %v", err)

			got, err := s.Album("A1")
			require.NoError(t, err)
			assert.Equal(t, "X", got.Album.Title)
		})
	}
}

func TestUpdateMergesLocalFields(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert("A1", samplePage("A1", "X", "one", "two", "three"))
			require.NoError(t, err)

			bookmarked := fixedNow.Add(-time.Hour)
			existing := domain.Album{ID: "A1", Title: "X", BookmarkedAt: &bookmarked, InLibrary: true}

			updated, err := s.Update(&existing, samplePage("A1", "X (Deluxe)", "one"))
			require.NoError(t, err)

			got, err := s.Album("A1")
			require.NoError(t, err)
			if diff := cmp.Diff(updated, got); diff != "" {
				t.Fatalf("read back differs (-updated +got):\n%s", diff)
			}
			assert.Equal(t, "X (Deluxe)", got.Album.Title)
			assert.True(t, got.Album.InLibrary)
			require.NotNil(t, got.Album.BookmarkedAt)
			assert.True(t, bookmarked.Equal(*got.Album.BookmarkedAt))
			assert.Len(t, got.Songs, 1)
			assert.Equal(t, 1, got.Album.SongCount)
		})
	}
}

func TestUpdateMissingFails(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Update(&domain.Album{ID: "ghost"}, samplePage("ghost", "G"))
			assert.ErrorIs(t, err, domain.ErrAlbumNotCached)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.Insert("A1", samplePage("A1", "X", "one"))
			require.NoError(t, err)

			require.NoError(t, s.Delete(&rec.Album))

			got, err := s.Album("A1")
			require.NoError(t, err)
			assert.Nil(t, got)

			assert.ErrorIs(t, s.Delete(&rec.Album), domain.ErrAlbumNotCached)
		})
	}
}

func TestAlbumsSortedByTitle(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, p := range []*domain.AlbumPage{
				samplePage("A2", "Beta"),
				samplePage("A1", "Alpha"),
				samplePage("A3", "Gamma"),
			} {
				_, err := s.Insert(p.Album.BrowseID, p)
				require.NoError(t, err)
			}

			albums, err := s.Albums()
			require.NoError(t, err)
			require.Len(t, albums, 3)
			assert.Equal(t, []string{"Alpha", "Beta", "Gamma"},
				[]string{albums[0].Title, albums[1].Title, albums[2].Title})
		})
	}
}

func TestInvalidateAll(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert("A1", samplePage("A1", "X"))
			require.NoError(t, err)
			require.NoError(t, s.InvalidateAll())

			albums, err := s.Albums()
			require.NoError(t, err)
			assert.Empty(t, albums)
		})
	}
}

func TestInsertKeysByRequestedID(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.Insert("requested", samplePage("canonical", "X", "one"))
			require.NoError(t, err)
			assert.Equal(t, "requested", rec.Album.ID)
			assert.Equal(t, "requested", rec.Songs[0].AlbumID)

			got, err := s.Album("requested")
			require.NoError(t, err)
			require.NotNil(t, got)

			missing, err := s.Album("canonical")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewAlbumStore(dir, "https://music.example.com")
	require.NoError(t, err)
	_, err = s.Insert("A1", samplePage("A1", "X", "one"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Trailing slash and case differences map to the same database.
	reopened, err := NewAlbumStore(dir, "HTTPS://music.example.com/")
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Album("A1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Songs, 1)
}

func TestHashServerURLNormalizes(t *testing.T) {
	assert.Equal(t, hashServerURL("https://a.example/"), hashServerURL("HTTPS://A.EXAMPLE"))
	assert.NotEqual(t, hashServerURL("https://a.example"), hashServerURL("https://b.example"))
	assert.Len(t, hashServerURL("x"), 12)
}
