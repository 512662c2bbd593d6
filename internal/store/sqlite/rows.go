package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmcdole/albumsync/internal/domain"
)

func albumExists(tx *sql.Tx, id string) (bool, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM album WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func readAlbum(tx *sql.Tx, id string) (*domain.Album, error) {
	var (
		a          domain.Album
		durationMS int64
		explicit   int
		inLibrary  int
		bookmarked sql.NullTime
	)
	err := tx.QueryRow(`
		SELECT id, playlist_id, title, year, thumbnail_url, song_count, duration_ms,
		       explicit, last_updated, bookmarked_at, in_library
		FROM album WHERE id = ?`, id).Scan(
		&a.ID, &a.PlaylistID, &a.Title, &a.Year, &a.ThumbnailURL, &a.SongCount, &durationMS,
		&explicit, &a.LastUpdated, &bookmarked, &inLibrary,
	)
	if err != nil {
		return nil, err
	}
	a.Duration = time.Duration(durationMS) * time.Millisecond
	a.Explicit = explicit != 0
	a.InLibrary = inLibrary != 0
	if bookmarked.Valid {
		t := bookmarked.Time
		a.BookmarkedAt = &t
	}

	rows, err := tx.Query(`SELECT artist_id, artist_name FROM album_artist WHERE album_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var artist domain.Artist
		if err := rows.Scan(&artist.ID, &artist.Name); err != nil {
			return nil, err
		}
		a.Artists = append(a.Artists, artist)
	}
	return &a, rows.Err()
}

func readSongs(tx *sql.Tx, albumID string) ([]domain.Song, error) {
	rows, err := tx.Query(`
		SELECT id, title, album_id, duration_ms, thumbnail_url, explicit, artists_json, idx
		FROM song WHERE album_id = ?
		ORDER BY idx`, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []domain.Song{}
	for rows.Next() {
		var (
			song        domain.Song
			durationMS  int64
			explicit    int
			artistsJSON string
		)
		if err := rows.Scan(&song.ID, &song.Title, &song.AlbumID, &durationMS, &song.ThumbnailURL,
			&explicit, &artistsJSON, &song.Index); err != nil {
			return nil, err
		}
		song.Duration = time.Duration(durationMS) * time.Millisecond
		song.Explicit = explicit != 0
		if err := json.Unmarshal([]byte(artistsJSON), &song.Artists); err != nil {
			return nil, fmt.Errorf("decode artists for song %s: %w", song.ID, err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// writeRecord stores album, artists and songs. With replace set the existing
// row is updated in place and the song list is rebuilt from rec.
func writeRecord(tx *sql.Tx, rec *domain.AlbumWithSongs, replace bool) error {
	a := rec.Album
	var bookmarked interface{}
	if a.BookmarkedAt != nil {
		bookmarked = a.BookmarkedAt.UTC()
	}

	if replace {
		_, err := tx.Exec(`
			UPDATE album SET playlist_id = ?, title = ?, year = ?, thumbnail_url = ?, song_count = ?,
			       duration_ms = ?, explicit = ?, last_updated = ?, bookmarked_at = ?, in_library = ?
			WHERE id = ?`,
			a.PlaylistID, a.Title, a.Year, a.ThumbnailURL, a.SongCount,
			a.Duration.Milliseconds(), boolInt(a.Explicit), a.LastUpdated.UTC(), bookmarked, boolInt(a.InLibrary),
			a.ID)
		if err != nil {
			return fmt.Errorf("update album %s: %w", a.ID, err)
		}
		for _, stmt := range []string{
			`DELETE FROM song WHERE album_id = ?`,
			`DELETE FROM album_artist WHERE album_id = ?`,
		} {
			if _, err := tx.Exec(stmt, a.ID); err != nil {
				return fmt.Errorf("clear mappings for album %s: %w", a.ID, err)
			}
		}
	} else {
		_, err := tx.Exec(`
			INSERT INTO album (id, playlist_id, title, year, thumbnail_url, song_count, duration_ms,
			                   explicit, last_updated, bookmarked_at, in_library)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.PlaylistID, a.Title, a.Year, a.ThumbnailURL, a.SongCount, a.Duration.Milliseconds(),
			boolInt(a.Explicit), a.LastUpdated.UTC(), bookmarked, boolInt(a.InLibrary))
		if err != nil {
			return fmt.Errorf("insert album %s: %w", a.ID, err)
		}
	}

	for i, artist := range a.Artists {
		if artist.ID != "" {
			_, err := tx.Exec(`INSERT INTO artist (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name`, artist.ID, artist.Name)
			if err != nil {
				return fmt.Errorf("upsert artist %s: %w", artist.ID, err)
			}
		}
		_, err := tx.Exec(`INSERT INTO album_artist (album_id, artist_id, artist_name, position) VALUES (?, ?, ?, ?)`,
			a.ID, artist.ID, artist.Name, i)
		if err != nil {
			return fmt.Errorf("map artist to album %s: %w", a.ID, err)
		}
	}

	for _, song := range rec.Songs {
		artists := song.Artists
		if artists == nil {
			artists = []domain.Artist{}
		}
		artistsJSON, err := json.Marshal(artists)
		if err != nil {
			return fmt.Errorf("encode artists for song %s: %w", song.ID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO song (album_id, idx, id, title, duration_ms, thumbnail_url, explicit, artists_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, song.Index, song.ID, song.Title, song.Duration.Milliseconds(), song.ThumbnailURL,
			boolInt(song.Explicit), string(artistsJSON))
		if err != nil {
			return fmt.Errorf("insert song %s for album %s: %w", song.ID, a.ID, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
