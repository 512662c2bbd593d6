// Package sqlite is a relational album cache built on database/sql and the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/albumsync/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS album (
	id TEXT PRIMARY KEY,
	playlist_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	song_count INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	explicit INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME NOT NULL,
	bookmarked_at DATETIME,
	in_library INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS artist (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS album_artist (
	album_id TEXT NOT NULL REFERENCES album(id) ON DELETE CASCADE,
	artist_id TEXT NOT NULL,
	artist_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (album_id, position)
);

CREATE TABLE IF NOT EXISTS song (
	album_id TEXT NOT NULL REFERENCES album(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	id TEXT NOT NULL,
	title TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	explicit INTEGER NOT NULL DEFAULT 0,
	artists_json TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (album_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_song_id ON song(id);
CREATE INDEX IF NOT EXISTS idx_album_title ON album(title);
`

// Store implements domain.AlbumStore on SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewStore creates or opens the album database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time keeps SQLITE_BUSY out of concurrent syncs.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: path, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) Album(albumID string) (*domain.AlbumWithSongs, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	album, err := readAlbum(tx, albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read album %s: %w", albumID, err)
	}

	songs, err := readSongs(tx, albumID)
	if err != nil {
		return nil, fmt.Errorf("read songs for album %s: %w", albumID, err)
	}
	return &domain.AlbumWithSongs{Album: *album, Songs: songs}, tx.Commit()
}

func (s *Store) Albums() ([]domain.Album, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM album ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	albums := make([]domain.Album, 0, len(ids))
	for _, id := range ids {
		a, err := readAlbum(tx, id)
		if err != nil {
			return nil, fmt.Errorf("read album %s: %w", id, err)
		}
		albums = append(albums, *a)
	}
	return albums, tx.Commit()
}

func (s *Store) Insert(albumID string, page *domain.AlbumPage) (*domain.AlbumWithSongs, error) {
	rec := &domain.AlbumWithSongs{
		Album: page.ToAlbum(albumID, s.now().UTC()),
		Songs: page.ToSongs(albumID),
	}

	err := s.withTx(func(tx *sql.Tx) error {
		exists, err := albumExists(tx, rec.Album.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("insert album %s: %w", rec.Album.ID, domain.ErrAlbumExists)
		}
		return writeRecord(tx, rec, false)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Update(existing *domain.Album, page *domain.AlbumPage) (*domain.AlbumWithSongs, error) {
	merged := domain.MergeAlbum(*existing, page, s.now().UTC())
	songs := page.ToSongs(merged.ID)
	rec := &domain.AlbumWithSongs{Album: merged, Songs: songs}

	err := s.withTx(func(tx *sql.Tx) error {
		exists, err := albumExists(tx, merged.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("update album %s: %w", merged.ID, domain.ErrAlbumNotCached)
		}
		return writeRecord(tx, rec, true)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Delete(existing *domain.Album) error {
	return s.withTx(func(tx *sql.Tx) error {
		// Songs and artist mappings go with the album via cascade.
		res, err := tx.Exec(`DELETE FROM album WHERE id = ?`, existing.ID)
		if err != nil {
			return fmt.Errorf("delete album %s: %w", existing.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete album %s: %w", existing.ID, domain.ErrAlbumNotCached)
		}
		return nil
	})
}

// InvalidateAll wipes the entire cache
func (s *Store) InvalidateAll() error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM album`, `DELETE FROM artist`} {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
