package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/albumsync/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketAlbums     = []byte("albums")
	bucketAlbumSongs = []byte("album_songs")
)

// AlbumStore implements domain.AlbumStore using BoltDB.
type AlbumStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache and serializes memory-only writes

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte

	now func() time.Time
}

// NewAlbumStore opens the album cache under baseCacheDir.
// Each metadata service URL gets its own database so switching servers never mixes albums.
func NewAlbumStore(baseCacheDir, serverURL string) (*AlbumStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &AlbumStore{cache: make(map[string][]byte), now: time.Now}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "albums.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAlbums, bucketAlbumSongs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &AlbumStore{db: db, cache: make(map[string][]byte), now: time.Now}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *AlbumStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// entry is one key/value destined for a single transaction
type entry struct {
	bucket []byte
	key    string
	data   []byte // nil means delete
}

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *AlbumStore) get(bucket []byte, key string, dest interface{}) (bool, error) {
	ck := cacheKey(bucket, key)

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return true, json.Unmarshal(data, dest)
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[ck] = data
	s.mu.Unlock()

	return true, json.Unmarshal(data, dest)
}

// commit applies entries atomically. check runs inside the transaction first
// and can veto the write by returning an error.
func (s *AlbumStore) commit(check func(exists func(bucket []byte, key string) bool) error, entries ...entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		if check != nil {
			err := check(func(bucket []byte, key string) bool {
				_, ok := s.cache[cacheKey(bucket, key)]
				return ok
			})
			if err != nil {
				return err
			}
		}
		s.applyToCache(entries)
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if check != nil {
			err := check(func(bucket []byte, key string) bool {
				b := tx.Bucket(bucket)
				return b != nil && b.Get([]byte(key)) != nil
			})
			if err != nil {
				return err
			}
		}
		for _, e := range entries {
			b := tx.Bucket(e.bucket)
			if e.data == nil {
				if err := b.Delete([]byte(e.key)); err != nil {
					return err
				}
				continue
			}
			if err := b.Put([]byte(e.key), e.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Only mirror into memory once the disk write is durable
	s.applyToCache(entries)
	return nil
}

func (s *AlbumStore) applyToCache(entries []entry) {
	for _, e := range entries {
		ck := cacheKey(e.bucket, e.key)
		if e.data == nil {
			delete(s.cache, ck)
		} else {
			s.cache[ck] = e.data
		}
	}
}

// === Albums ===

func (s *AlbumStore) Album(albumID string) (*domain.AlbumWithSongs, error) {
	var album domain.Album
	ok, err := s.get(bucketAlbums, albumID, &album)
	if err != nil {
		return nil, fmt.Errorf("read album %s: %w", albumID, err)
	}
	if !ok {
		return nil, nil
	}

	var songs []domain.Song
	if _, err := s.get(bucketAlbumSongs, albumID, &songs); err != nil {
		return nil, fmt.Errorf("read songs for album %s: %w", albumID, err)
	}
	return &domain.AlbumWithSongs{Album: album, Songs: songs}, nil
}

func (s *AlbumStore) Albums() ([]domain.Album, error) {
	var raw [][]byte

	if s.db == nil {
		prefix := string(bucketAlbums) + ":"
		s.mu.RLock()
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				raw = append(raw, v)
			}
		}
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketAlbums).ForEach(func(_, v []byte) error {
				data := make([]byte, len(v))
				copy(data, v)
				raw = append(raw, data)
				return nil
			})
		})
		if err != nil {
			return nil, fmt.Errorf("list albums: %w", err)
		}
	}

	albums := make([]domain.Album, 0, len(raw))
	for _, data := range raw {
		var a domain.Album
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("decode album: %w", err)
		}
		albums = append(albums, a)
	}
	sort.Slice(albums, func(i, j int) bool {
		if albums[i].Title != albums[j].Title {
			return albums[i].Title < albums[j].Title
		}
		return albums[i].ID < albums[j].ID
	})
	return albums, nil
}

func (s *AlbumStore) Insert(albumID string, page *domain.AlbumPage) (*domain.AlbumWithSongs, error) {
	rec := &domain.AlbumWithSongs{
		Album: page.ToAlbum(albumID, s.now()),
		Songs: page.ToSongs(albumID),
	}
	id := rec.Album.ID

	entries, err := recordEntries(rec)
	if err != nil {
		return nil, err
	}
	err = s.commit(func(exists func([]byte, string) bool) error {
		if exists(bucketAlbums, id) {
			return fmt.Errorf("insert album %s: %w", id, domain.ErrAlbumExists)
		}
		return nil
	}, entries...)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *AlbumStore) Update(existing *domain.Album, page *domain.AlbumPage) (*domain.AlbumWithSongs, error) {
	merged := domain.MergeAlbum(*existing, page, s.now())
	songs := page.ToSongs(merged.ID)
	rec := &domain.AlbumWithSongs{Album: merged, Songs: songs}

	entries, err := recordEntries(rec)
	if err != nil {
		return nil, err
	}
	err = s.commit(func(exists func([]byte, string) bool) error {
		if !exists(bucketAlbums, merged.ID) {
			return fmt.Errorf("update album %s: %w", merged.ID, domain.ErrAlbumNotCached)
		}
		return nil
	}, entries...)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *AlbumStore) Delete(existing *domain.Album) error {
	id := existing.ID
	return s.commit(func(exists func([]byte, string) bool) error {
		if !exists(bucketAlbums, id) {
			return fmt.Errorf("delete album %s: %w", id, domain.ErrAlbumNotCached)
		}
		return nil
	},
		entry{bucket: bucketAlbums, key: id},
		entry{bucket: bucketAlbumSongs, key: id},
	)
}

// InvalidateAll wipes the entire cache
func (s *AlbumStore) InvalidateAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string][]byte)
	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAlbums, bucketAlbumSongs} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func recordEntries(rec *domain.AlbumWithSongs) ([]entry, error) {
	albumData, err := json.Marshal(rec.Album)
	if err != nil {
		return nil, fmt.Errorf("encode album %s: %w", rec.Album.ID, err)
	}
	songs := rec.Songs
	if songs == nil {
		songs = []domain.Song{}
	}
	songData, err := json.Marshal(songs)
	if err != nil {
		return nil, fmt.Errorf("encode songs for album %s: %w", rec.Album.ID, err)
	}
	return []entry{
		{bucket: bucketAlbums, key: rec.Album.ID, data: albumData},
		{bucket: bucketAlbumSongs, key: rec.Album.ID, data: songData},
	}, nil
}
