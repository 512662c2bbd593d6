package album

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmcdole/albumsync/internal/domain"
)

type fakeClient struct {
	mu    sync.Mutex
	pages map[string]*domain.AlbumPage
	errs  map[string]error
	calls map[string]int
	block chan struct{} // When set, Album waits on it or ctx
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages: map[string]*domain.AlbumPage{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeClient) Album(ctx context.Context, albumID string) (*domain.AlbumPage, error) {
	f.mu.Lock()
	f.calls[albumID]++
	page, err, block := f.pages[albumID], f.errs[albumID], f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, errors.New("no page configured")
	}
	return page, nil
}

func (f *fakeClient) Calls(albumID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[albumID]
}

// fakeStore keeps records in a map and counts calls
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.AlbumWithSongs
	readErr error
	saveErr error

	reads, inserts, updates, deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*domain.AlbumWithSongs{}}
}

func (s *fakeStore) Album(albumID string) (*domain.AlbumWithSongs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.records[albumID], nil
}

func (s *fakeStore) Albums() ([]domain.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Album, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Album)
	}
	return out, nil
}

func (s *fakeStore) Insert(albumID string, page *domain.AlbumPage) (*domain.AlbumWithSongs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	rec := &domain.AlbumWithSongs{Album: page.ToAlbum(albumID, time.Unix(0, 0)), Songs: page.ToSongs(albumID)}
	s.records[rec.Album.ID] = rec
	return rec, nil
}

func (s *fakeStore) Update(existing *domain.Album, page *domain.AlbumPage) (*domain.AlbumWithSongs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	rec := &domain.AlbumWithSongs{Album: domain.MergeAlbum(*existing, page, time.Unix(0, 0)), Songs: page.ToSongs(existing.ID)}
	s.records[existing.ID] = rec
	return rec, nil
}

func (s *fakeStore) Delete(existing *domain.Album) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.saveErr != nil {
		return s.saveErr
	}
	delete(s.records, existing.ID)
	return nil
}

func (s *fakeStore) InvalidateAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = map[string]*domain.AlbumWithSongs{}
	return nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts + s.updates + s.deletes
}

type fakeReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *fakeReporter) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *fakeReporter) Reports() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func albumPage(id string, versions ...string) *domain.AlbumPage {
	page := &domain.AlbumPage{
		Album: domain.AlbumItem{
			BrowseID: id,
			Title:    "Album " + id,
			Artists:  []domain.Artist{{ID: "UC1", Name: "Artist"}},
			Year:     2020,
		},
		Songs: []domain.Song{
			{ID: id + "-s1", Title: "One", Duration: 3 * time.Minute},
			{ID: id + "-s2", Title: "Two", Duration: 4 * time.Minute},
		},
		OtherVersions: []domain.AlbumItem{},
	}
	for _, v := range versions {
		page.OtherVersions = append(page.OtherVersions, domain.AlbumItem{BrowseID: v, Title: "Version " + v})
	}
	return page
}

func cachedRecord(id string) *domain.AlbumWithSongs {
	bookmarked := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.AlbumWithSongs{
		Album: domain.Album{
			ID:           id,
			Title:        "Old title",
			BookmarkedAt: &bookmarked,
			InLibrary:    true,
		},
		Songs: []domain.Song{{ID: "stale", Title: "Stale", AlbumID: id}},
	}
}
