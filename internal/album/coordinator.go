package album

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/albumsync/internal/domain"
	"github.com/mmcdole/albumsync/internal/state"
)

// Outcome describes what a reconciliation did to the local cache
type Outcome int

const (
	OutcomeKept Outcome = iota // Fetch failed, cache left as it was
	OutcomeInserted
	OutcomeUpdated
	OutcomeDeleted
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeKept:
		return "kept"
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result summarizes one reconciliation
type Result struct {
	AlbumID  string
	Outcome  Outcome
	FetchErr error            // Remote failure, nil on success
	Kind     domain.ErrorKind // Classification of FetchErr
	StoreErr error            // Local write failure, already reported
}

// Deps bundles the collaborators a Coordinator needs
type Deps struct {
	Client   domain.AlbumClient
	Store    domain.AlbumStore
	Reporter domain.Reporter
	Logger   *slog.Logger
}

// Coordinator reconciles one remote album with its local cache entry.
// It runs at most once; discard it and create a new one to sync again.
type Coordinator struct {
	albumID  string
	client   domain.AlbumClient
	store    domain.AlbumStore
	reporter domain.Reporter
	logger   *slog.Logger

	albumWithSongs *state.Slot[*domain.AlbumWithSongs]
	otherVersions  *state.Slot[[]domain.AlbumItem]

	once   sync.Once
	handle *Handle
}

// NewCoordinator creates a coordinator for albumID.
func NewCoordinator(albumID string, deps Deps) (*Coordinator, error) {
	if albumID == "" {
		return nil, domain.ErrEmptyAlbumID
	}
	if deps.Client == nil || deps.Store == nil {
		return nil, fmt.Errorf("album %s: client and store are required", albumID)
	}
	if deps.Reporter == nil {
		deps.Reporter = domain.NoOpReporter{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Coordinator{
		albumID:        albumID,
		client:         deps.Client,
		store:          deps.Store,
		reporter:       deps.Reporter,
		logger:         deps.Logger.With("albumID", albumID),
		albumWithSongs: state.NewSlot[*domain.AlbumWithSongs](nil),
		otherVersions:  state.NewSlot([]domain.AlbumItem{}),
	}, nil
}

// AlbumID returns the album this coordinator reconciles
func (c *Coordinator) AlbumID() string { return c.albumID }

// AlbumWithSongs is the local record as last observed (nil when absent)
func (c *Coordinator) AlbumWithSongs() *state.Slot[*domain.AlbumWithSongs] {
	return c.albumWithSongs
}

// OtherVersions is the alternate releases list from the last successful fetch
func (c *Coordinator) OtherVersions() *state.Slot[[]domain.AlbumItem] {
	return c.otherVersions
}

// Start launches the reconciliation. Later calls return the first handle.
func (c *Coordinator) Start(ctx context.Context) *Handle {
	c.once.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		h := &Handle{cancel: cancel, done: make(chan struct{})}
		c.handle = h
		go func() {
			defer close(h.done)
			defer cancel()
			h.result = c.synchronize(runCtx)
		}()
	})
	return c.handle
}

// Run starts the reconciliation and waits for it.
func (c *Coordinator) Run(ctx context.Context) Result {
	return c.Start(ctx).Wait()
}

// synchronize reads the cache, fetches once, and applies the outcome.
func (c *Coordinator) synchronize(ctx context.Context) Result {
	res := Result{AlbumID: c.albumID}

	existing, err := c.store.Album(c.albumID)
	if err != nil {
		// Treat an unreadable row like a missing one; the fetch decides what happens next.
		c.logger.Error("failed to read cached album", "error", err)
		existing = nil
	}
	c.albumWithSongs.Set(existing)

	page, fetchErr := c.client.Album(ctx, c.albumID)
	if ctx.Err() != nil {
		res.Outcome = OutcomeCanceled
		res.FetchErr = ctx.Err()
		c.logger.Debug("sync canceled")
		return res
	}

	if fetchErr != nil {
		return c.applyFailure(existing, fetchErr, res)
	}
	return c.applySuccess(existing, page, res)
}

func (c *Coordinator) applySuccess(existing *domain.AlbumWithSongs, page *domain.AlbumPage, res Result) Result {
	versions := page.OtherVersions
	if versions == nil {
		versions = []domain.AlbumItem{}
	}
	c.otherVersions.Set(versions)

	var (
		saved *domain.AlbumWithSongs
		err   error
	)
	if existing == nil {
		saved, err = c.store.Insert(c.albumID, page)
		res.Outcome = OutcomeInserted
	} else {
		saved, err = c.store.Update(&existing.Album, page)
		res.Outcome = OutcomeUpdated
	}
	if err != nil {
		c.logger.Error("failed to save album", "error", err, "outcome", res.Outcome)
		c.reporter.Report(fmt.Errorf("save album %s: %w", c.albumID, err))
		res.StoreErr = err
		return res
	}

	c.albumWithSongs.Set(saved)
	c.logger.Info("album synced", "outcome", res.Outcome, "songs", len(saved.Songs), "versions", len(versions))
	return res
}

// applyFailure sends exactly one report. A failed delete is joined onto the
// fetch error rather than reported separately.
func (c *Coordinator) applyFailure(existing *domain.AlbumWithSongs, fetchErr error, res Result) Result {
	res.FetchErr = fetchErr
	res.Kind = domain.Classify(fetchErr)
	res.Outcome = OutcomeKept

	if res.Kind != domain.KindNotFound || existing == nil {
		c.logger.Warn("album fetch failed", "error", fetchErr, "kind", res.Kind, "cached", existing != nil)
		c.reporter.Report(fetchErr)
		return res
	}

	if err := c.store.Delete(&existing.Album); err != nil {
		c.logger.Error("failed to delete stale album", "error", err)
		c.reporter.Report(errors.Join(fetchErr, fmt.Errorf("delete album %s: %w", c.albumID, err)))
		res.StoreErr = err
		return res
	}

	c.reporter.Report(fetchErr)
	res.Outcome = OutcomeDeleted
	c.albumWithSongs.Set(nil)
	c.logger.Info("removed album no longer on server")
	return res
}
