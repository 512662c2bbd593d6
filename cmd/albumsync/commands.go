package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmcdole/albumsync/internal/adapter"
	"github.com/mmcdole/albumsync/internal/album"
	"github.com/mmcdole/albumsync/internal/domain"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <album-id>...",
		Short: "Fetch albums and reconcile them with the local cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd.Context(), args)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show <album-id>",
		Short: "Print a cached album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(args[0], asYAML)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search cached albums by title and artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(strings.Join(args, " "))
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached albums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList()
		},
	}
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local album cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached album",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.InvalidateAll(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			a.logger.Info("cache cleared")
			fmt.Fprintln(a.out, "cache cleared")
			return nil
		},
	})
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	var (
		baseURL string
		key     string
		force   bool
	)
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the config file",
		Annotations: map[string]string{skipSetup: "true"},
	}
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file with default values",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigInit(baseURL, key, force)
		},
	}
	initCmd.Flags().StringVar(&baseURL, "base-url", "", "metadata service base URL")
	initCmd.Flags().StringVar(&key, "key", "", "metadata service API key")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "albumsync %s\n", Version)
		},
	}
}

func (a *app) deps() (album.Deps, error) {
	if !a.cfg.IsConfigured() {
		return album.Deps{}, fmt.Errorf("api.base_url is not set; add it to the config file or set ALBUMSYNC_API_BASE_URL")
	}
	client, err := a.newClient(a.cfg, a.logger)
	if err != nil {
		return album.Deps{}, fmt.Errorf("failed to create metadata client: %w", err)
	}
	return album.Deps{Client: client, Store: a.store, Reporter: a.reporter, Logger: a.logger}, nil
}

func (a *app) runSync(ctx context.Context, ids []string) error {
	deps, err := a.deps()
	if err != nil {
		return err
	}
	p := newPrinter(a.out)

	if len(ids) == 1 {
		return a.syncOne(ctx, p, ids[0], deps)
	}

	var results []album.Result
	if p.styled {
		results, err = a.syncWithProgress(ctx, ids, deps)
	} else {
		results, err = album.SyncAll(ctx, ids, deps, a.cfg.Sync.Workers)
		for _, res := range results {
			p.result(res)
		}
	}

	failed := 0
	for _, res := range results {
		if resultErr(res) != nil {
			failed++
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d albums failed to sync", failed, len(results))
	}
	return nil
}

// syncOne follows the coordinator's state while it runs
func (a *app) syncOne(ctx context.Context, p *printer, albumID string, deps album.Deps) error {
	c, err := album.NewCoordinator(albumID, deps)
	if err != nil {
		return err
	}

	// Room for every value one sync can publish, so none are evicted
	records, stop := c.AlbumWithSongs().Subscribe(4)
	defer stop()
	<-records // Initial value, always nil

	seenCached := false
	observe := func(rec *domain.AlbumWithSongs) {
		if rec != nil && !seenCached {
			seenCached = true
			p.cached(rec)
		}
	}

	h := c.Start(ctx)
	for {
		select {
		case rec := <-records:
			observe(rec)
		case <-h.Done():
			for drained := false; !drained; {
				select {
				case rec := <-records:
					observe(rec)
				default:
					drained = true
				}
			}

			res := h.Wait()
			p.result(res)
			if rec := c.AlbumWithSongs().Get(); rec != nil && res.StoreErr == nil && res.FetchErr == nil {
				p.album(rec)
			}
			p.versions(c.OtherVersions().Get())
			return resultErr(res)
		}
	}
}

func resultErr(res album.Result) error {
	switch {
	case res.StoreErr != nil:
		return fmt.Errorf("album %s: %w", res.AlbumID, res.StoreErr)
	case res.Outcome == album.OutcomeDeleted:
		return nil
	case res.FetchErr != nil:
		return fmt.Errorf("album %s: %w", res.AlbumID, res.FetchErr)
	}
	return nil
}

func (a *app) runShow(albumID string, asYAML bool) error {
	q := album.NewQueries(a.store, a.logger)
	rec, err := q.Album(albumID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("album %s: %w", albumID, domain.ErrAlbumNotCached)
	}

	if asYAML {
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(newAlbumView(rec)); err != nil {
			return fmt.Errorf("failed to encode album: %w", err)
		}
		return enc.Close()
	}

	newPrinter(a.out).album(rec)
	return nil
}

func (a *app) runSearch(query string) error {
	q := album.NewQueries(a.store, a.logger)
	results, err := q.Search(query)
	if err != nil {
		return err
	}
	p := newPrinter(a.out)
	if len(results) == 0 {
		p.line(p.dim(fmt.Sprintf("no cached albums match %q", query)))
		return nil
	}
	for _, r := range results {
		p.match(r)
	}
	return nil
}

func (a *app) runList() error {
	q := album.NewQueries(a.store, a.logger)
	albums, err := q.Albums()
	if err != nil {
		return err
	}
	p := newPrinter(a.out)
	if len(albums) == 0 {
		p.line(p.dim("cache is empty"))
		return nil
	}
	for _, al := range albums {
		p.listEntry(al)
	}
	return nil
}

func (a *app) runConfigInit(baseURL, key string, force bool) error {
	path := a.configPath
	if path == "" {
		path = adapter.DefaultConfigFile()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := adapter.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Key = key
	if a.backend != "" {
		cfg.Store.Backend = adapter.StoreBackend(a.backend)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := adapter.SaveConfig(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "wrote %s\n", path)
	return nil
}
