package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmcdole/albumsync/internal/adapter"
	"github.com/mmcdole/albumsync/internal/adapter/source"
	"github.com/mmcdole/albumsync/internal/domain"
)

// Version is set at build time via -ldflags
var Version = "dev"

// skipSetup marks commands that run without config, store or logger
const skipSetup = "skipSetup"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what the subcommands share. It is filled in by setup.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	backend    string

	cfg       *adapter.Config
	logger    *slog.Logger
	logCloser io.Closer
	store     domain.AlbumStore
	reporter  *adapter.Reporter

	newClient func(cfg *adapter.Config, logger *slog.Logger) (domain.AlbumClient, error)
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		newClient: source.NewClientFromConfig,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "albumsync",
		Short: "Keep a local album cache in sync with the metadata service",
		Long: `albumsync fetches album metadata from the remote service and
reconciles it with the local cache: new albums are inserted, cached ones are
refreshed without losing bookmarks, and albums the service no longer knows
are removed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is the user config dir)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "cache backend: bolt or sqlite (overrides config)")

	root.AddCommand(
		newSyncCmd(a),
		newShowCmd(a),
		newSearchCmd(a),
		newListCmd(a),
		newCacheCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads config and opens the logger, store and reporter
func (a *app) setup() error {
	cfg, err := adapter.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.backend != "" {
		cfg.Store.Backend = adapter.StoreBackend(a.backend)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = adapter.NullLogger(), nil
	}
	a.logger, a.logCloser = logger, closer
	slog.SetDefault(logger)

	a.store, err = adapter.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	a.reporter = adapter.NewReporter(0, nil, logger)

	logger.Info("starting albumsync", "version", Version, "backend", cfg.Store.Backend)
	return nil
}

// close releases whatever setup opened. Safe to call more than once.
func (a *app) close() {
	var errs []error
	if a.reporter != nil {
		errs = append(errs, a.reporter.Close())
		a.reporter = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.Error("shutdown error", "error", err)
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}
