package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kvhttpd/internal/arghelper"
	"kvhttpd/internal/cache"
	"kvhttpd/internal/config"
	"kvhttpd/internal/errors"
	"kvhttpd/internal/handlers"
	"kvhttpd/internal/paths"
	"kvhttpd/internal/registry"
	"kvhttpd/internal/server"
	"kvhttpd/internal/slogutil"
	"kvhttpd/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}

	a, err := newApp(root, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

// app is one configured server process.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	factory   *slogutil.LoggerFactory
	cache     *cache.Cache
	registry  *registry.Registry
	db        *storage.DB
	snapshots *storage.SnapshotStore
	stdout    io.Writer
}

// newApp loads configuration for root, applies command-line overrides and
// builds the logger, cache and registry.
func newApp(root string, args []string, stdout, stderr io.Writer) (*app, error) {
	loaded, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	parsed := arghelper.Parse(args)
	if err := cfg.ApplyArgs(parsed); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory := slogutil.NewLoggerFactory(root, cfg).WithConsole(stdout, stderr)
	logger, err := factory.ServerLogger()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		factory:  factory,
		cache:    cache.New(),
		registry: registry.New(),
		stdout:   stdout,
	}
	a.logConfig(loaded, parsed)

	if cfg.Cache.Snapshot {
		if err := a.openSnapshots(root); err != nil {
			a.close()
			return nil, err
		}
	}

	if err := handlers.Register(a.registry); err != nil {
		a.close()
		return nil, err
	}
	if cfg.Routes.Manifest != "" {
		if err := a.loadRoutes(root); err != nil {
			a.close()
			return nil, err
		}
	}

	return a, nil
}

// logConfig reports where the configuration came from and which command-line
// flags were ignored.
func (a *app) logConfig(loaded *config.LoadResult, args *arghelper.Args) {
	if loaded.UsedDefaults {
		a.logger.Info("No config file found, using defaults")
	} else {
		a.logger.Info("Loaded config", "path", loaded.ConfigPath)
	}
	for _, ov := range loaded.EnvOverrides {
		a.logger.Info("Environment override",
			"env", ov.EnvVar,
			"key", ov.Key,
			"value", ov.Value,
		)
	}
	for _, key := range args.Keys() {
		if !knownFlags[key] {
			a.logger.Warn("Ignoring unknown flag", "flag", "--"+key)
		}
	}
}

var knownFlags = map[string]bool{"host": true, "port": true, "method": true}

func (a *app) openSnapshots(root string) error {
	dbPath := paths.Resolve(root, a.cfg.Cache.SnapshotPath)
	if dbPath == "" {
		dbPath = paths.GetSnapshotPath(root)
	}

	db, err := storage.Open(dbPath, a.logger)
	if err != nil {
		return errors.New(errors.SnapshotFailed, "failed to open cache snapshot", err)
	}
	a.db = db
	a.snapshots = storage.NewSnapshotStore(db)

	entries, err := a.snapshots.Load()
	if err != nil {
		return err
	}
	a.cache.Restore(entries)
	a.logger.Info("Restored cache snapshot",
		"path", dbPath,
		"entries", len(entries),
	)
	return nil
}

func (a *app) loadRoutes(root string) error {
	manifestPath := paths.Resolve(root, a.cfg.Routes.Manifest)
	m, err := registry.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	baseDir := paths.Resolve(root, a.cfg.Routes.BaseDir)
	if baseDir == "" {
		baseDir = filepath.Dir(manifestPath)
	}
	if err := handlers.RegisterRoutes(a.registry, m.Routes, baseDir); err != nil {
		return err
	}

	a.logger.Info("Loaded route manifest",
		"path", manifestPath,
		"routes", len(m.Routes),
	)
	return nil
}

// run prints the endpoint table, serves until ctx is cancelled, then drains
// workers and writes the cache snapshot.
func (a *app) run(ctx context.Context) error {
	fmt.Fprint(a.stdout, a.registry.Display())

	srv := server.New(server.Config{
		Host:            a.cfg.Server.Host,
		Port:            a.cfg.Server.Port,
		MaxRequestBytes: a.cfg.Server.MaxRequestBytes,
	}, a.registry, a.cache, a.logger)

	serveErr := srv.ListenAndServe(ctx)
	if errors.HasCode(serveErr, errors.BindFailed) {
		return serveErr
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("Workers still running at shutdown", "error", err.Error())
	}

	if a.snapshots != nil {
		var saveErr error
		var saved int
		srv.WithCache(func(c *cache.Cache) {
			saved = c.Len()
			saveErr = a.snapshots.Save(c.Entries())
		})
		if saveErr != nil {
			a.logger.Error("Failed to save cache snapshot", "error", saveErr.Error())
			if serveErr == nil {
				serveErr = saveErr
			}
		} else {
			a.logger.Info("Saved cache snapshot", "entries", saved)
		}
	}

	a.logger.Info("Server stopped gracefully")
	return serveErr
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close snapshot database", "error", err.Error())
		}
		a.db = nil
	}
	_ = a.factory.Close()
}
