package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/inspections/internal/config"
	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/logging"
	"github.com/JonMunkholm/inspections/internal/snapshot"
	"github.com/JonMunkholm/inspections/internal/store/postgres"
	"github.com/JonMunkholm/inspections/internal/store/sqlite"
	"github.com/JonMunkholm/inspections/internal/web"
)

// recordStore is what the server needs from its storage: the record
// operations plus wholesale replacement for snapshot loads.
type recordStore interface {
	core.Store
	snapshot.Replacer
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, seed, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	manager := snapshot.NewManager(cfg.Snapshot.Dir, store,
		snapshot.WithMaxFileSize(cfg.Snapshot.MaxFileSize),
	)
	if seed {
		if _, err := manager.Reload(ctx); err != nil {
			// The server still starts so the snapshot can be fixed and reloaded.
			slog.Error("initial snapshot load failed", "dir", cfg.Snapshot.Dir, "error", err)
		}
	}

	if cfg.Storage.Driver != config.DriverMemory {
		slog.Warn("snapshot reloads replace every stored record, including ones added through the API",
			"driver", cfg.Storage.Driver,
			"watch", cfg.Snapshot.Watch,
			"refresh_interval", cfg.Snapshot.RefreshInterval,
		)
	}

	service := core.NewService(store)
	server := web.NewServer(service, cfg, web.WithSnapshots(manager))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(cfg.Server.Addr()); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Snapshot.Watch {
		g.Go(func() error {
			return manager.Watch(gctx, cfg.Snapshot.Debounce)
		})
	}

	if cfg.Snapshot.RefreshInterval > 0 {
		g.Go(func() error {
			manager.StartRefreshScheduler(gctx, cfg.Snapshot.RefreshInterval)
			return nil
		})
	}

	err = g.Wait()
	slog.Info("server stopped")
	return err
}

// openStore opens the configured store. seed reports whether the snapshot
// should be loaded into it now: always for memory, and for a database only
// when it is empty and seeding is enabled.
func openStore(ctx context.Context, cfg *config.Config) (store recordStore, seed bool, closeFn func(), err error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, false, nil, err
		}
		empty, err := s.Empty(ctx)
		if err != nil {
			s.Close()
			return nil, false, nil, err
		}
		slog.Info("using sqlite store", "path", s.Path(), "empty", empty)
		return s, empty && cfg.Storage.SeedFromSnapshot, func() { s.Close() }, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, false, nil, err
		}
		s := postgres.New(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, false, nil, err
		}
		empty, err := s.Empty(ctx)
		if err != nil {
			pool.Close()
			return nil, false, nil, err
		}
		slog.Info("using postgres store", "empty", empty)
		return s, empty && cfg.Storage.SeedFromSnapshot, pool.Close, nil

	default:
		slog.Info("using in-memory store", "snapshot_dir", cfg.Snapshot.Dir)
		return core.NewMemoryStore(core.Snapshot{}), true, func() {}, nil
	}
}
