package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hoanghai1803/newswire/internal/api"
	"github.com/hoanghai1803/newswire/internal/app"
	"github.com/hoanghai1803/newswire/internal/config"
	"github.com/hoanghai1803/newswire/internal/metrics"
	"github.com/hoanghai1803/newswire/internal/storage"
	"github.com/hoanghai1803/newswire/internal/sweep"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.LevelVar
	if l, err := cfg.Log.SlogLevel(); err == nil {
		level.Set(l)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		})
		if err != nil {
			slog.Error("failed to initialise sentry", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		slog.Info("sentry error reporting enabled")
	}

	// Ensure data directory exists.
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(db)

	m := metrics.New()
	pipeline := app.NewPipeline(cfg, m)
	agg := pipeline.Aggregator

	sweeper := sweep.New(agg, store, sweep.Config{
		Interval:   cfg.Sweep.Interval(),
		Categories: cfg.Sweep.Categories,
		Limit:      cfg.Sweep.Limit,
	}, m)
	if *cfg.Sweep.Enabled {
		if err := sweeper.Start(); err != nil {
			slog.Error("failed to start sweep scheduler", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := sweeper.Stop(); err != nil {
				slog.Warn("sweep scheduler shutdown", "error", err)
			}
		}()
	}

	router := api.NewRouter(api.Deps{
		News:      agg,
		Sources:   pipeline.Registry,
		Store:     store,
		Sweeper:   sweeper,
		Roster:    pipeline.Roster,
		Extractor: pipeline.Fetcher,
		Metrics:   m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "sources", len(pipeline.Registry.Sources()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		slog.Error("server failed", "error", err)
		return
	case <-ctx.Done():
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
}
