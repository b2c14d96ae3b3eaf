package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/restroom-map/internal/config"
	"github.com/JonMunkholm/restroom-map/internal/core"
	"github.com/JonMunkholm/restroom-map/internal/logging"
	"github.com/JonMunkholm/restroom-map/internal/store"
	"github.com/JonMunkholm/restroom-map/internal/web"
)

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

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"baseline", cfg.Sources.BaselineURL,
		"updates_enabled", cfg.Sources.UpdatesURL != "",
		"submit_enabled", cfg.Submit.IngestURL != "",
		"store_enabled", cfg.Database.Enabled(),
		"refresh_interval", cfg.Refresh.Interval,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	// The snapshot store is optional; without it restarts begin empty.
	var snapshots core.SnapshotStore
	if cfg.Database.Enabled() {
		pool, err := openStore(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to open snapshot store", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		snapshots = store.NewSnapshotStore(pool, store.DefaultKeep)
	}

	client := &http.Client{Timeout: cfg.Sources.FetchTimeout}
	svcCfg := core.ServiceConfig{
		Baseline:  core.NewSource(cfg.Sources.BaselineURL, client, cfg.Sources.MaxBytes),
		Store:     snapshots,
		Submitter: core.NewSubmitter(cfg.Submit.IngestURL, cfg.Submit.Timeout),
		Limiter:   core.NewSubmitLimiter(cfg.Submit.MaxConcurrent, cfg.Submit.MaxWait),
	}
	if cfg.Sources.UpdatesURL != "" {
		svcCfg.Updates = core.NewSource(cfg.Sources.UpdatesURL, client, cfg.Sources.MaxBytes)
	}

	service, err := core.NewService(svcCfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	if err := service.Restore(ctx); err == nil {
		slog.Info("restored last snapshot from store")
	} else if !errors.Is(err, core.ErrNoSnapshot) {
		slog.Warn("snapshot restore failed", "error", err)
	}

	hub := web.NewHub(cfg.Security.CORSOrigins)
	service.OnSnapshot(hub.NotifySnapshot)

	server := web.NewServer(service, hub, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRefreshScheduler(jobCtx, cfg.Refresh.Interval)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight forwards reach the ingestion endpoint.
		if status := service.SubmitLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for submissions to complete", "active", status.Active)
			if err := service.WaitForSubmissions(shutdownCtx); err != nil {
				slog.Warn("submissions did not complete in time", "error", err)
			} else {
				slog.Info("all submissions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

// openStore connects the pool and applies migrations.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("snapshot store ready", "max_conns", cfg.MaxConns)
	return pool, nil
}
