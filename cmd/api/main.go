// Command api serves the latest availability snapshots read-only.
//
// Usage:
//
//	apptwatch-api
//	API_PORT=8080 STORE_BACKEND=postgres apptwatch-api

// @title Apptwatch Status API
// @version 1.0.0
// @description Read-only view of the latest passport appointment availability snapshot, per-office totals and the daily no-appointments marker.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Apptwatch
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/apptwatch/apptwatch/internal/api"
	"github.com/apptwatch/apptwatch/internal/api/handler"
	"github.com/apptwatch/apptwatch/internal/backend"
	"github.com/apptwatch/apptwatch/internal/cache"
	"github.com/apptwatch/apptwatch/internal/config"
	"github.com/apptwatch/apptwatch/internal/listener"
	"github.com/apptwatch/apptwatch/internal/maintenance"

	_ "github.com/apptwatch/apptwatch/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := serve(ctx, logger); err != nil {
		logger.Error("Status API failed", "error", err)
		os.Exit(1)
	}
}

// serve runs the API until ctx is cancelled or the listener fails.
func serve(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer b.Close()

	appCache := cache.New(cfg.CacheEnabled)
	go appCache.RunEviction(ctx, 5*time.Minute)

	var health handler.HealthChecker
	if b.Pool != nil {
		health = b.Pool
		// Drop cached views when the poller stores a new snapshot
		go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)
	}

	if pruner := b.Pruner(); pruner != nil {
		go maintenance.Start(ctx, pruner, maintenance.DefaultConfig(cfg.HistoryRetention), logger)
	} else {
		logger.Info("History pruning disabled", "backend", cfg.StoreBackend)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler:           api.NewRouter(b.Store, appCache, cfg, health),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Status API listening",
			"addr", srv.Addr,
			"service", cfg.Service,
			"backend", cfg.StoreBackend,
			"cache", cfg.CacheEnabled,
			"environment", cfg.Environment)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
