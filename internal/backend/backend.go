// Package backend opens the snapshot store selected by STORE_BACKEND. Both
// commands share it so the poller and the status API always agree on where
// snapshots live.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apptwatch/apptwatch/internal/config"
	"github.com/apptwatch/apptwatch/internal/db"
	"github.com/apptwatch/apptwatch/internal/external"
	"github.com/apptwatch/apptwatch/internal/store"
	ghstore "github.com/apptwatch/apptwatch/internal/store/github"
	"github.com/apptwatch/apptwatch/internal/store/pg"
	"github.com/apptwatch/apptwatch/internal/store/sqlite"
)

// Backend is an open store plus whatever it holds open.
type Backend struct {
	Store store.SnapshotStore
	// Pool is set for the postgres backend only.
	Pool  *db.Pool
	close func()
}

// Close releases the store's resources.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Pruner returns the store as a store.Pruner, or nil if it cannot prune.
func (b *Backend) Pruner() store.Pruner {
	p, _ := b.Store.(store.Pruner)
	return p
}

// GitHub builds the repository client from cfg.
func GitHub(cfg *config.Config) *external.GitHubClient {
	return external.NewGitHubClient(external.GitHubConfig{
		APIURL:       cfg.GitHubAPIURL,
		Token:        cfg.GitHubToken,
		Owner:        cfg.GitHubOwner,
		Repo:         cfg.GitHubRepo,
		Branch:       cfg.GitHubBranch,
		CommitAuthor: cfg.CommitAuthor,
		CommitEmail:  cfg.CommitEmail,
	})
}

// Open connects to the configured store. The postgres and sqlite schemas
// are created if missing.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using in-memory store; snapshots are lost on exit")
		return &Backend{Store: store.NewMemory()}, nil

	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("SQLite store opened", "path", cfg.SQLitePath)
		return &Backend{Store: s, close: func() { s.Close() }}, nil

	case config.StorePostgres:
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		return &Backend{Store: pg.New(pool), Pool: pool, close: pool.Close}, nil

	case config.StoreGitHub:
		logger.Info("GitHub store", "repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo, "branch", cfg.GitHubBranch)
		return &Backend{Store: ghstore.New(cfg.Service, GitHub(cfg), ghstore.Paths{
			Calendar: cfg.CalendarPath,
			History:  cfg.HistoryPath,
			Marker:   cfg.MarkerPath,
		})}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
