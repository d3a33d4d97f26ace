// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API cache in step with the snapshot store. It holds a dedicated pgx
// connection (not from the pool) listening on db.SnapshotChannel.
//
// The Postgres store fires pg_notify with the service name whenever it
// replaces a snapshot; this consumer drops that service's cached responses.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/apptwatch/apptwatch/internal/db"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Invalidator drops cached entries for a service. *cache.Cache implements it.
type Invalidator interface {
	InvalidateService(service string) int
}

// Start opens a dedicated connection and listens on the snapshot channel.
// It reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, inv, logger)
		if ctx.Err() != nil {
			logger.Info("Snapshot listener stopped (context cancelled)")
			return
		}

		logger.Error("Snapshot listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+db.SnapshotChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", db.SnapshotChannel, err)
	}
	logger.Info("Snapshot listener connected", "channel", db.SnapshotChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		handle(notification.Payload, inv, logger)
	}
}

// handle invalidates the service named in a notification payload.
func handle(payload string, inv Invalidator, logger *slog.Logger) {
	service := strings.TrimSpace(payload)
	if service == "" {
		logger.Warn("Ignoring snapshot notification with empty payload")
		return
	}
	n := inv.InvalidateService(service)
	logger.Info("Snapshot replaced, cache invalidated", "service", service, "entries", n)
}
