// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apptwatch/apptwatch/internal/config"
)

// SnapshotChannel is the pg_notify channel fired after a snapshot replace.
// The payload is the service name.
const SnapshotChannel = "snapshot_replaced"

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must exist;
// run Migrate first.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// --------------------------------------------------------------------------
// Schema
// --------------------------------------------------------------------------

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_cells (
	service  TEXT    NOT NULL,
	location TEXT    NOT NULL,
	position INTEGER NOT NULL,
	label    TEXT    NOT NULL,
	count    INTEGER NOT NULL,
	PRIMARY KEY (service, location, position)
);

CREATE TABLE IF NOT EXISTS appointment_history (
	id          BIGSERIAL PRIMARY KEY,
	service     TEXT    NOT NULL,
	location    TEXT    NOT NULL,
	appt_date   TEXT    NOT NULL,
	count       INTEGER NOT NULL,
	scrape_date TEXT    NOT NULL,
	scraped_on  DATE    NOT NULL
);

CREATE INDEX IF NOT EXISTS appointment_history_scraped_on
	ON appointment_history (scraped_on);

CREATE TABLE IF NOT EXISTS outage_markers (
	service         TEXT    PRIMARY KEY,
	marker_date     TEXT    NOT NULL,
	no_appointments BOOLEAN NOT NULL
);
`

// Migrate creates the tables if they do not exist. It uses its own
// connection because pooled connections prepare statements against these
// tables on connect.
func Migrate(ctx context.Context, dbURL string) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// registerPreparedStatements registers all statements the store, API and
// maintenance layers use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Snapshot
		"snapshot_cells":  "SELECT location, position, label, count FROM snapshot_cells WHERE service = $1 ORDER BY position, location",
		"snapshot_delete": "DELETE FROM snapshot_cells WHERE service = $1",
		"snapshot_notify": "SELECT pg_notify('" + SnapshotChannel + "', $1)",

		// Outage marker
		"marker_get": "SELECT marker_date, no_appointments FROM outage_markers WHERE service = $1",
		"marker_set": "INSERT INTO outage_markers (service, marker_date, no_appointments) VALUES ($1, $2, $3) " +
			"ON CONFLICT (service) DO UPDATE SET marker_date = EXCLUDED.marker_date, no_appointments = EXCLUDED.no_appointments",

		// Maintenance
		"history_prune": "DELETE FROM appointment_history WHERE scraped_on < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
