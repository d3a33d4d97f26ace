// Package pg stores snapshots in Postgres.
//
// The latest snapshot is held cell by cell in snapshot_cells and replaced in
// one transaction, which also fires pg_notify on db.SnapshotChannel so API
// caches can drop stale entries.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/db"
	"github.com/apptwatch/apptwatch/internal/store"
)

// Store implements store.SnapshotStore on a pgx pool.
type Store struct {
	pool *db.Pool
}

// New wraps an open pool.
func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Previous(ctx context.Context, service string) (availability.Snapshot, error) {
	rows, err := s.pool.Query(ctx, "snapshot_cells", service)
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var labels []string
	counts := make(map[string][]int)
	for rows.Next() {
		var (
			loc, label string
			pos, n     int
		)
		if err := rows.Scan(&loc, &pos, &label, &n); err != nil {
			return availability.Snapshot{}, fmt.Errorf("scan snapshot cell: %w", err)
		}
		for len(labels) <= pos {
			labels = append(labels, "")
		}
		labels[pos] = label
		row := counts[loc]
		for len(row) <= pos {
			row = append(row, 0)
		}
		row[pos] = n
		counts[loc] = row
	}
	if err := rows.Err(); err != nil {
		return availability.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	if len(labels) == 0 {
		return availability.Snapshot{}, store.ErrNotFound
	}
	for loc, row := range counts {
		for len(row) < len(labels) {
			row = append(row, 0)
		}
		counts[loc] = row
	}
	return availability.New(labels, counts)
}

func (s *Store) Replace(ctx context.Context, service string, snap availability.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "snapshot_delete", service); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	labels := snap.Labels()
	cells := make([][]any, 0, len(labels)*len(availability.Locations))
	for _, loc := range availability.Locations {
		for i, n := range snap.Row(loc) {
			cells = append(cells, []any{service, loc, i, labels[i], n})
		}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"snapshot_cells"},
		[]string{"service", "location", "position", "label", "count"},
		pgx.CopyFromRows(cells),
	); err != nil {
		return fmt.Errorf("copy snapshot cells: %w", err)
	}

	if _, err := tx.Exec(ctx, "snapshot_notify", service); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) Append(ctx context.Context, service string, rows []availability.Row) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"appointment_history"},
		[]string{"service", "location", "appt_date", "count", "scrape_date", "scraped_on"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			scraped, err := time.Parse(availability.DateLayout, r.ScrapeDate)
			if err != nil {
				return nil, fmt.Errorf("row %d scrape date: %w", i, err)
			}
			return []any{service, r.Location, r.ApptDate, r.Count, r.ScrapeDate, scraped}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy history: %w", err)
	}
	return nil
}

func (s *Store) OutageMarker(ctx context.Context, service string) (availability.OutageMarker, error) {
	var m availability.OutageMarker
	err := s.pool.QueryRow(ctx, "marker_get", service).Scan(&m.Date, &m.NoAppointments)
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.OutageMarker{}, store.ErrNotFound
	}
	if err != nil {
		return availability.OutageMarker{}, fmt.Errorf("query marker: %w", err)
	}
	return m, nil
}

func (s *Store) SetOutageMarker(ctx context.Context, service string, m availability.OutageMarker) error {
	if _, err := s.pool.Exec(ctx, "marker_set", service, m.Date, m.NoAppointments); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// Prune deletes history rows scraped before the given day.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "history_prune", before)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

var (
	_ store.SnapshotStore = (*Store)(nil)
	_ store.Pruner        = (*Store)(nil)
)
