// Package sqlite stores snapshots in a local SQLite file, for single-host
// deployments that do not want a Postgres server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/store"
)

//go:embed schema.sql
var Schema string

const isoDay = "2006-01-02"

// Store implements store.SnapshotStore on database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes anyway.
	database.SetMaxOpenConns(1)

	s := &Store{db: database}
	if err := s.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Previous(ctx context.Context, service string) (availability.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT location, position, label, count FROM snapshot_cells WHERE service = ? ORDER BY position, location",
		service)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_cells WHERE service = ?", service); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO snapshot_cells (service, location, position, label, count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	labels := snap.Labels()
	for _, loc := range availability.Locations {
		for i, n := range snap.Row(loc) {
			if _, err := stmt.ExecContext(ctx, service, loc, i, labels[i], n); err != nil {
				return fmt.Errorf("insert %s/%s: %w", loc, labels[i], err)
			}
		}
	}
	return tx.Commit()
}

func (s *Store) Append(ctx context.Context, service string, rows []availability.Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO appointment_history (service, location, appt_date, count, scrape_date, scraped_on) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		scraped, err := time.Parse(availability.DateLayout, r.ScrapeDate)
		if err != nil {
			return fmt.Errorf("row %d scrape date: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, service, r.Location, r.ApptDate, r.Count, r.ScrapeDate, scraped.Format(isoDay)); err != nil {
			return fmt.Errorf("insert history row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// History returns the accumulated rows for a service in insertion order.
func (s *Store) History(ctx context.Context, service string) ([]availability.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT location, appt_date, count, scrape_date FROM appointment_history WHERE service = ? ORDER BY id",
		service)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []availability.Row
	for rows.Next() {
		var r availability.Row
		if err := rows.Scan(&r.Location, &r.ApptDate, &r.Count, &r.ScrapeDate); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) OutageMarker(ctx context.Context, service string) (availability.OutageMarker, error) {
	var m availability.OutageMarker
	err := s.db.QueryRowContext(ctx,
		"SELECT marker_date, no_appointments FROM outage_markers WHERE service = ?",
		service).Scan(&m.Date, &m.NoAppointments)
	if errors.Is(err, sql.ErrNoRows) {
		return availability.OutageMarker{}, store.ErrNotFound
	}
	if err != nil {
		return availability.OutageMarker{}, fmt.Errorf("query marker: %w", err)
	}
	return m, nil
}

func (s *Store) SetOutageMarker(ctx context.Context, service string, m availability.OutageMarker) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outage_markers (service, marker_date, no_appointments) VALUES (?, ?, ?)
		 ON CONFLICT (service) DO UPDATE SET marker_date = excluded.marker_date, no_appointments = excluded.no_appointments`,
		service, m.Date, m.NoAppointments)
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// Prune deletes history rows scraped before the given day.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM appointment_history WHERE scraped_on < ?", before.Format(isoDay))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

var (
	_ store.SnapshotStore = (*Store)(nil)
	_ store.Pruner        = (*Store)(nil)
)
