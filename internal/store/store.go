// Package store defines where snapshots, the accumulation history and the
// outage marker live between poll cycles.
//
// Every call is a fallible remote operation. Stores never retry; the
// pipeline decides what a failure means for the cycle.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/apptwatch/apptwatch/internal/availability"
)

// ErrNotFound is returned when nothing has been stored yet for a service.
var ErrNotFound = errors.New("not found")

// SnapshotStore persists the latest wide snapshot, the long-format
// accumulation history and the outage marker, keyed by service name.
type SnapshotStore interface {
	// Previous returns the last replaced snapshot.
	Previous(ctx context.Context, service string) (availability.Snapshot, error)
	// Replace overwrites the stored snapshot wholesale.
	Replace(ctx context.Context, service string, snap availability.Snapshot) error
	// Append adds rows to the accumulation history.
	Append(ctx context.Context, service string, rows []availability.Row) error
	// OutageMarker returns the last written marker.
	OutageMarker(ctx context.Context, service string) (availability.OutageMarker, error)
	// SetOutageMarker overwrites the marker.
	SetOutageMarker(ctx context.Context, service string, m availability.OutageMarker) error
}

// Pruner is implemented by stores that can drop old history rows.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}
