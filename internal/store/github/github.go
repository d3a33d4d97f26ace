// Package github keeps snapshots as CSV files in a GitHub repository, the
// layout the published dashboards read from:
//
//	<calendar>.csv  wide snapshot, replaced every cycle
//	<history>.csv   long rows, appended every notifying cycle
//	<marker>.md     "dd/mm/yyyy True|False"
//
// Each write is one commit through the contents API.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/external"
	"github.com/apptwatch/apptwatch/internal/store"
)

// Files is the subset of the GitHub contents API the store needs.
type Files interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
	FileSHA(ctx context.Context, path string) (string, error)
	PutFile(ctx context.Context, path, message string, content []byte, sha string) error
}

// Paths locates one service's files in the repository.
type Paths struct {
	Calendar string
	History  string
	Marker   string
}

// Store implements store.SnapshotStore on repository files. A Store owns
// one service: reads for any other service find nothing and writes for
// any other service fail.
type Store struct {
	service string
	files   Files
	paths   Paths
}

// New creates a store for service's files, writing through files.
func New(service string, files Files, paths Paths) *Store {
	return &Store{service: service, files: files, paths: paths}
}

func (s *Store) owns(service string) bool {
	return service == s.service
}

func (s *Store) checkWrite(service string) error {
	if !s.owns(service) {
		return fmt.Errorf("github store holds %q, cannot write %q", s.service, service)
	}
	return nil
}

func (s *Store) read(ctx context.Context, path string) ([]byte, error) {
	body, err := s.files.GetFile(ctx, path)
	if errors.Is(err, external.ErrFileNotFound) {
		return nil, store.ErrNotFound
	}
	return body, err
}

func (s *Store) write(ctx context.Context, path, message string, content []byte) error {
	sha, err := s.files.FileSHA(ctx, path)
	if err != nil {
		return err
	}
	return s.files.PutFile(ctx, path, message, content, sha)
}

func (s *Store) Previous(ctx context.Context, service string) (availability.Snapshot, error) {
	if !s.owns(service) {
		return availability.Snapshot{}, store.ErrNotFound
	}
	body, err := s.read(ctx, s.paths.Calendar)
	if err != nil {
		return availability.Snapshot{}, err
	}
	snap, err := store.DecodeWide(bytes.NewReader(body))
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("%s: %w", s.paths.Calendar, err)
	}
	return snap, nil
}

func (s *Store) Replace(ctx context.Context, service string, snap availability.Snapshot) error {
	if err := s.checkWrite(service); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := store.EncodeWide(&buf, snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.write(ctx, s.paths.Calendar, fmt.Sprintf("Update %s availability", service), buf.Bytes())
}

func (s *Store) Append(ctx context.Context, service string, rows []availability.Row) error {
	if err := s.checkWrite(service); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	sha, err := s.files.FileSHA(ctx, s.paths.History)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if sha != "" {
		existing, err := s.read(ctx, s.paths.History)
		if err != nil {
			return err
		}
		buf.Write(existing)
		if len(existing) > 0 && existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	if err := store.EncodeLong(&buf, rows, sha == ""); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.files.PutFile(ctx, s.paths.History, fmt.Sprintf("Append %s history", service), buf.Bytes(), sha)
}

func (s *Store) OutageMarker(ctx context.Context, service string) (availability.OutageMarker, error) {
	if !s.owns(service) {
		return availability.OutageMarker{}, store.ErrNotFound
	}
	body, err := s.read(ctx, s.paths.Marker)
	if err != nil {
		return availability.OutageMarker{}, err
	}
	m, err := store.ParseMarker(string(body))
	if err != nil {
		return availability.OutageMarker{}, fmt.Errorf("%s: %w", s.paths.Marker, err)
	}
	return m, nil
}

func (s *Store) SetOutageMarker(ctx context.Context, service string, m availability.OutageMarker) error {
	if err := s.checkWrite(service); err != nil {
		return err
	}
	return s.write(ctx, s.paths.Marker, fmt.Sprintf("Update %s no-appointments marker", service), []byte(store.FormatMarker(m)))
}

var _ store.SnapshotStore = (*Store)(nil)
