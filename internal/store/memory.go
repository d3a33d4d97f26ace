package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/apptwatch/apptwatch/internal/availability"
)

type memoryEntry struct {
	snapshot *availability.Snapshot
	history  []availability.Row
	marker   *availability.OutageMarker
}

// Memory is a process-local SnapshotStore.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

func (m *Memory) entry(service string) *memoryEntry {
	e, ok := m.entries[service]
	if !ok {
		e = &memoryEntry{}
		m.entries[service] = e
	}
	return e
}

func (m *Memory) Previous(ctx context.Context, service string) (availability.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[service]
	if !ok || e.snapshot == nil {
		return availability.Snapshot{}, ErrNotFound
	}
	return *e.snapshot, nil
}

func (m *Memory) Replace(ctx context.Context, service string, snap availability.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(service).snapshot = &snap
	return nil
}

func (m *Memory) Append(ctx context.Context, service string, rows []availability.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(service)
	e.history = append(e.history, rows...)
	return nil
}

// History returns a copy of the accumulated rows for a service.
func (m *Memory) History(service string) []availability.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[service]; ok {
		return slices.Clone(e.history)
	}
	return nil
}

func (m *Memory) OutageMarker(ctx context.Context, service string) (availability.OutageMarker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[service]
	if !ok || e.marker == nil {
		return availability.OutageMarker{}, ErrNotFound
	}
	return *e.marker, nil
}

func (m *Memory) SetOutageMarker(ctx context.Context, service string, marker availability.OutageMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(service).marker = &marker
	return nil
}

// Prune drops history rows scraped before the given day.
func (m *Memory) Prune(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var dropped int64
	for _, e := range m.entries {
		kept := e.history[:0]
		for _, r := range e.history {
			scraped, err := time.Parse(availability.DateLayout, r.ScrapeDate)
			if err == nil && scraped.Before(before) {
				dropped++
				continue
			}
			kept = append(kept, r)
		}
		e.history = kept
	}
	return dropped, nil
}
