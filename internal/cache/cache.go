// Package cache keeps encoded API responses per service and view, with an
// ETag for conditional requests. A service's entries are dropped together
// when a new snapshot is stored for it.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// View names one encoded representation of a service's stored state.
type View string

const (
	ViewSnapshot View = "snapshot"
	ViewTotals   View = "totals"
	ViewOutage   View = "outage"
)

// TTL is how long an entry for v stays fresh without an invalidation.
// Snapshots change at most once per poll cycle; the marker at most daily.
func (v View) TTL() time.Duration {
	if v == ViewOutage {
		return time.Hour
	}
	return 10 * time.Minute
}

// Entry is one cached response body.
type Entry struct {
	Data     []byte
	ETag     string
	StoredAt time.Time
	expires  time.Time
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Enabled       bool  `json:"enabled"`
	Services      int   `json:"services"`
	Entries       int   `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// Cache is safe for concurrent use. A disabled cache stores nothing but
// still computes ETags.
type Cache struct {
	mu       sync.Mutex
	services map[string]map[View]Entry
	enabled  bool
	now      func() time.Time

	hits, misses, invalidations int64
}

// New creates a cache.
func New(enabled bool) *Cache {
	return &Cache{
		services: make(map[string]map[View]Entry),
		enabled:  enabled,
		now:      time.Now,
	}
}

// Get returns the fresh entry for (service, view).
func (c *Cache) Get(service string, view View) (Entry, bool) {
	if !c.enabled {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.services[service][view]
	if !ok || !c.now().Before(e.expires) {
		c.misses++
		return Entry{}, false
	}
	c.hits++
	return e, true
}

// Put stores data for (service, view) and returns the entry with its ETag.
func (c *Cache) Put(service string, view View, data []byte) Entry {
	now := c.now()
	e := Entry{Data: data, ETag: ETag(data), StoredAt: now, expires: now.Add(view.TTL())}
	if !c.enabled {
		return e
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	views := c.services[service]
	if views == nil {
		views = make(map[View]Entry, 3)
		c.services[service] = views
	}
	views[view] = e
	return e
}

// InvalidateService drops every view cached for service and returns how
// many entries went.
func (c *Cache) InvalidateService(service string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.services[service])
	delete(c.services, service)
	if n > 0 {
		c.invalidations++
	}
	return n
}

// Stats reports current usage.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Enabled:       c.enabled,
		Services:      len(c.services),
		Hits:          c.hits,
		Misses:        c.misses,
		Invalidations: c.invalidations,
	}
	for _, views := range c.services {
		s.Entries += len(views)
	}
	return s
}

// RunEviction drops expired entries every interval until ctx is done.
func (c *Cache) RunEviction(ctx context.Context, every time.Duration) {
	if !c.enabled {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evict()
		}
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for service, views := range c.services {
		for v, e := range views {
			if !now.Before(e.expires) {
				delete(views, v)
			}
		}
		if len(views) == 0 {
			delete(c.services, service)
		}
	}
}

// ETag returns a strong validator for data.
func ETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Matches reports whether an If-None-Match header value matches etag.
// Comparison is weak: a W/ prefix on either side is ignored.
func Matches(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}
