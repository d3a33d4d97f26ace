package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c := New(true)
	put := c.Put("premium", ViewSnapshot, []byte(`{"a":1}`))
	require.Equal(t, ETag([]byte(`{"a":1}`)), put.ETag)

	got, ok := c.Get("premium", ViewSnapshot)
	require.True(t, ok)
	require.Equal(t, put.ETag, got.ETag)
	require.Equal(t, `{"a":1}`, string(got.Data))

	_, ok = c.Get("premium", ViewTotals)
	require.False(t, ok)

	s := c.Stats()
	require.Equal(t, int64(1), s.Hits)
	require.Equal(t, int64(1), s.Misses)
	require.Equal(t, 1, s.Entries)
}

func TestExpiry(t *testing.T) {
	c := New(true)
	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("premium", ViewSnapshot, []byte("s"))
	c.Put("premium", ViewOutage, []byte("o"))
	now = now.Add(ViewSnapshot.TTL())

	_, ok := c.Get("premium", ViewSnapshot)
	require.False(t, ok)
	_, ok = c.Get("premium", ViewOutage)
	require.True(t, ok)

	c.evict()
	require.Equal(t, 1, c.Stats().Entries)

	now = now.Add(ViewOutage.TTL())
	c.evict()
	require.Equal(t, Stats{Enabled: true, Hits: 1, Misses: 1}, c.Stats())
}

func TestDisabled(t *testing.T) {
	c := New(false)
	e := c.Put("premium", ViewSnapshot, []byte("v"))
	require.NotEmpty(t, e.ETag)
	_, ok := c.Get("premium", ViewSnapshot)
	require.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.RunEviction(ctx, time.Millisecond)
}

func TestInvalidateService(t *testing.T) {
	c := New(true)
	c.Put("premium", ViewSnapshot, []byte("1"))
	c.Put("premium", ViewTotals, []byte("2"))
	c.Put("fasttrack", ViewSnapshot, []byte("3"))

	require.Equal(t, 2, c.InvalidateService("premium"))
	require.Equal(t, 0, c.InvalidateService("premium"))

	_, ok := c.Get("premium", ViewTotals)
	require.False(t, ok)
	_, ok = c.Get("fasttrack", ViewSnapshot)
	require.True(t, ok)
	require.Equal(t, int64(1), c.Stats().Invalidations)
}

func TestRunEvictionStops(t *testing.T) {
	c := New(true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunEviction(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("eviction loop did not stop")
	}
}

func TestMatches(t *testing.T) {
	etag := ETag([]byte("x"))
	require.False(t, Matches("", etag))
	require.True(t, Matches("*", etag))
	require.True(t, Matches(etag, etag))
	require.True(t, Matches("W/"+etag, etag))
	require.True(t, Matches(`"other", `+etag, etag))
	require.False(t, Matches(`"other"`, etag))
}
