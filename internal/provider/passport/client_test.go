package passport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		URL:               srv.URL,
		UnavailableMarker: "Sorry",
		RequestsPerMinute: 6000,
		Timeout:           5 * time.Second,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	c.now = func() time.Time { return today }
	return c
}

func TestProbe(t *testing.T) {
	up := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>Book an appointment</html>")
	})
	ok, err := up.Probe(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>Sorry, the service is closed</html>")
	})
	ok, err = down.Probe(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFetchOutcomes(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		outcome provider.Outcome
	}{
		{
			name:    "table",
			status:  http.StatusOK,
			body:    page(2, map[string][]string{"London": {"4", "5"}}),
			outcome: provider.Fetched,
		},
		{
			name:    "closed",
			status:  http.StatusOK,
			body:    "<p>Sorry, you cannot book right now</p>",
			outcome: provider.Unavailable,
		},
		{
			name:    "no table",
			status:  http.StatusOK,
			body:    "<p>Loading</p>",
			outcome: provider.Empty,
		},
		{
			name:    "bad cell",
			status:  http.StatusOK,
			body:    page(1, map[string][]string{"London": {"lots"}}),
			outcome: provider.Failed,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    "upstream",
			outcome: provider.Failed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})

			res := c.Fetch(context.Background())
			require.Equal(t, tc.outcome, res.Outcome, "err: %v", res.Err)
			if tc.outcome == provider.Failed {
				require.Error(t, res.Err)
			}
			if tc.outcome == provider.Fetched {
				require.Equal(t, 9, res.Snapshot.Total())
			}
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	c := NewClient(Options{URL: "http://127.0.0.1:1/", RequestsPerMinute: 6000, Timeout: time.Second})
	res := c.Fetch(context.Background())
	require.Equal(t, provider.Failed, res.Outcome)
	require.Error(t, res.Err)

	_, err := c.Probe(context.Background())
	require.Error(t, err)
}

func TestClientClockIsUKTime(t *testing.T) {
	c := NewClient(Options{URL: "http://example.invalid", UnavailableMarker: "Sorry"})
	require.Equal(t, availability.Zone, c.now().Location())
}
