package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "apptwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreviousEmpty(t *testing.T) {
	s := openTemp(t)
	_, err := s.Previous(context.Background(), "premium")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.OutageMarker(context.Background(), "premium")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReplaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	first, err := availability.New([]string{"Thu 15 Oct", "Fri 16 Oct", "Sat 17 Oct"}, map[string][]int{
		"London":     {1, 2, 3},
		"Birmingham": {0, 0, 9},
	})
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, "premium", first))

	got, err := s.Previous(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, first.Labels(), got.Labels())
	require.Equal(t, []int{1, 2, 3}, got.Row("London"))
	require.Equal(t, []int{0, 0, 9}, got.Row("Birmingham"))

	// A shorter snapshot replaces every cell of the longer one.
	second, err := availability.New([]string{"Fri 16 Oct"}, map[string][]int{"Durham": {6}})
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, "premium", second))

	got, err = s.Previous(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, []string{"Fri 16 Oct"}, got.Labels())
	require.Equal(t, []int{6}, got.Row("Durham"))
	require.Equal(t, []int{0}, got.Row("London"))

	_, err = s.Previous(ctx, "fasttrack")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAppendAndPrune(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	rows := []availability.Row{
		{Location: "London", ApptDate: "Mon 5 Oct", Count: 1, ScrapeDate: "05/10/2026"},
		{Location: "London", ApptDate: "Thu 15 Oct", Count: 2, ScrapeDate: "15/10/2026"},
	}
	require.NoError(t, s.Append(ctx, "premium", rows[:1]))
	require.NoError(t, s.Append(ctx, "premium", rows[1:]))
	require.NoError(t, s.Append(ctx, "premium", nil))

	got, err := s.History(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, rows, got)

	n, err := s.Prune(ctx, time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err = s.History(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, rows[1:], got)

	require.Error(t, s.Append(ctx, "premium", []availability.Row{{Location: "London", ScrapeDate: "soon"}}))
}

func TestOutageMarkerUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.SetOutageMarker(ctx, "premium", availability.OutageMarker{Date: "14/10/2026", NoAppointments: true}))
	require.NoError(t, s.SetOutageMarker(ctx, "premium", availability.OutageMarker{Date: "15/10/2026"}))

	got, err := s.OutageMarker(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, availability.OutageMarker{Date: "15/10/2026"}, got)
}
