package availability

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

func TestLabels(t *testing.T) {
	labels := Labels(base)
	require.Len(t, labels, HorizonDays)
	require.Equal(t, "Thu 15 Oct", labels[0])
	require.Equal(t, "Wed 11 Nov", labels[HorizonDays-1])

	long := LongLabels(base)
	require.Equal(t, "Thursday 15 October", long[0])
}

func TestNewFillsMissingLocations(t *testing.T) {
	snap, err := New([]string{"a", "b"}, map[string][]int{"London": {1, 2}})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, snap.Row("London"))
	require.Equal(t, []int{0, 0}, snap.Row("Belfast"))
	require.False(t, snap.IsZero())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New([]string{"a"}, map[string][]int{"Atlantis": {1}})
	require.Error(t, err)

	_, err = New([]string{"a", "b"}, map[string][]int{"London": {1}})
	require.Error(t, err)

	_, err = New([]string{"a"}, map[string][]int{"London": {-1}})
	require.Error(t, err)
}

func TestSnapshotIsImmutable(t *testing.T) {
	counts := map[string][]int{"London": {1, 2}}
	snap, err := New([]string{"a", "b"}, counts)
	require.NoError(t, err)

	counts["London"][0] = 99
	row := snap.Row("London")
	row[1] = 99

	require.Equal(t, []int{1, 2}, snap.Row("London"))
}

func TestTotalsOver(t *testing.T) {
	snap, err := New([]string{"a", "b", "c"}, map[string][]int{
		"London":  {1, 2, 3},
		"Newport": {4, 0, 1},
	})
	require.NoError(t, err)

	totals := snap.Totals()
	require.Len(t, totals, len(Locations))
	require.Equal(t, LocationCount{Location: "London", Count: 6}, totals[0])
	require.Equal(t, LocationCount{Location: "Newport", Count: 5}, totals[2])

	partial := snap.TotalsOver([]string{"b", "c", "zzz"})
	require.Equal(t, 5, partial[0].Count)
	require.Equal(t, 1, partial[2].Count)
	require.Equal(t, 11, snap.Total())
}

func TestLong(t *testing.T) {
	snap, err := New([]string{"Thu 15 Oct", "Fri 16 Oct"}, map[string][]int{"London": {3, 4}})
	require.NoError(t, err)

	rows := snap.Long(base)
	require.Len(t, rows, 2*len(Locations))

	want := []Row{
		{Location: "London", ApptDate: "Thu 15 Oct", Count: 3, ScrapeDate: "15/10/2026"},
		{Location: "Peterborough", ApptDate: "Thu 15 Oct", Count: 0, ScrapeDate: "15/10/2026"},
	}
	if diff := cmp.Diff(want, rows[:2]); diff != "" {
		t.Fatalf("long rows mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, Row{Location: "London", ApptDate: "Fri 16 Oct", Count: 4, ScrapeDate: "15/10/2026"}, rows[len(Locations)])
}

func TestOutageMarker(t *testing.T) {
	m := MarkerFor(base, true)
	require.Equal(t, "15/10/2026", m.Date)
	require.True(t, m.ReportedOutageOn(base))
	require.False(t, m.ReportedOutageOn(base.AddDate(0, 0, 1)))
	require.False(t, MarkerFor(base, false).ReportedOutageOn(base))
}

func TestHorizonFollowsUKDays(t *testing.T) {
	// 23:30 UTC on 14 October is already 15 October in London (BST).
	late := time.Date(2026, time.October, 14, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "Wed 14 Oct", Labels(late)[0])
	require.Equal(t, "Thu 15 Oct", Labels(late.In(Zone))[0])
	require.Equal(t, "15/10/2026", MarkerFor(late.In(Zone), true).Date)

	require.Equal(t, Zone, Now().Location())
}
