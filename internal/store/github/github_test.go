package github

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/external"
	"github.com/apptwatch/apptwatch/internal/store"
)

// fakeFiles is an in-memory repository. Each put bumps the blob sha.
type fakeFiles struct {
	content map[string][]byte
	sha     map[string]string
	commits []string
	putErr  error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{content: map[string][]byte{}, sha: map[string]string{}}
}

func (f *fakeFiles) GetFile(ctx context.Context, path string) ([]byte, error) {
	b, ok := f.content[path]
	if !ok {
		return nil, external.ErrFileNotFound
	}
	return b, nil
}

func (f *fakeFiles) FileSHA(ctx context.Context, path string) (string, error) {
	return f.sha[path], nil
}

func (f *fakeFiles) PutFile(ctx context.Context, path, message string, content []byte, sha string) error {
	if f.putErr != nil {
		return f.putErr
	}
	if sha != f.sha[path] {
		return fmt.Errorf("sha mismatch for %s", path)
	}
	f.content[path] = content
	f.sha[path] = fmt.Sprintf("sha%d", len(f.commits)+1)
	f.commits = append(f.commits, message)
	return nil
}

var paths = Paths{
	Calendar: "data/premium_appointments_cal.csv",
	History:  "data/premium_appointments.csv",
	Marker:   "data/premium_no_apps.md",
}

func TestPreviousMissingFile(t *testing.T) {
	s := New("premium", newFakeFiles(), paths)
	_, err := s.Previous(context.Background(), "premium")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReplaceThenPrevious(t *testing.T) {
	ctx := context.Background()
	files := newFakeFiles()
	s := New("premium", files, paths)

	snap, err := availability.New([]string{"Thu 15 Oct", "Fri 16 Oct"}, map[string][]int{"Glasgow": {2, 8}})
	require.NoError(t, err)

	require.NoError(t, s.Replace(ctx, "premium", snap))
	require.NoError(t, s.Replace(ctx, "premium", snap))
	require.Len(t, files.commits, 2)
	require.Equal(t, "Update premium availability", files.commits[0])

	got, err := s.Previous(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, snap.Labels(), got.Labels())
	require.Equal(t, []int{2, 8}, got.Row("Glasgow"))
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	files := newFakeFiles()
	s := New("premium", files, paths)

	row := availability.Row{Location: "London", ApptDate: "Thu 15 Oct", Count: 3, ScrapeDate: "15/10/2026"}
	require.NoError(t, s.Append(ctx, "premium", []availability.Row{row}))
	require.NoError(t, s.Append(ctx, "premium", []availability.Row{row}))
	require.NoError(t, s.Append(ctx, "premium", nil))

	require.Equal(t,
		"location,appt_date,count,scrape_date\nLondon,Thu 15 Oct,3,15/10/2026\nLondon,Thu 15 Oct,3,15/10/2026\n",
		string(files.content[paths.History]))
}

func TestAppendToFileWithoutTrailingNewline(t *testing.T) {
	files := newFakeFiles()
	files.content[paths.History] = []byte("location,appt_date,count,scrape_date")
	files.sha[paths.History] = "sha0"
	s := New("premium", files, paths)

	row := availability.Row{Location: "Durham", ApptDate: "Thu 15 Oct", Count: 1, ScrapeDate: "15/10/2026"}
	require.NoError(t, s.Append(context.Background(), "premium", []availability.Row{row}))
	require.Equal(t, "location,appt_date,count,scrape_date\nDurham,Thu 15 Oct,1,15/10/2026\n", string(files.content[paths.History]))
}

func TestOutageMarker(t *testing.T) {
	ctx := context.Background()
	files := newFakeFiles()
	s := New("premium", files, paths)

	_, err := s.OutageMarker(ctx, "premium")
	require.ErrorIs(t, err, store.ErrNotFound)

	m := availability.OutageMarker{Date: "15/10/2026", NoAppointments: true}
	require.NoError(t, s.SetOutageMarker(ctx, "premium", m))
	require.Equal(t, "15/10/2026 True", string(files.content[paths.Marker]))

	got, err := s.OutageMarker(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestWriteFailurePropagates(t *testing.T) {
	files := newFakeFiles()
	files.putErr = errors.New("HTTP 409")
	s := New("premium", files, paths)

	snap, err := availability.New([]string{"Thu 15 Oct"}, nil)
	require.NoError(t, err)
	require.Error(t, s.Replace(context.Background(), "premium", snap))
}

func TestOtherServiceIsNotServed(t *testing.T) {
	ctx := context.Background()
	files := newFakeFiles()
	s := New("premium", files, paths)

	snap, err := availability.New([]string{"Thu 15 Oct"}, map[string][]int{"London": {4}})
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, "premium", snap))
	require.NoError(t, s.SetOutageMarker(ctx, "premium", availability.OutageMarker{Date: "15/10/2026", NoAppointments: true}))

	_, err = s.Previous(ctx, "fasttrack")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.OutageMarker(ctx, "fasttrack")
	require.ErrorIs(t, err, store.ErrNotFound)

	row := availability.Row{Location: "London", ApptDate: "Thu 15 Oct", Count: 4, ScrapeDate: "15/10/2026"}
	require.Error(t, s.Replace(ctx, "fasttrack", snap))
	require.Error(t, s.Append(ctx, "fasttrack", []availability.Row{row}))
	require.Error(t, s.SetOutageMarker(ctx, "fasttrack", availability.OutageMarker{}))
	require.Len(t, files.commits, 2)

	got, err := s.Previous(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, []int{4}, got.Row("London"))
}
