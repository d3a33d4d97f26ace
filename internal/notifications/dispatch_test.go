package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePoster struct {
	posts []string
	err   error
}

func (f *fakePoster) Post(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, text)
	return nil
}

type fakeAlerter struct {
	messages []string
}

func (f *fakeAlerter) Alert(ctx context.Context, service, message string) error {
	f.messages = append(f.messages, service+": "+message)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBulkIncreaseReturnsPostedMessage(t *testing.T) {
	poster := &fakePoster{}
	d := NewDispatcher(poster, nil, quietLogger())

	msg, err := d.BulkIncrease(context.Background(), "premium", []string{"London", "Newport", "Durham"})
	require.NoError(t, err)
	require.Equal(t, "New Premium passport appointments have just been added at London, Newport and Durham.", msg)
	require.Equal(t, []string{msg}, poster.posts)
}

func TestBulkIncreaseRequiresLocations(t *testing.T) {
	d := NewDispatcher(&fakePoster{}, nil, quietLogger())
	_, err := d.BulkIncrease(context.Background(), "premium", nil)
	require.Error(t, err)
}

func TestPostFailurePropagates(t *testing.T) {
	d := NewDispatcher(&fakePoster{err: errors.New("403")}, nil, quietLogger())
	require.ErrorContains(t, d.InitialAvailability(context.Background(), "premium"), "403")

	_, err := d.BulkIncrease(context.Background(), "premium", []string{"London"})
	require.Error(t, err)
}

func TestNilChannelsAreNoOps(t *testing.T) {
	d := NewDispatcher(nil, nil, quietLogger())
	ctx := context.Background()

	require.NoError(t, d.InitialAvailability(ctx, "premium"))
	require.NoError(t, d.NoAppointments(ctx, "premium"))
	require.NoError(t, d.Alert(ctx, "premium", "hi"))

	msg, err := d.BulkIncrease(ctx, "premium", []string{"Belfast"})
	require.NoError(t, err)
	require.Contains(t, msg, "Belfast")
}

func TestAlertForwardsToAlerter(t *testing.T) {
	alerter := &fakeAlerter{}
	d := NewDispatcher(nil, alerter, quietLogger())
	require.NoError(t, d.Alert(context.Background(), "premium", "London added"))
	require.Equal(t, []string{"premium: London added"}, alerter.messages)
}

func TestJoinPlaces(t *testing.T) {
	require.Equal(t, "", joinPlaces(nil))
	require.Equal(t, "London", joinPlaces([]string{"London"}))
	require.Equal(t, "London and Newport", joinPlaces([]string{"London", "Newport"}))
}
