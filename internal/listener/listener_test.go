package listener

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	services []string
}

func (r *recordingInvalidator) InvalidateService(service string) int {
	r.services = append(r.services, service)
	return 1
}

func TestHandle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inv := &recordingInvalidator{}

	handle(" premium\n", inv, logger)
	handle("", inv, logger)

	require.Equal(t, []string{"premium"}, inv.services)
}
