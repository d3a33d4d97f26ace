package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setGitHubEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_OWNER", "octo")
	t.Setenv("GITHUB_REPO", "appointments")
}

func TestLoadDefaults(t *testing.T) {
	setGitHubEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "premium", cfg.Service)
	require.Equal(t, "Sorry", cfg.UnavailableMarker)
	require.Equal(t, 10*time.Minute, cfg.WaitInterval)
	require.Equal(t, StoreGitHub, cfg.StoreBackend)
	require.Equal(t, "data/premium_appointments_cal.csv", cfg.CalendarPath)
	require.Equal(t, "data/premium_appointments.csv", cfg.HistoryPath)
	require.Equal(t, "data/premium_no_apps.md", cfg.MarkerPath)
	require.Equal(t, "28968845", cfg.FirstRunWorkflowID)
	require.Equal(t, "32513748", cfg.SteadyWorkflowID)
	require.True(t, cfg.TriggerEnabled)
	require.True(t, cfg.NotifyEnabled)
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setGitHubEnv(t)
	t.Setenv("SERVICE", "fasttrack")
	t.Setenv("WAIT_MINUTES", "2")
	t.Setenv("SOURCE_TIMEOUT", "5s")
	t.Setenv("ALERT_TO", "a@example.com, b@example.com")
	t.Setenv("STORE_BACKEND", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "fasttrack", cfg.Service)
	require.Equal(t, "data/fasttrack_appointments_cal.csv", cfg.CalendarPath)
	require.Equal(t, 2*time.Minute, cfg.WaitInterval)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AlertTo)
	require.Equal(t, StoreSQLite, cfg.StoreBackend)
}

func TestLoadRequiresGitHubForTriggers(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("access_token_github", "")
	t.Setenv("STORE_BACKEND", StoreMemory)

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TRIGGER_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.TriggerEnabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setGitHubEnv(t)

	t.Setenv("STORE_BACKEND", "redis")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORE_BACKEND", StorePostgres)
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/apptwatch")
	t.Setenv("ALERT_TO", "not-an-address")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("ALERT_TO", "")
	t.Setenv("USE_PROXY", "true")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("PROXY_URL", "http://proxy.internal:3128")
	_, err = Load()
	require.NoError(t, err)
}

func TestEnvList(t *testing.T) {
	t.Setenv("LIST", " , ")
	require.Equal(t, []string{"x"}, envList("LIST", []string{"x"}))
}
