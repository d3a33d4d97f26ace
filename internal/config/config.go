// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/apptwatch and cmd/api.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Store backends
// --------------------------------------------------------------------------

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreGitHub   = "github"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Monitored service
	Service           string        `validate:"required"`
	SourceURL         string        `validate:"required,url"`
	UnavailableMarker string        `validate:"required"`
	RequestsPerMinute int           `validate:"gt=0"`
	HTTPTimeout       time.Duration `validate:"gt=0"`
	UseProxy          bool
	ProxyURL          string `validate:"required_if=UseProxy true"`
	CloudflareBypass  bool

	// Polling cadence
	WaitInterval time.Duration `validate:"gte=0"`

	// Snapshot storage
	StoreBackend string `validate:"oneof=memory postgres sqlite github"`
	SQLitePath   string `validate:"required_if=StoreBackend sqlite"`

	// Database (postgres backend and API listener)
	DatabaseURL    string `validate:"required_if=StoreBackend postgres"`
	DBPoolMinConns int
	DBPoolMaxConns int `validate:"gte=1"`
	DBPoolMaxLife  time.Duration

	// GitHub repository holding CSV snapshots and workflow definitions
	GitHubToken  string
	GitHubAPIURL string `validate:"required,url"`
	GitHubOwner  string `validate:"required_if=StoreBackend github"`
	GitHubRepo   string `validate:"required_if=StoreBackend github"`
	GitHubBranch string `validate:"required"`
	CalendarPath string `validate:"required"`
	HistoryPath  string `validate:"required"`
	MarkerPath   string `validate:"required"`
	CommitAuthor string
	CommitEmail  string `validate:"omitempty,email"`

	// External rescheduling (GitHub Actions workflow dispatch)
	TriggerEnabled     bool
	FirstRunWorkflowID string `validate:"required_if=TriggerEnabled true"`
	SteadyWorkflowID   string `validate:"required_if=TriggerEnabled true"`

	// Notifications
	NotifyEnabled      bool
	TwitterBearerToken string
	SMTPHost           string
	SMTPPort           int `validate:"gte=0,lte=65535"`
	SMTPUsername       string
	SMTPPassword       string
	AlertFrom          string   `validate:"omitempty,email"`
	AlertTo            []string `validate:"dive,email"`

	// Visualization artifact
	ArtifactPath string

	// Status API
	APIHost           string
	APIPort           int `validate:"gt=0,lte=65535"`
	Environment       string
	CORSAllowOrigins  []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CacheEnabled      bool
	HistoryRetention  time.Duration
}

// Load reads configuration from environment variables with sensible defaults
// and validates the result.
func Load() (*Config, error) {
	service := envOr("SERVICE", "premium")

	cfg := &Config{
		Service:           service,
		SourceURL:         envOr("SOURCE_URL", "https://www.passport.service.gov.uk/urgent/"),
		UnavailableMarker: envOr("UNAVAILABLE_MARKER", "Sorry"),
		RequestsPerMinute: envInt("SOURCE_REQUESTS_PER_MINUTE", 30),
		HTTPTimeout:       envDuration("SOURCE_TIMEOUT", 30*time.Second),
		UseProxy:          envBool("USE_PROXY", false),
		ProxyURL:          envOr("PROXY_URL", ""),
		CloudflareBypass:  envBool("CLOUDFLARE_BYPASS", true),

		WaitInterval: time.Duration(envInt("WAIT_MINUTES", 10)) * time.Minute,

		StoreBackend: strings.ToLower(envOr("STORE_BACKEND", StoreGitHub)),
		SQLitePath:   envOr("SQLITE_PATH", "apptwatch.db"),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		GitHubToken:  envOr("GITHUB_TOKEN", envOr("access_token_github", "")),
		GitHubAPIURL: envOr("GITHUB_API_URL", "https://api.github.com"),
		GitHubOwner:  envOr("GITHUB_OWNER", ""),
		GitHubRepo:   envOr("GITHUB_REPO", ""),
		GitHubBranch: envOr("GITHUB_BRANCH", "main"),
		CalendarPath: envOr("CALENDAR_PATH", fmt.Sprintf("data/%s_appointments_cal.csv", service)),
		HistoryPath:  envOr("HISTORY_PATH", fmt.Sprintf("data/%s_appointments.csv", service)),
		MarkerPath:   envOr("MARKER_PATH", fmt.Sprintf("data/%s_no_apps.md", service)),
		CommitAuthor: envOr("COMMIT_AUTHOR", "apptwatch"),
		CommitEmail:  envOr("COMMIT_EMAIL", ""),

		TriggerEnabled:     envBool("TRIGGER_ENABLED", true),
		FirstRunWorkflowID: envOr("FIRST_RUN_WORKFLOW_ID", "28968845"),
		SteadyWorkflowID:   envOr("STEADY_WORKFLOW_ID", "32513748"),

		NotifyEnabled:      envBool("NOTIFY_ENABLED", true),
		TwitterBearerToken: envOr("TWITTER_BEARER_TOKEN", ""),
		SMTPHost:           envOr("SMTP_HOST", ""),
		SMTPPort:           envInt("SMTP_PORT", 587),
		SMTPUsername:       envOr("SMTP_USERNAME", ""),
		SMTPPassword:       envOr("SMTP_PASSWORD", ""),
		AlertFrom:          envOr("ALERT_FROM", ""),
		AlertTo:            envList("ALERT_TO", nil),

		ArtifactPath: envOr("ARTIFACT_PATH", "out.txt"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled:     envBool("CACHE_ENABLED", true),
		HistoryRetention: time.Duration(envInt("HISTORY_RETENTION_DAYS", 90)) * 24 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.TriggerEnabled || c.StoreBackend == StoreGitHub {
		if c.GitHubToken == "" || c.GitHubOwner == "" || c.GitHubRepo == "" {
			return fmt.Errorf("invalid configuration: GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO are required when TRIGGER_ENABLED is set or STORE_BACKEND=github")
		}
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
