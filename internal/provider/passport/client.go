// Package passport scrapes the urgent passport appointment page.
//
// The page is a single HTML table: a header row of day names for the
// booking horizon and one row per office with the number of free slots.
// When the service is closed the page is replaced by an apology, which is
// how liveness is detected.
package passport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/provider"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Options configures a Client.
type Options struct {
	URL               string
	UnavailableMarker string
	RequestsPerMinute int
	Timeout           time.Duration
	ProxyURL          string
	CloudflareBypass  bool
	Logger            *slog.Logger
}

// Client fetches and parses the booking page.
type Client struct {
	http    *resty.Client
	url     string
	marker  string
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a rate-limited page client.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(timeout)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}

	return &Client{
		http:    client,
		url:     opts.URL,
		marker:  opts.UnavailableMarker,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		logger:  logger,
		now:     availability.Now,
	}
}

// Probe reports whether the booking service is up.
func (c *Client) Probe(ctx context.Context) (bool, error) {
	body, _, err := c.get(ctx)
	if err != nil {
		return false, err
	}
	return !c.unavailable(body), nil
}

// Fetch scrapes the availability table and normalizes it onto today's horizon.
func (c *Client) Fetch(ctx context.Context) provider.FetchResult {
	body, status, err := c.get(ctx)
	if err != nil {
		return provider.FetchResult{Outcome: provider.Failed, Err: err}
	}
	if status != http.StatusOK {
		return provider.FetchResult{
			Outcome: provider.Failed,
			Err:     fmt.Errorf("GET %s returned %d: %s", c.url, status, truncate(body, 200)),
		}
	}
	if c.unavailable(body) {
		return provider.FetchResult{Outcome: provider.Unavailable}
	}

	raw, err := ExtractTable(bytes.NewReader(body))
	if errors.Is(err, ErrNoTable) {
		c.logger.Warn("Appointments table missing from page", "url", c.url)
		return provider.FetchResult{Outcome: provider.Empty}
	}
	if err != nil {
		return provider.FetchResult{Outcome: provider.Failed, Err: err}
	}

	snap, err := Normalize(raw, c.now())
	if err != nil {
		return provider.FetchResult{Outcome: provider.Failed, Err: err}
	}
	c.logger.Debug("Fetched appointments table", "rows", len(raw.Rows), "columns", len(raw.Headers))
	return provider.FetchResult{Outcome: provider.Fetched, Snapshot: snap}
}

func (c *Client) unavailable(body []byte) bool {
	return c.marker != "" && strings.Contains(string(body), c.marker)
}

// get performs a rate-limited GET of the booking page.
func (c *Client) get(ctx context.Context) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return nil, 0, fmt.Errorf("http request %s: %w", c.url, err)
	}
	return res.Body(), res.StatusCode(), nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
