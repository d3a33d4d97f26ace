// Package external provides clients for third-party APIs (X/Twitter, GitHub).
package external

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	twitterBaseURL = "https://api.twitter.com/2"
	twitterTimeout = 15 * time.Second
	// Hard limit on post length enforced by the API.
	twitterMaxChars = 280
)

// ---------------------------------------------------------------------------
// TwitterService — post client
// ---------------------------------------------------------------------------

// TwitterService publishes posts on behalf of the account owning the token.
type TwitterService struct {
	bearerToken string
	client      *resty.Client
}

// NewTwitterService creates a twitter service. bearerToken may be empty, in
// which case Post fails and IsConfigured reports false.
func NewTwitterService(bearerToken string) *TwitterService {
	return newTwitterService(bearerToken, twitterBaseURL)
}

func newTwitterService(bearerToken, baseURL string) *TwitterService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(twitterTimeout).
		SetHeader("Content-Type", "application/json")
	if bearerToken != "" {
		client.SetAuthToken(bearerToken)
	}
	return &TwitterService{bearerToken: bearerToken, client: client}
}

// IsConfigured reports whether a bearer token is set.
func (s *TwitterService) IsConfigured() bool {
	return s.bearerToken != ""
}

// Status returns service configuration status.
func (s *TwitterService) Status() map[string]interface{} {
	return map[string]interface{}{
		"service":    "twitter",
		"configured": s.IsConfigured(),
		"max_chars":  twitterMaxChars,
	}
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Post publishes text via POST /2/tweets.
func (s *TwitterService) Post(ctx context.Context, text string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("Twitter API not configured. Set TWITTER_BEARER_TOKEN.")
	}
	if n := len([]rune(text)); n > twitterMaxChars {
		return fmt.Errorf("post is %d characters, limit is %d", n, twitterMaxChars)
	}

	var out tweetResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(tweetRequest{Text: text}).
		SetResult(&out).
		Post("/tweets")
	if err != nil {
		return fmt.Errorf("twitter API error: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twitter API HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Data.ID == "" {
		return fmt.Errorf("twitter API returned no post id")
	}
	return nil
}
