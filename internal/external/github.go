package external

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	githubTimeout    = 30 * time.Second
	githubAPIVersion = "2022-11-28"
	githubRawMedia   = "application/vnd.github.raw"
	githubJSONMedia  = "application/vnd.github+json"
)

// ErrFileNotFound is returned by GetFile when the path does not exist on the
// branch.
var ErrFileNotFound = errors.New("github: file not found")

// ---------------------------------------------------------------------------
// GitHubClient — repository contents + workflow dispatch
// ---------------------------------------------------------------------------

// GitHubConfig identifies a repository and the credentials to act on it.
type GitHubConfig struct {
	APIURL string
	Token  string
	Owner  string
	Repo   string
	Branch string

	// Committer identity for content writes. Empty uses the token owner.
	CommitAuthor string
	CommitEmail  string
}

// GitHubClient reads and writes files in one repository and dispatches its
// Actions workflows.
type GitHubClient struct {
	cfg    GitHubConfig
	client *resty.Client
}

// NewGitHubClient creates a client for cfg.
func NewGitHubClient(cfg GitHubConfig) *GitHubClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(githubTimeout).
		SetHeader("Accept", githubJSONMedia).
		SetHeader("X-GitHub-Api-Version", githubAPIVersion)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &GitHubClient{cfg: cfg, client: client}
}

// Branch returns the branch the client reads and writes.
func (c *GitHubClient) Branch() string {
	return c.cfg.Branch
}

func (c *GitHubClient) contentsPath(path string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", c.cfg.Owner, c.cfg.Repo, strings.TrimLeft(path, "/"))
}

// GetFile returns the raw bytes of path on the configured branch.
func (c *GitHubClient) GetFile(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", githubRawMedia).
		SetQueryParam("ref", c.cfg.Branch).
		Get(c.contentsPath(path))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrFileNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: HTTP %d", path, resp.StatusCode())
	}
	return resp.Body(), nil
}

type contentMeta struct {
	SHA string `json:"sha"`
}

// FileSHA returns the blob sha of path, or "" if the file does not exist.
func (c *GitHubClient) FileSHA(ctx context.Context, path string) (string, error) {
	var meta contentMeta
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("ref", c.cfg.Branch).
		SetResult(&meta).
		Get(c.contentsPath(path))
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", nil
	}
	if resp.IsError() {
		return "", fmt.Errorf("stat %s: HTTP %d", path, resp.StatusCode())
	}
	return meta.SHA, nil
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type putContentRequest struct {
	Message   string     `json:"message"`
	Content   string     `json:"content"`
	Branch    string     `json:"branch"`
	SHA       string     `json:"sha,omitempty"`
	Committer *committer `json:"committer,omitempty"`
}

// PutFile creates or overwrites path with content in a single commit. sha is
// the blob being replaced, empty when creating.
func (c *GitHubClient) PutFile(ctx context.Context, path, message string, content []byte, sha string) error {
	body := putContentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.cfg.Branch,
		SHA:     sha,
	}
	if c.cfg.CommitAuthor != "" && c.cfg.CommitEmail != "" {
		body.Committer = &committer{Name: c.cfg.CommitAuthor, Email: c.cfg.CommitEmail}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Put(c.contentsPath(path))
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("put %s: HTTP %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

type dispatchRequest struct {
	Ref string `json:"ref"`
}

// DispatchWorkflow fires a workflow_dispatch event for workflowID on the
// configured branch.
func (c *GitHubClient) DispatchWorkflow(ctx context.Context, workflowID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(dispatchRequest{Ref: c.cfg.Branch}).
		Post(fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches", c.cfg.Owner, c.cfg.Repo, workflowID))
	if err != nil {
		return fmt.Errorf("dispatch workflow %s: %w", workflowID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("dispatch workflow %s: HTTP %d: %s", workflowID, resp.StatusCode(), resp.String())
	}
	return nil
}
