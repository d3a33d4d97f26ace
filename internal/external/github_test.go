package external

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGitHub(t *testing.T, h http.HandlerFunc) *GitHubClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGitHubClient(GitHubConfig{
		APIURL:       srv.URL,
		Token:        "ghp_test",
		Owner:        "octo",
		Repo:         "appointments",
		Branch:       "main",
		CommitAuthor: "apptwatch",
		CommitEmail:  "bot@example.com",
	})
}

func TestGetFile(t *testing.T) {
	var ref, accept string
	c := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/appointments/contents/data/a.csv":
			ref, accept = r.URL.Query().Get("ref"), r.Header.Get("Accept")
			_, _ = w.Write([]byte("location\n"))
		default:
			http.NotFound(w, r)
		}
	})

	body, err := c.GetFile(context.Background(), "data/a.csv")
	require.NoError(t, err)
	require.Equal(t, "location\n", string(body))
	require.Equal(t, "main", ref)
	require.Equal(t, githubRawMedia, accept)

	_, err = c.GetFile(context.Background(), "data/missing.csv")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestFileSHAAndPut(t *testing.T) {
	var (
		put  putContentRequest
		auth string
	)
	c := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/appointments/contents/data/a.csv":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sha":"abc123"}`))
		case r.Method == http.MethodPut:
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&put)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	sha, err := c.FileSHA(ctx, "data/a.csv")
	require.NoError(t, err)
	require.Equal(t, "abc123", sha)

	sha, err = c.FileSHA(ctx, "data/new.csv")
	require.NoError(t, err)
	require.Empty(t, sha)

	require.NoError(t, c.PutFile(ctx, "data/a.csv", "update", []byte("x,y\n"), "abc123"))
	require.Equal(t, "Bearer ghp_test", auth)
	require.Equal(t, "update", put.Message)
	require.Equal(t, "abc123", put.SHA)
	require.Equal(t, "main", put.Branch)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("x,y\n")), put.Content)
	require.NotNil(t, put.Committer)
	require.Equal(t, "apptwatch", put.Committer.Name)
}

func TestDispatchWorkflow(t *testing.T) {
	var path string
	var body dispatchRequest
	c := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path == "/repos/octo/appointments/actions/workflows/bad/dispatches" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DispatchWorkflow(context.Background(), "32513748"))
	require.Equal(t, "/repos/octo/appointments/actions/workflows/32513748/dispatches", path)
	require.Equal(t, "main", body.Ref)

	require.Error(t, c.DispatchWorkflow(context.Background(), "bad"))
}
