package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwitterPost(t *testing.T) {
	var gotAuth, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tweets" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var body tweetRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotText = body.Text
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1","text":"hello"}}`))
	}))
	defer srv.Close()

	s := newTwitterService("tok", srv.URL)
	require.True(t, s.IsConfigured())
	require.NoError(t, s.Post(context.Background(), "hello"))
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, "hello", gotText)
}

func TestTwitterPostErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Forbidden"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	require.Error(t, newTwitterService("tok", srv.URL).Post(ctx, "hello"))
	require.Error(t, newTwitterService("tok", srv.URL).Post(ctx, strings.Repeat("x", twitterMaxChars+1)))

	unconfigured := NewTwitterService("")
	require.False(t, unconfigured.IsConfigured())
	require.Error(t, unconfigured.Post(ctx, "hello"))
}
