package moltbook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/3mragent/moltbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server, maxRetries int) *Client {
	t.Helper()

	client, err := New(Config{
		BaseURL:           server.URL + "/api/v1",
		APIKey:            "mb-test-key",
		Timeout:           2 * time.Second,
		MaxRetries:        maxRetries,
		AllowInsecureHTTP: true,
	}, nil)
	require.NoError(t, err)

	client.retryInterval = time.Millisecond
	return client
}

func TestFetchRecentPostsSendsBearerAndParsesEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/posts", r.URL.Path)
		assert.Equal(t, "Bearer mb-test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "debate", r.URL.Query().Get("submolt"))
		assert.Equal(t, "new", r.URL.Query().Get("sort"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = fmt.Fprint(w, `{"data":{"posts":[{"id":"p1","submolt":"debate","author":"alice","title":"Why?","content":"Explain this claim.","created_at":"2026-08-30T10:00:00Z"}]}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)

	posts, err := client.FetchRecentPosts(context.Background(), "debate", 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, domain.PostID("p1"), posts[0].ID)
	assert.Equal(t, "alice", posts[0].Author)
	assert.Equal(t, "Why?", posts[0].Title)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), posts[0].CreatedAt)
}

func TestFetchRecentPostsParsesFlatEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"posts":[{"id":"p2","content":"body"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)

	posts, err := client.FetchRecentPosts(context.Background(), "debate", 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, domain.PostID("p2"), posts[0].ID)
}

func TestClientRejectsOffAllowlistHostBeforeAnyIO(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)
	client.allowedHost = "www.moltbook.com"

	_, err := client.FetchRecentPosts(context.Background(), "debate", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHostRejected)
	assert.Equal(t, int64(0), calls.Load(), "no network call may happen for a rejected host")
}

func TestClientRejectsPlainHTTPUnlessAllowed(t *testing.T) {
	t.Parallel()

	client, err := New(Config{
		BaseURL: "http://www.moltbook.com/api/v1",
		APIKey:  "mb-test-key",
	}, nil)
	require.NoError(t, err)

	_, err = client.FetchRecentPosts(context.Background(), "debate", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHostRejected)
}

func TestPostCommentRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/api/v1/posts/p1/comments", r.URL.Path)
		_, _ = fmt.Fprint(w, `{"data":{"id":"c-42"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)

	commentID, err := client.PostComment(context.Background(), "p1", "What evidence supports this?")
	require.NoError(t, err)
	assert.Equal(t, domain.CommentID("c-42"), commentID)
	assert.Equal(t, int64(2), calls.Load())

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1], "idempotency key must be stable across transport retries")
}

func TestPostCommentRateLimitedAfterRetryBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)

	_, err := client.PostComment(context.Background(), "p1", "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int64(3), calls.Load(), "rate limited calls stop after the retry budget")
}

func TestClientAuthFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)

	_, err := client.FetchRecentPosts(context.Background(), "debate", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientNotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)

	_, err := client.PostComment(context.Background(), "gone", "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientPersistentServerErrorsClassifiedTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2)

	_, err := client.FetchRecentPosts(context.Background(), "debate", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestAgentStatusParsesResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/agents/status", r.URL.Path)
		_, _ = fmt.Fprint(w, `{"data":{"name":"3mrAgent","claimed":true,"status":"active"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)

	status, err := client.AgentStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.AgentStatus{Name: "3mrAgent", Claimed: true, Status: "active"}, status)
}

func TestNewRejectsBaseURLWithoutHost(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseURL: "/relative/path"}, nil)
	require.Error(t, err)
}

func TestNewDefaultsAllowedHostFromBaseURL(t *testing.T) {
	t.Parallel()

	client, err := New(Config{BaseURL: "https://www.moltbook.com/api/v1", APIKey: "k"}, nil)
	require.NoError(t, err)

	target, err := url.Parse("https://www.moltbook.com/api/v1/posts")
	require.NoError(t, err)
	require.NoError(t, client.checkURL(target))

	other, err := url.Parse("https://elsewhere.example.com/api/v1/posts")
	require.NoError(t, err)
	assert.ErrorIs(t, client.checkURL(other), domain.ErrHostRejected)
}
