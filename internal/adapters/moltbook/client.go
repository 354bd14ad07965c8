// Package moltbook is the HTTP boundary to the Moltbook API. It is the only
// place outbound network calls happen, and every call is checked against the
// allow-listed host before any I/O.
package moltbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/3mragent/moltbot/internal/domain"
	"github.com/3mragent/moltbot/internal/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const (
	defaultTimeout       = 20 * time.Second
	initialBackoff       = 500 * time.Millisecond
	maxBackoff           = 15 * time.Second
	maxResponseBytes     = 1 << 20
	idempotencyKeyHeader = "Idempotency-Key"
)

type Config struct {
	BaseURL     string
	AllowedHost string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	// AllowInsecureHTTP permits plain http to the allow-listed host.
	// Local test servers only; production traffic is always https.
	AllowInsecureHTTP bool
}

type Client struct {
	base          *url.URL
	allowedHost   string
	apiKey        string
	httpClient    *http.Client
	maxTries      uint
	allowInsecure bool
	retryInterval time.Duration
	logger        *slog.Logger

	newIdempotencyKey func() string
}

var _ ports.FeedClient = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", cfg.BaseURL)
	}

	allowedHost := cfg.AllowedHost
	if allowedHost == "" {
		allowedHost = base.Host
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxTries := cfg.MaxRetries
	if maxTries < 1 {
		maxTries = 3
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		base:              base,
		allowedHost:       allowedHost,
		apiKey:            cfg.APIKey,
		httpClient:        &http.Client{Timeout: timeout},
		maxTries:          uint(maxTries),
		allowInsecure:     cfg.AllowInsecureHTTP,
		retryInterval:     initialBackoff,
		logger:            logger,
		newIdempotencyKey: uuid.NewString,
	}, nil
}

func (c *Client) FetchRecentPosts(ctx context.Context, submolt string, limit int) ([]domain.Post, error) {
	query := url.Values{}
	query.Set("submolt", submolt)
	query.Set("sort", "new")
	query.Set("limit", fmt.Sprint(limit))

	body, err := c.do(ctx, http.MethodGet, "posts", query, nil, "")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data *struct {
			Posts []postJSON `json:"posts"`
		} `json:"data"`
		Posts []postJSON `json:"posts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode posts response: %w", err)
	}

	raw := envelope.Posts
	if envelope.Data != nil {
		raw = envelope.Data.Posts
	}

	posts := make([]domain.Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, p.toDomain())
	}

	return posts, nil
}

func (c *Client) PostComment(ctx context.Context, id domain.PostID, text string) (domain.CommentID, error) {
	payload := map[string]string{"content": text}

	// One key per submission: transport-level retries reuse it, so a reply
	// whose success response was lost cannot be duplicated server-side.
	key := c.newIdempotencyKey()

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("posts/%s/comments", id), nil, payload, key)
	if err != nil {
		return "", err
	}

	var envelope struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode comment response: %w", err)
	}

	commentID := envelope.ID
	if envelope.Data != nil && envelope.Data.ID != "" {
		commentID = envelope.Data.ID
	}

	return domain.CommentID(commentID), nil
}

func (c *Client) AgentStatus(ctx context.Context) (domain.AgentStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "agents/status", nil, nil, "")
	if err != nil {
		return domain.AgentStatus{}, err
	}

	var envelope struct {
		Data *statusJSON `json:"data"`
		statusJSON
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.AgentStatus{}, fmt.Errorf("decode agent status response: %w", err)
	}

	status := envelope.statusJSON
	if envelope.Data != nil {
		status = *envelope.Data
	}

	return domain.AgentStatus{Name: status.Name, Claimed: status.Claimed, Status: status.Status}, nil
}

// do performs one API call with bounded retry. The allowlist check runs
// before any network I/O; a rejected host never reaches the transport.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, idempotencyKey string) ([]byte, error) {
	target := c.base.JoinPath(strings.Split(path, "/")...)
	if query != nil {
		target.RawQuery = query.Encode()
	}

	if err := c.checkURL(target); err != nil {
		return nil, err
	}

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request payload: %w", err)
		}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval
	expo.MaxInterval = maxBackoff

	attempt := func() ([]byte, error) {
		return c.attempt(ctx, method, target, encoded, idempotencyKey)
	}

	body, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("retrying moltbook request",
				"method", method,
				"path", path,
				"backoff", wait,
				"error", err.Error(),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	return body, nil
}

func (c *Client) attempt(ctx context.Context, method string, target *url.URL, payload []byte, idempotencyKey string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", domain.ErrAuthFailed, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", domain.ErrNotFound, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status 429", domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	return body, nil
}

func (c *Client) checkURL(target *url.URL) error {
	if target.Host != c.allowedHost {
		return fmt.Errorf("%w: %s", domain.ErrHostRejected, target.Host)
	}
	if target.Scheme != "https" && !c.allowInsecure {
		return fmt.Errorf("%w: scheme %q", domain.ErrHostRejected, target.Scheme)
	}
	return nil
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

type postJSON struct {
	ID        string `json:"id"`
	Submolt   string `json:"submolt"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (p postJSON) toDomain() domain.Post {
	createdAt, _ := time.Parse(time.RFC3339, p.CreatedAt)
	return domain.Post{
		ID:        domain.PostID(p.ID),
		Submolt:   p.Submolt,
		Author:    p.Author,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: createdAt,
	}
}

type statusJSON struct {
	Name    string `json:"name"`
	Claimed bool   `json:"claimed"`
	Status  string `json:"status"`
}
