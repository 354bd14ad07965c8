package ports

import (
	"context"

	"github.com/3mragent/moltbot/internal/domain"
)

// FeedClient is the single outbound HTTP boundary to the forum. Every call
// is restricted to the allow-listed host; errors come back classified as the
// domain sentinels (ErrHostRejected, ErrAuthFailed, ErrRateLimited,
// ErrTransient, ErrNotFound).
type FeedClient interface {
	// FetchRecentPosts returns posts newest first. A fresh call re-fetches.
	FetchRecentPosts(ctx context.Context, submolt string, limit int) ([]domain.Post, error)
	PostComment(ctx context.Context, id domain.PostID, text string) (domain.CommentID, error)
	// AgentStatus reports claim status. Setup tooling only.
	AgentStatus(ctx context.Context) (domain.AgentStatus, error)
}
