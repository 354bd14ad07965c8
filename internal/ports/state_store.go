package ports

import (
	"context"
	"time"

	"github.com/3mragent/moltbot/internal/domain"
)

// StateStore is the durable record of replies and recently used advice.
// All access is synchronous relative to the cycle runner; no other component
// may bypass it.
type StateStore interface {
	HasReplied(ctx context.Context, id domain.PostID) (bool, error)
	// RecordReply persists a reply record. A record that already exists for
	// the post is kept untouched. Failures wrap domain.ErrPersistence.
	RecordReply(ctx context.Context, record domain.ReplyRecord) error
	ListReplies(ctx context.Context) ([]domain.ReplyRecord, error)

	WasAdviceUsed(ctx context.Context, fingerprint string) (bool, error)
	RememberAdvice(ctx context.Context, fingerprint string) error
	RecentAdvice(ctx context.Context) ([]string, error)

	CommentsInLastHour(ctx context.Context, now time.Time) (int, error)
	RecordCommentTime(ctx context.Context, now time.Time) error
}
