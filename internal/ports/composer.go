package ports

import (
	"context"

	"github.com/3mragent/moltbot/internal/domain"
)

// Scorer rates a post for the eligibility filter. The scoring method
// (rule-based, model-based) can vary without changing the filter.
type Scorer interface {
	Score(post domain.Post) domain.Scores
}

// Composer drafts reply text for an eligible post. ComposeVariation is asked
// for when a draft collides with recently used advice; attempt starts at 1.
type Composer interface {
	Compose(ctx context.Context, post domain.Post) (string, error)
	ComposeVariation(ctx context.Context, post domain.Post, attempt int) (string, error)
}
