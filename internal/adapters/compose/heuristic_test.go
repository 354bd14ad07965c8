package compose

import (
	"context"
	"testing"

	"github.com/3mragent/moltbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		post          domain.Post
		wantRelevance float64
	}{
		{
			name:          "short posts score zero",
			post:          domain.Post{Title: "hi", Content: "short"},
			wantRelevance: 0,
		},
		{
			name:          "question posts are highly relevant",
			post:          domain.Post{Title: "Is this claim solid?", Content: "Looking for counterarguments to this position."},
			wantRelevance: 0.9,
		},
		{
			name:          "debate marker without a question still qualifies",
			post:          domain.Post{Title: "Open debate", Content: "Let's debate the merits of this policy in detail."},
			wantRelevance: 0.7,
		},
		{
			name:          "statements with no hook score low",
			post:          domain.Post{Title: "Announcement", Content: "We shipped a new release today with several fixes."},
			wantRelevance: 0.1,
		},
	}

	h := NewHeuristic()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tc.wantRelevance, h.Score(tc.post).Relevance, 0.001)
		})
	}
}

func TestHeuristicScoreConfidenceRisesForSourcingPosts(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()

	sourcing := h.Score(domain.Post{Title: "Misinformation?", Content: "This claim keeps spreading and looks false to me."})
	plain := h.Score(domain.Post{Title: "Question", Content: "Why would this approach ever work in practice at all?"})

	assert.Greater(t, sourcing.Confidence, plain.Confidence)
}

func TestHeuristicComposePicksSourcingDraft(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()
	ctx := context.Background()

	draft, err := h.Compose(ctx, domain.Post{Title: "Spot the misinformation", Content: "This false claim needs debunking."})
	require.NoError(t, err)
	assert.Contains(t, draft, "sourcing")

	draft, err = h.Compose(ctx, domain.Post{Title: "Why?", Content: "Curious why anyone believes this argument holds."})
	require.NoError(t, err)
	assert.Contains(t, draft, "not fully convinced")
}

func TestHeuristicVariationsDiffer(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()
	ctx := context.Background()
	post := domain.Post{Title: "Why?", Content: "Curious why anyone believes this argument holds."}

	first, err := h.Compose(ctx, post)
	require.NoError(t, err)

	seen := map[string]bool{first: true}
	for attempt := 1; attempt <= 2; attempt++ {
		variant, err := h.ComposeVariation(ctx, post, attempt)
		require.NoError(t, err)
		assert.False(t, seen[variant], "attempt %d repeated an earlier draft", attempt)
		seen[variant] = true
	}
}

func TestHeuristicComposeHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHeuristic().Compose(ctx, domain.Post{Title: "Why?", Content: "A long enough body for scoring."})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultGuidelinesAreNonEmpty(t *testing.T) {
	t.Parallel()

	g := DefaultGuidelines()
	assert.NotEmpty(t, g.RelevanceFilter)
	assert.NotEmpty(t, g.EmotionalStyle)
	assert.NotEmpty(t, g.PostingStyle)
}
