package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultPolicy() FilterPolicy {
	return FilterPolicy{
		AgentName:     "3mrAgent",
		AllowedHost:   "www.moltbook.com",
		MinRelevance:  0.4,
		MinConfidence: 0.5,
	}
}

func TestEvaluateEligibilityOrdering(t *testing.T) {
	t.Parallel()

	post := Post{ID: "p1", Author: "someone", Content: "Why is this claim true? Let's debate the evidence."}
	good := Scores{Relevance: 0.9, Confidence: 0.9}

	tests := []struct {
		name    string
		post    Post
		replied bool
		scores  Scores
		want    Decision
	}{
		{name: "eligible", post: post, scores: good, want: Eligible()},
		{name: "already replied wins over everything", post: post, replied: true, scores: Scores{}, want: Skip(SkipAlreadyReplied)},
		{
			name:   "policy wins over low relevance",
			post:   Post{ID: "p2", Author: "3mrAgent", Content: "short"},
			scores: Scores{},
			want:   Skip(SkipPolicy),
		},
		{
			name:   "low relevance before low confidence",
			post:   post,
			scores: Scores{Relevance: 0.1, Confidence: 0.1},
			want:   Skip(SkipNotRelevant),
		},
		{
			name:   "uncertain when relevant but confidence below threshold",
			post:   post,
			scores: Scores{Relevance: 0.9, Confidence: 0.49},
			want:   Skip(SkipUncertain),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EvaluateEligibility(tt.post, tt.replied, tt.scores, defaultPolicy())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateEligibilityUncertaintyGateIgnoresRelevanceScore(t *testing.T) {
	t.Parallel()

	post := Post{ID: "p3", Author: "someone", Content: "Why would anyone believe this without evidence?"}

	for _, relevance := range []float64{0.4, 0.6, 1.0} {
		got := EvaluateEligibility(post, false, Scores{Relevance: relevance, Confidence: 0.2}, defaultPolicy())
		assert.Equal(t, Skip(SkipUncertain), got)
	}
}

func TestEvaluateEligibilityPolicyChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		post Post
		want Decision
	}{
		{
			name: "self authored",
			post: Post{Author: "3mragent", Content: "anything at all"},
			want: Skip(SkipPolicy),
		},
		{
			name: "spam phrasing",
			post: Post{Author: "spammer", Content: "FREE CRYPTO for everyone, click here"},
			want: Skip(SkipPolicy),
		},
		{
			name: "off-allowlist domain mention",
			post: Post{Author: "someone", Content: "read https://evil.example.com/proof and tell me why"},
			want: Skip(SkipPolicy),
		},
		{
			name: "allow-listed domain mention passes policy",
			post: Post{Author: "someone", Content: "see https://www.moltbook.com/m/debate why is this wrong?"},
			want: Eligible(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EvaluateEligibility(tt.post, false, Scores{Relevance: 1, Confidence: 1}, defaultPolicy())
			assert.Equal(t, tt.want, got)
		})
	}
}
