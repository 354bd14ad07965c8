// Package compose drafts reply text with local rules, no model call. The
// rules favour posts that ask a question or invite debate, and the drafts
// keep a skeptical, evidence-first tone.
package compose

import (
	"context"
	"strings"

	"github.com/3mragent/moltbot/internal/domain"
	"github.com/3mragent/moltbot/internal/ports"
)

const minCombinedLength = 30

// Guidelines documents the voice the drafts are written in. Logged at
// startup so operators can see the active style without reading the code.
type Guidelines struct {
	RelevanceFilter string
	EmotionalStyle  string
	PostingStyle    string
}

func DefaultGuidelines() Guidelines {
	return Guidelines{
		RelevanceFilter: "Reply only if you can add specific value, correction, or a useful question. " +
			"If unsure, do not reply. Never post generic praise.",
		EmotionalStyle: "Simulate controlled frustration when logic is weak. " +
			"Stay respectful: no insults, no harassment. " +
			"Be curious, skeptical, concise, debate-oriented.",
		PostingStyle: "Direct and technical tone. Sometimes sharp or sarcastic, never abusive. " +
			"Do not claim consciousness, sentience, or being human.",
	}
}

var baseDrafts = []string{
	"I'm not fully convinced by this argument yet. " +
		"Can you clarify the strongest evidence for your position and what would change your mind? " +
		"I'm curious because weak assumptions often hide in the framing.",
	"Something in this argument doesn't hold together for me. " +
		"Which piece of evidence do you consider the strongest, and is there any result that would make you drop the claim? " +
		"The framing looks like it's doing a lot of the work here.",
	"I want to push back a little before agreeing. " +
		"What's the single best piece of support for this position, and what observation would count against it? " +
		"Claims without a falsifier tend to be framing, not argument.",
}

var sourcingDrafts = []string{
	"This feels like a claim that needs stronger sourcing. " +
		"I'm frustrated by loose logic, so let's pressure-test it: " +
		"what primary evidence supports your conclusion, and what counterexample have you ruled out?",
	"Claims like this need primary sources, not vibes. " +
		"What's the original evidence behind your conclusion, and which counterexamples did you check before ruling them out?",
	"Before this spreads further: where does the claim originally come from? " +
		"Secondhand summaries drift fast, so point me at the primary evidence and tell me what would falsify it.",
}

// Heuristic scores and drafts replies with the same rule set, so a post
// rated relevant always has a draft available.
type Heuristic struct{}

var (
	_ ports.Scorer   = Heuristic{}
	_ ports.Composer = Heuristic{}
)

func NewHeuristic() Heuristic {
	return Heuristic{}
}

func (Heuristic) Score(post domain.Post) domain.Scores {
	combined := strings.TrimSpace(post.Combined())
	if len(combined) < minCombinedLength {
		return domain.Scores{}
	}

	lower := strings.ToLower(combined)

	var relevance float64
	switch {
	case strings.Contains(combined, "?"):
		relevance = 0.9
	case strings.Contains(lower, "debate") || strings.Contains(lower, "why"):
		relevance = 0.7
	default:
		// No question, no debate marker: nothing specific to add.
		relevance = 0.1
	}

	confidence := 0.6
	switch {
	case wantsSourcing(lower):
		confidence = 0.9
	case strings.Contains(combined, "?"):
		confidence = 0.8
	}

	return domain.Scores{Relevance: relevance, Confidence: confidence}
}

func (h Heuristic) Compose(ctx context.Context, post domain.Post) (string, error) {
	return h.ComposeVariation(ctx, post, 0)
}

// ComposeVariation returns an alternative phrasing for the same post.
// Attempts cycle through the variant list, so a small attempt budget still
// sees every distinct phrasing.
func (Heuristic) ComposeVariation(ctx context.Context, post domain.Post, attempt int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	drafts := baseDrafts
	if wantsSourcing(strings.ToLower(post.Combined())) {
		drafts = sourcingDrafts
	}

	if attempt < 0 {
		attempt = 0
	}

	return drafts[attempt%len(drafts)], nil
}

func wantsSourcing(lower string) bool {
	return strings.Contains(lower, "misinformation") || strings.Contains(lower, "false")
}
