package domain

import (
	"regexp"
	"strings"
)

type SkipReason string

const (
	SkipAlreadyReplied  SkipReason = "already-replied"
	SkipPolicy          SkipReason = "policy"
	SkipNotRelevant     SkipReason = "not-relevant"
	SkipUncertain       SkipReason = "uncertain"
	SkipDuplicateAdvice SkipReason = "duplicate-advice"
)

// Decision is the outcome of the eligibility filter for one post.
type Decision struct {
	Eligible bool
	Reason   SkipReason
}

func Skip(reason SkipReason) Decision {
	return Decision{Reason: reason}
}

func Eligible() Decision {
	return Decision{Eligible: true}
}

// Scores is the pluggable scoring output consumed by the filter.
type Scores struct {
	Relevance  float64
	Confidence float64
}

// FilterPolicy holds the thresholds and pattern rules for the filter.
// Constructed once from config; never mutated.
type FilterPolicy struct {
	AgentName     string
	AllowedHost   string
	MinRelevance  float64
	MinConfidence float64
}

var (
	spamPattern = regexp.MustCompile(`(?i)\b(buy now|free crypto|click here|limited offer|dm me)\b`)
	urlPattern  = regexp.MustCompile(`https?://([^/\s]+)`)
)

// EvaluateEligibility maps a post plus its history to a decision.
// Checks run in priority order and the first matching skip reason wins;
// that reason is the one surfaced in logs and dry-run output.
func EvaluateEligibility(post Post, alreadyReplied bool, scores Scores, policy FilterPolicy) Decision {
	if alreadyReplied {
		return Skip(SkipAlreadyReplied)
	}
	if violatesPolicy(post, policy) {
		return Skip(SkipPolicy)
	}
	if scores.Relevance < policy.MinRelevance {
		return Skip(SkipNotRelevant)
	}
	// If uncertain, do not reply. This is terminal, never a retry trigger.
	if scores.Confidence < policy.MinConfidence {
		return Skip(SkipUncertain)
	}
	return Eligible()
}

func violatesPolicy(post Post, policy FilterPolicy) bool {
	if policy.AgentName != "" && strings.EqualFold(post.Author, policy.AgentName) {
		return true
	}

	combined := post.Combined()
	if spamPattern.MatchString(combined) {
		return true
	}

	// A mention of a domain off the allowlist is treated as untrusted bait.
	for _, match := range urlPattern.FindAllStringSubmatch(combined, -1) {
		host := strings.ToLower(match[1])
		if h, _, ok := strings.Cut(host, ":"); ok {
			host = h
		}
		if policy.AllowedHost != "" && host != strings.ToLower(policy.AllowedHost) {
			return true
		}
	}

	return false
}
