package domain

import (
	"strings"
	"time"
)

type ReplyMode string

const (
	ReplyModeDryRun ReplyMode = "dry-run"
	ReplyModePosted ReplyMode = "posted"
)

// ReplyRecord is the durable proof that a reply decision was executed for a
// post. At most one record exists per post ID; records are never mutated.
type ReplyRecord struct {
	PostID    PostID
	PostedAt  time.Time
	ReplyText string
	Mode      ReplyMode
	CommentID CommentID
}

const fingerprintMaxLen = 160

// Fingerprint normalizes reply text for duplicate comparison: lowercased,
// whitespace collapsed, truncated to a fixed prefix. Truncation counts
// runes, never splitting a multi-byte character.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if runes := []rune(normalized); len(runes) > fingerprintMaxLen {
		normalized = string(runes[:fingerprintMaxLen])
	}
	return normalized
}
