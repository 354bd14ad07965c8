package toml

import (
	"fmt"
	"time"

	"github.com/3mragent/moltbot/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version      int           `toml:"version"`
	Replies      []replySchema `toml:"replies"`
	Advice       []string      `toml:"advice"`
	CommentTimes []string      `toml:"comment_times"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type replySchema struct {
	PostID    string `toml:"post_id"`
	PostedAt  string `toml:"posted_at"`
	ReplyText string `toml:"reply_text"`
	Mode      string `toml:"mode"`
	CommentID string `toml:"comment_id,omitempty"`
}

func toSchema(record domain.ReplyRecord) replySchema {
	return replySchema{
		PostID:    string(record.PostID),
		PostedAt:  formatTime(record.PostedAt),
		ReplyText: record.ReplyText,
		Mode:      string(record.Mode),
		CommentID: string(record.CommentID),
	}
}

func fromSchema(record replySchema) domain.ReplyRecord {
	return domain.ReplyRecord{
		PostID:    domain.PostID(record.PostID),
		PostedAt:  parseTime(record.PostedAt),
		ReplyText: record.ReplyText,
		Mode:      domain.ReplyMode(record.Mode),
		CommentID: domain.CommentID(record.CommentID),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
