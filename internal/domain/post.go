package domain

import "time"

type PostID string

type CommentID string

// Post is one submolt post as fetched from the feed. Immutable after fetch.
type Post struct {
	ID        PostID
	Submolt   string
	Author    string
	Title     string
	Content   string
	CreatedAt time.Time
}

// Combined returns the title and content joined for scoring and pattern checks.
func (p Post) Combined() string {
	if p.Title == "" {
		return p.Content
	}
	return p.Title + "\n" + p.Content
}

// AgentStatus is the claim status returned by the forum for this agent.
// Used by setup tooling only, never by the cycle loop.
type AgentStatus struct {
	Name    string
	Claimed bool
	Status  string
}
