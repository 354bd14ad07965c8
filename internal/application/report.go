package application

import (
	"time"

	"github.com/3mragent/moltbot/internal/domain"
)

// PostOutcome is what happened to one fetched post during a cycle.
type PostOutcome struct {
	PostID     domain.PostID
	Eligible   bool
	SkipReason domain.SkipReason
	Mode       domain.ReplyMode
	ReplyText  string
}

// Report summarizes one cycle for logging and the --once exit path.
type Report struct {
	StartedAt     time.Time
	SkippedBudget bool
	Outcomes      []PostOutcome
	Posted        int
	DryRuns       int
}

func (r Report) Evaluated() int {
	return len(r.Outcomes)
}

// StateSummary is the read model behind the status command.
type StateSummary struct {
	PostedCount      int      `json:"posted_count"`
	DryRunCount      int      `json:"dry_run_count"`
	CommentsLastHour int      `json:"comments_last_hour"`
	RecentAdvice     []string `json:"recent_advice"`
}
