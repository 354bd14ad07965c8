// Package application runs the agent's reply cycle: fetch recent posts,
// filter, compose, dispatch, record. All persistence and network access go
// through ports; the cycle itself is sequential and single-writer.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/3mragent/moltbot/internal/domain"
	"github.com/3mragent/moltbot/internal/ports"
)

// ErrAborted marks failures the loop must not retry: broken credentials or a
// state file that cannot be written. Continuing past either risks spam or a
// double reply.
var ErrAborted = errors.New("cycle aborted")

type Config struct {
	AgentName          string
	Submolt            string
	AllowedHost        string
	FetchLimit         int
	DryRun             bool
	MaxCommentsPerHour int
	VariationAttempts  int
	MinRelevance       float64
	MinConfidence      float64
}

type CycleService struct {
	store    ports.StateStore
	feed     ports.FeedClient
	scorer   ports.Scorer
	composer ports.Composer
	clock    ports.Clock
	logger   *slog.Logger
	cfg      Config
}

func NewCycleService(store ports.StateStore, feed ports.FeedClient, scorer ports.Scorer, composer ports.Composer, clock ports.Clock, logger *slog.Logger, cfg Config) *CycleService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.VariationAttempts < 0 {
		cfg.VariationAttempts = 0
	}

	return &CycleService{
		store:    store,
		feed:     feed,
		scorer:   scorer,
		composer: composer,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// RunCycle executes one fetch-filter-compose-dispatch-record pass. Errors
// wrapped with ErrAborted are fatal to the loop; anything else means the
// cycle was skipped and the next one may succeed.
func (s *CycleService) RunCycle(ctx context.Context) (Report, error) {
	now := s.clock.Now()
	report := Report{StartedAt: now}

	recent, err := s.store.CommentsInLastHour(ctx, now)
	if err != nil {
		return report, s.classifyStoreError("count recent comments", err)
	}
	if s.cfg.MaxCommentsPerHour > 0 && recent >= s.cfg.MaxCommentsPerHour {
		s.logger.Info("hourly comment budget reached, skipping cycle",
			"comments_last_hour", recent,
			"max_per_hour", s.cfg.MaxCommentsPerHour,
		)
		report.SkippedBudget = true
		return report, nil
	}

	posts, err := s.feed.FetchRecentPosts(ctx, s.cfg.Submolt, s.cfg.FetchLimit)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return report, fmt.Errorf("%w: fetch posts: %w", ErrAborted, err)
		}
		return report, fmt.Errorf("fetch posts: %w", err)
	}

	policy := domain.FilterPolicy{
		AgentName:     s.cfg.AgentName,
		AllowedHost:   s.cfg.AllowedHost,
		MinRelevance:  s.cfg.MinRelevance,
		MinConfidence: s.cfg.MinConfidence,
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := s.handlePost(ctx, post, policy)
		if err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, outcome)

		switch outcome.Mode {
		case domain.ReplyModePosted:
			report.Posted++
		case domain.ReplyModeDryRun:
			report.DryRuns++
		}

		// One real comment per cycle. Dry runs keep going so a single pass
		// shows the decision for every fetched post.
		if outcome.Mode == domain.ReplyModePosted {
			break
		}
	}

	return report, nil
}

func (s *CycleService) handlePost(ctx context.Context, post domain.Post, policy domain.FilterPolicy) (PostOutcome, error) {
	outcome := PostOutcome{PostID: post.ID}

	replied, err := s.store.HasReplied(ctx, post.ID)
	if err != nil {
		return outcome, s.classifyStoreError("check reply history", err)
	}

	decision := domain.EvaluateEligibility(post, replied, s.scorer.Score(post), policy)
	if !decision.Eligible {
		outcome.SkipReason = decision.Reason
		s.logger.Debug("skipping post", "post_id", post.ID, "reason", decision.Reason)
		return outcome, nil
	}

	draft, fingerprint, err := s.draftFreshReply(ctx, post)
	if err != nil {
		if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return outcome, err
		}
		s.logger.Warn("compose failed, skipping post", "post_id", post.ID, "error", err.Error())
		return outcome, nil
	}
	if draft == "" {
		outcome.SkipReason = domain.SkipDuplicateAdvice
		s.logger.Info("all drafts matched recent advice, skipping post", "post_id", post.ID)
		return outcome, nil
	}

	outcome.Eligible = true
	outcome.ReplyText = draft

	if s.cfg.DryRun {
		outcome.Mode = domain.ReplyModeDryRun
		s.logger.Info("dry run, not posting", "post_id", post.ID, "reply", draft)
		return outcome, s.record(ctx, post.ID, draft, fingerprint, domain.ReplyModeDryRun, "")
	}

	// The dispatch is committed from here. An interrupt is honored between
	// posts only: once PostComment is called, the comment may already be live
	// on the server, so the submission and its record must run to completion
	// or the next cycle would reply to the same post again.
	dispatchCtx := context.WithoutCancel(ctx)

	commentID, err := s.feed.PostComment(dispatchCtx, post.ID, draft)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAuthFailed):
		return outcome, fmt.Errorf("%w: post comment: %w", ErrAborted, err)
	case errors.Is(err, domain.ErrHostRejected):
		s.logger.Error("comment blocked by host allowlist", "post_id", post.ID, "error", err.Error())
		return outcome, nil
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Debug("post disappeared before reply", "post_id", post.ID)
		return outcome, nil
	default:
		// No record is written, so the next cycle sees the post again.
		s.logger.Warn("post comment failed, will retry next cycle", "post_id", post.ID, "error", err.Error())
		return outcome, nil
	}

	outcome.Mode = domain.ReplyModePosted
	s.logger.Info("posted comment", "post_id", post.ID, "comment_id", commentID)

	if err := s.record(dispatchCtx, post.ID, draft, fingerprint, domain.ReplyModePosted, commentID); err != nil {
		// The comment is live but the history write failed. The next cycle
		// could reply to the same post again, so this must stop the agent.
		s.logger.Error("comment posted but not recorded, stopping",
			"post_id", post.ID,
			"comment_id", commentID,
			"error", err.Error(),
		)
		return outcome, err
	}

	return outcome, nil
}

// draftFreshReply composes a draft and regenerates it while its fingerprint
// matches recently used advice. An empty draft means every attempt collided.
func (s *CycleService) draftFreshReply(ctx context.Context, post domain.Post) (string, string, error) {
	draft, err := s.composer.Compose(ctx, post)
	if err != nil {
		return "", "", s.classifyComposeError(post.ID, err)
	}

	for attempt := 0; ; attempt++ {
		fingerprint := domain.Fingerprint(draft)

		used, err := s.store.WasAdviceUsed(ctx, fingerprint)
		if err != nil {
			return "", "", s.classifyStoreError("check advice memory", err)
		}
		if !used {
			return draft, fingerprint, nil
		}
		if attempt >= s.cfg.VariationAttempts {
			return "", "", nil
		}

		draft, err = s.composer.ComposeVariation(ctx, post, attempt+1)
		if err != nil {
			return "", "", s.classifyComposeError(post.ID, err)
		}
	}
}

func (s *CycleService) record(ctx context.Context, id domain.PostID, draft, fingerprint string, mode domain.ReplyMode, commentID domain.CommentID) error {
	now := s.clock.Now()

	record := domain.ReplyRecord{
		PostID:    id,
		PostedAt:  now,
		ReplyText: draft,
		Mode:      mode,
		CommentID: commentID,
	}
	if err := s.store.RecordReply(ctx, record); err != nil {
		return s.classifyStoreError("record reply", err)
	}
	if err := s.store.RememberAdvice(ctx, fingerprint); err != nil {
		return s.classifyStoreError("remember advice", err)
	}
	if err := s.store.RecordCommentTime(ctx, now); err != nil {
		return s.classifyStoreError("record comment time", err)
	}

	return nil
}

func (s *CycleService) classifyStoreError(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return fmt.Errorf("%w: %s: %w", ErrAborted, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *CycleService) classifyComposeError(id domain.PostID, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("compose reply for %s: %w", id, err)
}

// Summary builds the read model for the status command from the state file.
func (s *CycleService) Summary(ctx context.Context) (StateSummary, error) {
	records, err := s.store.ListReplies(ctx)
	if err != nil {
		return StateSummary{}, fmt.Errorf("list replies: %w", err)
	}

	summary := StateSummary{}
	for _, record := range records {
		switch record.Mode {
		case domain.ReplyModePosted:
			summary.PostedCount++
		case domain.ReplyModeDryRun:
			summary.DryRunCount++
		}
	}

	summary.RecentAdvice, err = s.store.RecentAdvice(ctx)
	if err != nil {
		return StateSummary{}, fmt.Errorf("list recent advice: %w", err)
	}

	summary.CommentsLastHour, err = s.store.CommentsInLastHour(ctx, s.clock.Now())
	if err != nil {
		return StateSummary{}, fmt.Errorf("count recent comments: %w", err)
	}

	return summary, nil
}
