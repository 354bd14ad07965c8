package domain

import "errors"

var (
	// ErrHostRejected means an outbound call targeted a host outside the
	// allowlist. The call is refused before any network I/O happens.
	ErrHostRejected = errors.New("host rejected by allowlist")

	// ErrAuthFailed means the forum rejected our credential. Retrying with
	// the same key cannot succeed, so the whole cycle aborts.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited means the forum kept returning 429 after the retry
	// budget was spent.
	ErrRateLimited = errors.New("rate limited after retries")

	// ErrTransient means a network-level failure persisted through the
	// bounded retries. The post is skipped and retried on a later cycle.
	ErrTransient = errors.New("transient network failure")

	// ErrNotFound means the post vanished between fetch and reply.
	ErrNotFound = errors.New("post not found")

	// ErrPersistence means the state file could not be rewritten atomically.
	// Continuing would risk a double reply, so the cycle aborts.
	ErrPersistence = errors.New("state persistence failed")
)
