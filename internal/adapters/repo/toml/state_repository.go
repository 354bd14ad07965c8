// Package toml persists the agent's reply history and advice memory in a
// single TOML file. Every write goes through a temp-file-then-rename so a
// crash mid-write can never corrupt the previous valid state; corruption
// would risk a double reply.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/3mragent/moltbot/internal/domain"
	"github.com/3mragent/moltbot/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	tempFilePattern = ".state-*.toml.tmp"
)

type StateRepository struct {
	path      string
	adviceCap int
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.StateStore = (*StateRepository)(nil)

func NewStateRepository(path string, adviceCap int) (*StateRepository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	if adviceCap <= 0 {
		adviceCap = domain.DefaultAdviceCapacity
	}

	return &StateRepository{path: absPath, adviceCap: adviceCap, mu: lockForPath(absPath)}, nil
}

func (r *StateRepository) HasReplied(ctx context.Context, id domain.PostID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return false, err
	}

	for _, entry := range file.Replies {
		if entry.PostID == string(id) {
			return true, nil
		}
	}

	return false, nil
}

func (r *StateRepository) RecordReply(ctx context.Context, record domain.ReplyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	// Records are append-only and keyed by post ID; the first one wins.
	for _, entry := range file.Replies {
		if entry.PostID == string(record.PostID) {
			return nil
		}
	}

	file.Replies = append(file.Replies, toSchema(record))

	return r.writeSchema(file)
}

func (r *StateRepository) ListReplies(ctx context.Context) ([]domain.ReplyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]domain.ReplyRecord, 0, len(file.Replies))
	for _, entry := range file.Replies {
		records = append(records, fromSchema(entry))
	}

	return records, nil
}

func (r *StateRepository) WasAdviceUsed(ctx context.Context, fingerprint string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return false, err
	}

	return domain.RestoreAdviceMemory(file.Advice, r.adviceCap).Contains(fingerprint), nil
}

func (r *StateRepository) RememberAdvice(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	memory := domain.RestoreAdviceMemory(file.Advice, r.adviceCap)
	memory.Remember(fingerprint)
	file.Advice = memory.Entries()

	return r.writeSchema(file)
}

func (r *StateRepository) RecentAdvice(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	return domain.RestoreAdviceMemory(file.Advice, r.adviceCap).Entries(), nil
}

func (r *StateRepository) CommentsInLastHour(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return 0, err
	}

	recent := pruneCommentTimes(file.CommentTimes, now)
	if len(recent) != len(file.CommentTimes) {
		file.CommentTimes = recent
		if err := r.writeSchema(file); err != nil {
			return 0, err
		}
	}

	return len(recent), nil
}

func (r *StateRepository) RecordCommentTime(ctx context.Context, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	file.CommentTimes = append(pruneCommentTimes(file.CommentTimes, now), formatTime(now))

	return r.writeSchema(file)
}

func pruneCommentTimes(raw []string, now time.Time) []string {
	cutoff := now.Add(-time.Hour)
	recent := make([]string, 0, len(raw))
	for _, entry := range raw {
		ts := parseTime(entry)
		if ts.IsZero() || !ts.After(cutoff) {
			continue
		}
		recent = append(recent, entry)
	}
	return recent
}

func (r *StateRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read state file: %w: %w", domain.ErrPersistence, err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode state file: %w: %w", domain.ErrPersistence, err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	file.applyDefaults()

	return file, nil
}

func (r *StateRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w: %w", domain.ErrPersistence, err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode state file: %w: %w", domain.ErrPersistence, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w: %w", domain.ErrPersistence, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w: %w", domain.ErrPersistence, err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w: %w", domain.ErrPersistence, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w: %w", domain.ErrPersistence, err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace state file: %w: %w", domain.ErrPersistence, err)
	}

	cleanup = false

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
