package job

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/config"
	"github.com/propdesk/propdesk/internal/pkg/timeutil"
	"github.com/propdesk/propdesk/internal/repo"
)

// RetentionJob ages out conversation data in small batches so a large
// backlog never holds long locks. Archiving runs before any deletion,
// so a conversation is only ever hard-deleted from the archived state
// or by the sparse rule. Re-running against an already clean store is
// a no-op.
type RetentionJob struct {
	conversations *repo.ConversationRepo
	messages      *repo.MessageRepo
	runs          *repo.RetentionRepo
	cfg           config.RetentionConfig
	mu            sync.Mutex
}

func NewRetentionJob(conversations *repo.ConversationRepo, messages *repo.MessageRepo, runs *repo.RetentionRepo, cfg config.RetentionConfig) *RetentionJob {
	return &RetentionJob{
		conversations: conversations,
		messages:      messages,
		runs:          runs,
		cfg:           cfg,
	}
}

func (j *RetentionJob) Name() string {
	return "retention"
}

// Run is safe to trigger manually while a scheduled run is active; the
// second caller blocks until the first finishes.
func (j *RetentionJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	logger := logutil.GetLogger(ctx)
	startedAt := time.Now().Unix()
	batch := j.cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}

	archived, err := j.drain(ctx, func() (int64, error) {
		return j.conversations.ArchiveOlderThan(ctx, timeutil.DaysAgoUnix(j.cfg.ConversationMaxAgeDays), batch)
	})
	if err != nil {
		return err
	}
	logger.Info("retention: conversations archived", zap.Int64("count", archived))

	deleted, err := j.drain(ctx, func() (int64, error) {
		return j.conversations.DeleteSparseOlderThan(ctx, timeutil.DaysAgoUnix(j.cfg.SparseMaxAgeDays), j.cfg.SparseMaxMessages, batch)
	})
	if err != nil {
		return err
	}
	logger.Info("retention: sparse conversations deleted", zap.Int64("count", deleted))

	messagesDeleted, err := j.drain(ctx, func() (int64, error) {
		return j.messages.DeleteOlderThan(ctx, timeutil.DaysAgoUnix(j.cfg.MessageMaxAgeDays), batch)
	})
	if err != nil {
		return err
	}
	logger.Info("retention: messages deleted", zap.Int64("count", messagesDeleted))

	if err := j.runs.RefreshStats(ctx, "conversations", "messages"); err != nil {
		logger.Warn("retention: refresh stats failed", zap.Error(err))
	}
	if err := j.runs.RecordRun(ctx, startedAt, archived, deleted, messagesDeleted); err != nil {
		return err
	}
	return nil
}

func (j *RetentionJob) drain(ctx context.Context, step func() (int64, error)) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := step()
		if err != nil {
			return total, err
		}
		total += n
		if n == 0 {
			return total, nil
		}
	}
}
