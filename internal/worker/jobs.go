package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SessionCleaner deletes expired and revoked sessions, returning how many.
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int64, error)
}

type SessionCleanerFunc func(ctx context.Context) (int64, error)

func (f SessionCleanerFunc) CleanupSessions(ctx context.Context) (int64, error) {
	return f(ctx)
}

func SessionCleanupHandler(cleaner SessionCleaner, logger *zap.Logger) JobHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job *Job) error {
		removed, err := cleaner.CleanupSessions(ctx)
		if err != nil {
			return fmt.Errorf("session cleanup: %w", err)
		}
		logger.Info("cleaned up sessions", zap.Int64("removed", removed), zap.String("job_id", job.ID))
		return nil
	}
}

// Scheduler enqueues one job every interval, starting immediately.
type Scheduler struct {
	queue    *JobQueue
	name     string
	jobType  JobType
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(queue *JobQueue, name string, jobType JobType, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if name == "" {
		name = DefaultQueue
	}
	return &Scheduler{queue: queue, name: name, jobType: jobType, interval: interval, logger: logger}
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.queue.Enqueue(ctx, s.name, s.jobType, nil); err != nil {
			s.logger.Warn("failed to schedule job", zap.String("job_type", string(s.jobType)), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
