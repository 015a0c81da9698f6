package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type JobType string

const (
	JobTypeSessionCleanup JobType = "session_cleanup"
)

const (
	DefaultQueue = "default"
	DeadQueue    = "dead_queue"
	// ScheduledSet holds jobs whose ProcessAt is in the future, scored by
	// ProcessAt in unix milliseconds.
	ScheduledSet = "scheduled_jobs"

	defaultMaxTries = 3
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Queue     string                 `json:"queue"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type Worker struct {
	client       *redis.Client
	queue        *JobQueue
	handlers     map[JobType]JobHandler
	queues       []string
	concurrency  int
	pollInterval time.Duration
	retryBase    time.Duration
	logger       *zap.Logger
	mu           sync.RWMutex
	now          func() time.Time
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
	// RetryBase is the delay before the first retry; it doubles per attempt.
	RetryBase time.Duration
	Logger    *zap.Logger
}

func NewWorker(config WorkerConfig) *Worker {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if len(config.Queues) == 0 {
		config.Queues = []string{DefaultQueue}
	}
	if config.RetryBase <= 0 {
		config.RetryBase = time.Minute
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Worker{
		client:       config.RedisClient,
		queue:        NewJobQueue(config.RedisClient),
		handlers:     make(map[JobType]JobHandler),
		queues:       config.Queues,
		concurrency:  config.Concurrency,
		pollInterval: config.PollInterval,
		retryBase:    config.RetryBase,
		logger:       config.Logger,
		now:          time.Now,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Run processes jobs until ctx is cancelled and returns once every worker
// goroutine has exited.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker",
		zap.Int("concurrency", w.concurrency),
		zap.Strings("queues", w.queues))

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.workerLoop(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	wg.Wait()
	w.logger.Info("worker stopped")
	return nil
}

func (w *Worker) workerLoop(ctx context.Context) {
	for ctx.Err() == nil {
		if err := w.processNextJob(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("error processing job", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.pollInterval):
			}
		}
	}
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.queue.PromoteDue(ctx, w.now()); err != nil && ctx.Err() == nil {
				w.logger.Warn("failed to promote scheduled jobs", zap.Error(err))
			}
		}
	}
}

func (w *Worker) processNextJob(ctx context.Context) error {
	result, err := w.client.BLPop(ctx, w.pollInterval, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.Queue == "" {
		job.Queue = result[0]
	}

	return w.executeJob(ctx, &job)
}

func (w *Worker) executeJob(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	log := w.logger.With(zap.String("job_id", job.ID), zap.String("job_type", string(job.Type)))
	log.Debug("processing job")

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := handler(jobCtx, job)
	if err == nil {
		log.Debug("job completed")
		return nil
	}

	job.Attempts++
	if job.Attempts < job.MaxTries {
		log.Warn("job failed, retrying",
			zap.Int("attempt", job.Attempts),
			zap.Int("max_tries", job.MaxTries),
			zap.Error(err))
		return w.retryJob(ctx, job)
	}

	log.Error("job failed permanently", zap.Int("attempts", job.Attempts), zap.Error(err))
	return w.moveToDeadQueue(ctx, job, err)
}

func (w *Worker) retryJob(ctx context.Context, job *Job) error {
	delay := w.retryBase * time.Duration(1<<(job.Attempts-1))
	job.ProcessAt = w.now().Add(delay)
	return w.queue.push(ctx, job, w.now())
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    w.now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(context.WithoutCancel(ctx), DeadQueue, deadJobData).Err()
}

type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}) (*Job, error) {
	return q.EnqueueAt(ctx, queue, jobType, payload, time.Now())
}

// EnqueueAt schedules a job. Jobs due now go straight onto the queue; later
// ones wait in ScheduledSet until promoted.
func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) (*Job, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}

	now := time.Now()
	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Queue:     queue,
		Payload:   payload,
		MaxTries:  defaultMaxTries,
		CreatedAt: now,
		ProcessAt: processAt,
	}
	if err := q.push(ctx, job, now); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *JobQueue) push(ctx context.Context, job *Job, now time.Time) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if job.ProcessAt.After(now) {
		return q.client.ZAdd(ctx, ScheduledSet, redis.Z{
			Score:  float64(job.ProcessAt.UnixMilli()),
			Member: jobData,
		}).Err()
	}
	return q.client.RPush(ctx, job.Queue, jobData).Err()
}

// PromoteDue moves scheduled jobs whose time has come onto their queues. A
// job removed by another promoter is skipped.
func (q *JobQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, ScheduledSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read scheduled jobs: %w", err)
	}

	promoted := 0
	for _, data := range due {
		removed, err := q.client.ZRem(ctx, ScheduledSet, data).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to claim scheduled job: %w", err)
		}
		if removed == 0 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return promoted, fmt.Errorf("failed to unmarshal scheduled job: %w", err)
		}
		queue := job.Queue
		if queue == "" {
			queue = DefaultQueue
		}
		if err := q.client.RPush(ctx, queue, data).Err(); err != nil {
			return promoted, fmt.Errorf("failed to promote job %s: %w", job.ID, err)
		}
		promoted++
	}
	return promoted, nil
}

func (q *JobQueue) GetQueueSize(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}

func (q *JobQueue) ScheduledCount(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, ScheduledSet).Result()
}
