package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/skillhive/backend/internal/config"
	"github.com/skillhive/backend/pkg/logger"
)

// TaskTypeNotificationDeliver is the asynq task type for notification
// delivery.
const TaskTypeNotificationDeliver = "notification:deliver"

// NotificationTask is the payload carried through the task queue for a
// single notification delivery.
type NotificationTask struct {
	UserID   uint   `json:"user_id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Link     string `json:"link"`
	DedupKey string `json:"dedup_key"`
}

// NotificationProcessor handles a dequeued notification task.
type NotificationProcessor func(ctx context.Context, task *NotificationTask) error

// TaskQueue abstracts notification dispatch so the engine works with or
// without Redis. SyncQueue processes inline; AsyncQueue hands off to an
// asynq worker.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *NotificationTask) error
	IsAsync() bool
	Close() error
}

var (
	taskQueue     TaskQueue
	taskQueueOnce sync.Once
)

// InitTaskQueue selects the queue backend. When Redis is configured and
// reachable an AsyncQueue is used, otherwise delivery happens inline.
func InitTaskQueue(cfg *config.RedisConfig, processor NotificationProcessor) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg != nil && cfg.Enabled {
			aq, err := NewAsyncQueue(cfg)
			if err != nil {
				logger.Warnf("redis unavailable, falling back to sync queue: %v", err)
			} else {
				logger.Info().Msg("task queue: async (redis)")
				taskQueue = aq
				return
			}
		}
		logger.Info().Msg("task queue: sync (inline)")
		taskQueue = &SyncQueue{processor: processor}
	})
	return taskQueue
}

// GetTaskQueue returns the configured queue, or nil before init.
func GetTaskQueue() TaskQueue {
	return taskQueue
}

// ResetTaskQueue clears the singleton, for tests.
func ResetTaskQueue() {
	taskQueue = nil
	taskQueueOnce = sync.Once{}
}

// SyncQueue runs the processor inline in the caller's goroutine.
type SyncQueue struct {
	processor NotificationProcessor
}

func (q *SyncQueue) Enqueue(ctx context.Context, task *NotificationTask) error {
	if q.processor == nil {
		return fmt.Errorf("sync queue has no processor")
	}
	return q.processor(ctx, task)
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }

// AsyncQueue enqueues tasks into Redis for the asynq worker.
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue connects to Redis and verifies it is reachable before
// committing to async dispatch.
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &AsyncQueue{client: asynq.NewClient(opt)}, nil
}

func (q *AsyncQueue) Enqueue(ctx context.Context, task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal notification task: %w", err)
	}

	_, err = q.client.EnqueueContext(ctx,
		asynq.NewTask(TaskTypeNotificationDeliver, payload),
		asynq.MaxRetry(maxSideEffectAttempts),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification task: %w", err)
	}
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error { return q.client.Close() }
