package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/skillhive/backend/internal/config"
	"github.com/skillhive/backend/pkg/logger"
)

// Worker consumes queued notification tasks when async dispatch is
// enabled. asynq handles per-task retries; a task that exhausts its
// retries is logged and dropped.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor NotificationProcessor
}

func NewWorker(cfg *config.RedisConfig, processor NotificationProcessor) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 4,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				if retried >= maxRetry {
					logger.Errorf("notification task dropped after %d retries: %v", retried, err)
					LogError("notification", "delivery_dropped",
						"notification task exhausted retries",
						nil, "", "", map[string]interface{}{"error": err.Error()})
					return
				}
				logger.Warnf("notification task failed (retry %d/%d): %v", retried, maxRetry, err)
			}),
		},
	)

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: processor,
	}
	w.mux.HandleFunc(TaskTypeNotificationDeliver, w.handleNotificationDeliver)
	return w
}

func (w *Worker) handleNotificationDeliver(ctx context.Context, t *asynq.Task) error {
	var task NotificationTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return fmt.Errorf("decode notification task: %w", err)
	}
	return w.processor(ctx, &task)
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info().Msg("notification worker started")
	return nil
}

// Stop drains in-flight tasks and shuts the worker down.
func (w *Worker) Stop() {
	w.server.Stop()
	w.server.Shutdown()
	logger.Info().Msg("notification worker stopped")
}
