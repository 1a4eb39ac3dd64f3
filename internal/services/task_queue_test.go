package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillhive/backend/internal/config"
)

func TestSyncQueue_ProcessesInline(t *testing.T) {
	var got *NotificationTask
	q := &SyncQueue{processor: func(_ context.Context, task *NotificationTask) error {
		got = task
		return nil
	}}

	task := &NotificationTask{UserID: 1, Type: "application_created", DedupKey: "k"}
	if err := q.Enqueue(context.Background(), task); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got != task {
		t.Error("processor not invoked inline")
	}
	if q.IsAsync() {
		t.Error("sync queue reports async")
	}
}

func TestSyncQueue_PropagatesProcessorError(t *testing.T) {
	wantErr := errors.New("db down")
	q := &SyncQueue{processor: func(context.Context, *NotificationTask) error {
		return wantErr
	}}

	err := q.Enqueue(context.Background(), &NotificationTask{})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestSyncQueue_NoProcessor(t *testing.T) {
	q := &SyncQueue{}
	if err := q.Enqueue(context.Background(), &NotificationTask{}); err == nil {
		t.Error("expected error without processor")
	}
}

func TestInitTaskQueue_DisabledRedisFallsBackToSync(t *testing.T) {
	ResetTaskQueue()
	t.Cleanup(ResetTaskQueue)

	q := InitTaskQueue(&config.RedisConfig{Enabled: false}, func(context.Context, *NotificationTask) error {
		return nil
	})
	if q.IsAsync() {
		t.Error("expected sync queue when redis is disabled")
	}
	if GetTaskQueue() != q {
		t.Error("GetTaskQueue does not return the initialized queue")
	}
}
