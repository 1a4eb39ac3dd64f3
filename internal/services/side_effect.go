package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/logger"
)

const (
	// maxSideEffectAttempts is how many times a failed side effect is
	// replayed before it is abandoned.
	maxSideEffectAttempts = 3

	// sideEffectRetryInterval is how often pending side effects are
	// replayed.
	sideEffectRetryInterval = 5 * time.Minute

	// sideEffectRetryBatchSize caps how many tasks one replay pass picks up.
	sideEffectRetryBatchSize = 10
)

// NotificationPayload is the stored form of a failed notification delivery.
type NotificationPayload struct {
	UserID   uint   `json:"user_id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Link     string `json:"link"`
	DedupKey string `json:"dedup_key"`
}

// MembershipPayload is the stored form of a failed membership insert.
type MembershipPayload struct {
	ProjectID uint `json:"project_id"`
	UserID    uint `json:"user_id"`
}

// HistoryPayload is the stored form of a failed swap history append.
type HistoryPayload struct {
	SwapID    uint   `json:"swap_id"`
	Status    string `json:"status"`
	ChangedBy uint   `json:"changed_by"`
}

// SideEffectRecorder captures failed side effects as durable tasks so a
// scheduler can replay them. Recording itself is best-effort: a recorder
// failure is logged but never surfaces to the caller.
type SideEffectRecorder struct {
	db *gorm.DB
}

func NewSideEffectRecorder(db *gorm.DB) *SideEffectRecorder {
	return &SideEffectRecorder{db: db}
}

func (r *SideEffectRecorder) record(operation, entityType string, entityID uint, payload interface{}, cause error) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("marshal side effect payload for %s: %v", operation, err)
		return
	}

	task := &models.SideEffectTask{
		Operation:  operation,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    string(data),
		LastError:  cause.Error(),
	}
	if err := r.db.Create(task).Error; err != nil {
		logger.Errorf("record side effect task %s for %s %d: %v", operation, entityType, entityID, err)
	}

	LogError("lifecycle", operation,
		fmt.Sprintf("side effect failed for %s %d", entityType, entityID),
		nil, "", "", map[string]interface{}{"error": cause.Error()})
}

// RecordNotification stores a failed notification delivery for replay.
func (r *SideEffectRecorder) RecordNotification(entityType string, entityID uint, task *NotificationTask, cause error) {
	r.record(models.SideEffectNotificationCreate, entityType, entityID, NotificationPayload{
		UserID:   task.UserID,
		Type:     task.Type,
		Title:    task.Title,
		Body:     task.Body,
		Link:     task.Link,
		DedupKey: task.DedupKey,
	}, cause)
}

// RecordMembership stores a failed project membership insert for replay.
func (r *SideEffectRecorder) RecordMembership(projectID, userID uint, cause error) {
	r.record(models.SideEffectMembershipEnsure, "project", projectID, MembershipPayload{
		ProjectID: projectID,
		UserID:    userID,
	}, cause)
}

// RecordHistory stores a failed swap history append for replay.
func (r *SideEffectRecorder) RecordHistory(swapID uint, status string, changedBy uint, cause error) {
	r.record(models.SideEffectHistoryAppend, "skill_swap", swapID, HistoryPayload{
		SwapID:    swapID,
		Status:    status,
		ChangedBy: changedBy,
	}, cause)
}

// SideEffectRetryService replays recorded side effects until they succeed
// or run out of attempts.
type SideEffectRetryService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewSideEffectRetryService(db *gorm.DB, notifications *NotificationService) *SideEffectRetryService {
	return &SideEffectRetryService{db: db, notifications: notifications}
}

// ProcessPending replays one batch of incomplete tasks. Returns how many
// tasks were completed in this pass.
func (s *SideEffectRetryService) ProcessPending() int {
	var tasks []models.SideEffectTask
	err := s.db.Where("completed_at IS NULL AND attempts < ?", maxSideEffectAttempts).
		Order("created_at ASC").
		Limit(sideEffectRetryBatchSize).
		Find(&tasks).Error
	if err != nil {
		logger.Errorf("load pending side effect tasks: %v", err)
		return 0
	}

	completed := 0
	for i := range tasks {
		task := &tasks[i]
		replayErr := s.replay(task)

		updates := map[string]interface{}{"attempts": task.Attempts + 1}
		if replayErr != nil {
			updates["last_error"] = replayErr.Error()
			logger.Warnf("side effect replay %s #%d failed (attempt %d): %v",
				task.Operation, task.ID, task.Attempts+1, replayErr)
			if task.Attempts+1 >= maxSideEffectAttempts {
				LogError("lifecycle", "side_effect_abandoned",
					fmt.Sprintf("side effect %s for %s %d abandoned after %d attempts",
						task.Operation, task.EntityType, task.EntityID, maxSideEffectAttempts),
					nil, "", "", map[string]interface{}{"error": replayErr.Error()})
			}
		} else {
			now := time.Now()
			updates["completed_at"] = &now
			updates["last_error"] = ""
			completed++
		}
		if err := s.db.Model(task).Updates(updates).Error; err != nil {
			logger.Errorf("update side effect task #%d: %v", task.ID, err)
		}
	}
	return completed
}

func (s *SideEffectRetryService) replay(task *models.SideEffectTask) error {
	switch task.Operation {
	case models.SideEffectNotificationCreate:
		var payload NotificationPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return s.notifications.Deliver(&models.Notification{
			UserID:   payload.UserID,
			Type:     payload.Type,
			Title:    payload.Title,
			Body:     payload.Body,
			Link:     payload.Link,
			DedupKey: payload.DedupKey,
		})

	case models.SideEffectMembershipEnsure:
		var payload MembershipPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return s.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProjectMember{
				ProjectID: payload.ProjectID,
				UserID:    payload.UserID,
			}).Error

	case models.SideEffectHistoryAppend:
		var payload HistoryPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		// A swap reaches each status at most once, so an existing entry
		// means the original append succeeded after all.
		var count int64
		if err := s.db.Model(&models.SwapStatusHistory{}).
			Where("swap_id = ? AND status = ?", payload.SwapID, payload.Status).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return s.db.Create(&models.SwapStatusHistory{
			SwapID:    payload.SwapID,
			Status:    payload.Status,
			ChangedBy: payload.ChangedBy,
		}).Error

	default:
		return fmt.Errorf("unknown side effect operation %q", task.Operation)
	}
}

// StartSideEffectRetryScheduler replays failed side effects on a fixed
// interval.
func StartSideEffectRetryScheduler(c *cron.Cron, svc *SideEffectRetryService) error {
	_, err := c.AddFunc(fmt.Sprintf("@every %s", sideEffectRetryInterval), func() {
		if completed := svc.ProcessPending(); completed > 0 {
			logger.Infof("side effect retry completed %d tasks", completed)
		}
	})
	return err
}
