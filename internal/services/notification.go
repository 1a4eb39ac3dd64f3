package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/logger"
	"github.com/skillhive/backend/pkg/response"
)

// notificationListLimit caps how many notifications one listing returns.
const notificationListLimit = 100

// NotificationService delivers and manages user notifications. Delivery
// goes through the task queue when one is configured, and is idempotent
// on the dedup key so a replayed task never produces a duplicate row.
type NotificationService struct {
	db  *gorm.DB
	hub *EventHub
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, hub: GetEventHub()}
}

// NewNotificationTask builds a dispatch task with a fresh dedup key.
func NewNotificationTask(userID uint, ntype, title, body, link string) *NotificationTask {
	return &NotificationTask{
		UserID:   userID,
		Type:     ntype,
		Title:    title,
		Body:     body,
		Link:     link,
		DedupKey: uuid.NewString(),
	}
}

// Dispatch routes a notification through the configured queue, or
// delivers inline when no queue has been initialized.
func (s *NotificationService) Dispatch(ctx context.Context, task *NotificationTask) error {
	if q := GetTaskQueue(); q != nil {
		return q.Enqueue(ctx, task)
	}
	return s.ProcessTask(ctx, task)
}

// ProcessTask is the queue processor for notification delivery.
func (s *NotificationService) ProcessTask(_ context.Context, task *NotificationTask) error {
	return s.Deliver(&models.Notification{
		UserID:   task.UserID,
		Type:     task.Type,
		Title:    task.Title,
		Body:     task.Body,
		Link:     task.Link,
		DedupKey: task.DedupKey,
	})
}

// Deliver persists a notification and pushes it to connected clients.
// A dedup key that was already delivered is a silent no-op.
func (s *NotificationService) Deliver(n *models.Notification) error {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(n)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Debugf("notification dedup key %s already delivered", n.DedupKey)
		return nil
	}

	s.hub.Publish(notificationEvent(n))
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(notificationListLimit).
		Find(&notifications).Error
	return notifications, err
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications as read. Marking a
// notification that does not exist, belongs to someone else, or is
// already read is a silent no-op.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	now := time.Now()
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", &now).Error
}

// MarkAllRead marks all of the user's unread notifications as read and
// returns how many were affected.
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", &now)
	return result.RowsAffected, result.Error
}

// Get returns one of the user's notifications.
func (s *NotificationService) Get(userID, notificationID uint) (*models.Notification, error) {
	var n models.Notification
	err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("notification not found")
		}
		return nil, err
	}
	return &n, nil
}
