package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/logger"
	"github.com/skillhive/backend/pkg/response"
)

// SkillSwapService runs the skill swap lifecycle: proposals, the
// recipient's decision, the per-swap conversation thread, and the status
// history trail.
type SkillSwapService struct {
	db            *gorm.DB
	notifications *NotificationService
	faults        *SideEffectRecorder
}

func NewSkillSwapService(db *gorm.DB) *SkillSwapService {
	return &SkillSwapService{
		db:            db,
		notifications: NewNotificationService(db),
		faults:        NewSideEffectRecorder(db),
	}
}

// SwapResult carries the updated swap plus warnings for any side effect
// that failed and was queued for retry.
type SwapResult struct {
	Swap     *models.SkillSwap
	Warnings []string
}

// Propose creates a pending swap addressed to another user. The swap row
// and its initial history entry are written in one transaction so every
// swap carries a complete trail from birth.
func (s *SkillSwapService) Propose(ctx context.Context, fromUserID, toUserID uint, offered, requested, message string) (*models.SkillSwap, error) {
	if offered == "" || requested == "" {
		return nil, response.NewBadRequest("offered and requested skills are required")
	}
	if toUserID == fromUserID {
		return nil, response.NewBadRequest("cannot propose a swap with yourself")
	}

	var recipient models.User
	if err := s.db.First(&recipient, toUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("recipient not found")
		}
		return nil, err
	}

	swap := models.SkillSwap{
		FromUserID:     fromUserID,
		ToUserID:       toUserID,
		OfferedSkill:   offered,
		RequestedSkill: requested,
		Message:        message,
		Status:         models.StatusPending,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&swap).Error; err != nil {
			return err
		}
		return tx.Create(&models.SwapStatusHistory{
			SwapID:    swap.ID,
			Status:    models.StatusPending,
			ChangedBy: fromUserID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &swap, nil
}

// ChangeStatus decides a pending swap. Only the recipient may decide, and
// the guarded update makes concurrent decisions produce exactly one
// winner. The history entry and the initiator notification are
// best-effort: a failure is queued for retry and reported as a warning.
func (s *SkillSwapService) ChangeStatus(ctx context.Context, swapID, callerID uint, newStatus string) (*SwapResult, error) {
	if newStatus != models.StatusAccepted && newStatus != models.StatusDeclined {
		return nil, response.NewBadRequest("status must be accepted or declined")
	}

	var swap models.SkillSwap
	if err := s.db.First(&swap, swapID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("skill swap not found")
		}
		return nil, err
	}

	if swap.ToUserID != callerID {
		return nil, response.NewForbidden("only the swap recipient can decide it")
	}

	result := s.db.Model(&models.SkillSwap{}).
		Where("id = ? AND status = ?", swapID, models.StatusPending).
		Update("status", newStatus)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// A concurrent decision won; re-read so the message reports the
		// status that actually stuck.
		if err := s.db.First(&swap, swapID).Error; err != nil {
			return nil, err
		}
		return nil, response.NewInvalidState(fmt.Sprintf("skill swap is already %s", swap.Status))
	}

	swap.Status = newStatus
	out := &SwapResult{Swap: &swap}

	if err := s.db.Create(&models.SwapStatusHistory{
		SwapID:    swapID,
		Status:    newStatus,
		ChangedBy: callerID,
	}).Error; err != nil {
		logger.Warnf("append history for swap %d: %v", swapID, err)
		s.faults.RecordHistory(swapID, newStatus, callerID, err)
		out.Warnings = append(out.Warnings, "status history entry failed and was queued for retry")
	}

	notifyType := models.NotifySwapAccepted
	if newStatus == models.StatusDeclined {
		notifyType = models.NotifySwapDeclined
	}
	task := NewNotificationTask(swap.FromUserID, notifyType,
		fmt.Sprintf("Skill swap %s", newStatus),
		fmt.Sprintf("Your swap offer (%s for %s) was %s", swap.OfferedSkill, swap.RequestedSkill, newStatus),
		"/skill-swaps")
	if err := s.notifications.Dispatch(ctx, task); err != nil {
		logger.Warnf("notify initiator of swap %d: %v", swapID, err)
		s.faults.RecordNotification("skill_swap", swapID, task, err)
		out.Warnings = append(out.Warnings, "initiator notification failed and was queued for retry")
	}

	return out, nil
}

// GetByID returns a swap with both participants. Only a participant may
// view it.
func (s *SkillSwapService) GetByID(swapID, callerID uint) (*models.SkillSwap, error) {
	var swap models.SkillSwap
	err := s.db.Preload("FromUser").Preload("ToUser").First(&swap, swapID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("skill swap not found")
		}
		return nil, err
	}
	if swap.FromUserID != callerID && swap.ToUserID != callerID {
		return nil, response.NewForbidden("not a participant of this swap")
	}
	return &swap, nil
}

// ListForUser returns the swaps the user participates in, newest first.
func (s *SkillSwapService) ListForUser(userID uint) ([]models.SkillSwap, error) {
	var swaps []models.SkillSwap
	err := s.db.Preload("FromUser").Preload("ToUser").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&swaps).Error
	return swaps, err
}

// PostMessage appends a message to a swap's thread. Either participant
// may post, at any status: a declined swap can still be discussed.
func (s *SkillSwapService) PostMessage(swapID, senderID uint, body string) (*models.SwapMessage, error) {
	if body == "" {
		return nil, response.NewBadRequest("message body is required")
	}

	if _, err := s.participantSwap(swapID, senderID); err != nil {
		return nil, err
	}

	msg := models.SwapMessage{
		SwapID:   swapID,
		SenderID: senderID,
		Body:     body,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns a swap's thread in chronological order. Only a
// participant may read it.
func (s *SkillSwapService) ListMessages(swapID, callerID uint) ([]models.SwapMessage, error) {
	if _, err := s.participantSwap(swapID, callerID); err != nil {
		return nil, err
	}

	var messages []models.SwapMessage
	err := s.db.Preload("Sender").
		Where("swap_id = ?", swapID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ListHistory returns a swap's status trail in chronological order. Only
// a participant may read it.
func (s *SkillSwapService) ListHistory(swapID, callerID uint) ([]models.SwapStatusHistory, error) {
	if _, err := s.participantSwap(swapID, callerID); err != nil {
		return nil, err
	}

	var history []models.SwapStatusHistory
	err := s.db.Where("swap_id = ?", swapID).
		Order("created_at ASC, id ASC").
		Find(&history).Error
	return history, err
}

func (s *SkillSwapService) participantSwap(swapID, userID uint) (*models.SkillSwap, error) {
	var swap models.SkillSwap
	if err := s.db.First(&swap, swapID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("skill swap not found")
		}
		return nil, err
	}
	if swap.FromUserID != userID && swap.ToUserID != userID {
		return nil, response.NewForbidden("not a participant of this swap")
	}
	return &swap, nil
}
