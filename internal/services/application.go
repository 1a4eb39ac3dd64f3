package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/logger"
	"github.com/skillhive/backend/pkg/response"
)

// ApplicationService runs the project application lifecycle: submission,
// the creator's accept/decline decision, and the side effects those
// trigger (membership, notifications).
type ApplicationService struct {
	db            *gorm.DB
	notifications *NotificationService
	faults        *SideEffectRecorder
}

func NewApplicationService(db *gorm.DB) *ApplicationService {
	return &ApplicationService{
		db:            db,
		notifications: NewNotificationService(db),
		faults:        NewSideEffectRecorder(db),
	}
}

// TransitionResult carries the updated application plus warnings for any
// side effect that failed and was queued for retry.
type TransitionResult struct {
	Application *models.Application
	Warnings    []string
}

// Submit creates a pending application. The unique pending key makes the
// one-pending-application-per-pair rule hold even under concurrent
// submissions: the database picks the single winner.
func (s *ApplicationService) Submit(ctx context.Context, projectID, applicantID uint, message string) (*models.Application, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	if project.CreatorID == applicantID {
		return nil, response.NewConflict("you are the creator of this project")
	}

	var memberCount int64
	if err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, applicantID).
		Count(&memberCount).Error; err != nil {
		return nil, err
	}
	if memberCount > 0 {
		return nil, response.NewConflict("you are already a member of this project")
	}

	key := models.ApplicationPendingKey(projectID, applicantID)
	app := models.Application{
		ProjectID:   projectID,
		ApplicantID: applicantID,
		Message:     message,
		Status:      models.StatusPending,
		PendingKey:  &key,
	}
	if err := s.db.Create(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("a pending application for this project already exists")
		}
		return nil, err
	}

	task := NewNotificationTask(project.CreatorID, models.NotifyApplicationCreated,
		"New project application",
		fmt.Sprintf("Someone applied to your project: %s", project.Title),
		fmt.Sprintf("/project/%d", projectID))
	if err := s.notifications.Dispatch(ctx, task); err != nil {
		logger.Warnf("notify creator of application %d: %v", app.ID, err)
		s.faults.RecordNotification("application", app.ID, task, err)
	}

	return &app, nil
}

// Transition decides a pending application. Only the project creator may
// decide, and only pending applications can move; the guarded update
// means concurrent decisions produce exactly one winner. Accepting also
// adds the applicant to the project; a failed side effect is queued for
// retry and reported as a warning, never as a request failure.
func (s *ApplicationService) Transition(ctx context.Context, applicationID, callerID uint, newStatus string) (*TransitionResult, error) {
	if newStatus != models.StatusAccepted && newStatus != models.StatusDeclined {
		return nil, response.NewBadRequest("status must be accepted or declined")
	}

	var app models.Application
	if err := s.db.First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("application not found")
		}
		return nil, err
	}

	var project models.Project
	if err := s.db.First(&project, app.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	if project.CreatorID != callerID {
		return nil, response.NewForbidden("only the project creator can decide applications")
	}

	// Guarded update: the status check in the WHERE clause is the
	// authoritative pending test, so a concurrent decision that lands
	// first leaves this one with zero affected rows.
	result := s.db.Model(&models.Application{}).
		Where("id = ? AND status = ?", applicationID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      newStatus,
			"pending_key": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// A concurrent decision won; re-read so the message reports the
		// status that actually stuck.
		if err := s.db.First(&app, applicationID).Error; err != nil {
			return nil, err
		}
		return nil, response.NewInvalidState(fmt.Sprintf("application is already %s", app.Status))
	}

	app.Status = newStatus
	app.PendingKey = nil
	out := &TransitionResult{Application: &app}

	if newStatus == models.StatusAccepted {
		if err := s.ensureMembership(app.ProjectID, app.ApplicantID); err != nil {
			logger.Warnf("add member %d to project %d: %v", app.ApplicantID, app.ProjectID, err)
			s.faults.RecordMembership(app.ProjectID, app.ApplicantID, err)
			out.Warnings = append(out.Warnings, "membership creation failed and was queued for retry")
		}
	}

	notifyType := models.NotifyApplicationAccepted
	if newStatus == models.StatusDeclined {
		notifyType = models.NotifyApplicationDeclined
	}
	task := NewNotificationTask(app.ApplicantID, notifyType,
		fmt.Sprintf("Application %s", newStatus),
		fmt.Sprintf("Your application to %s was %s", project.Title, newStatus),
		fmt.Sprintf("/project/%d", app.ProjectID))
	if err := s.notifications.Dispatch(ctx, task); err != nil {
		logger.Warnf("notify applicant of application %d: %v", app.ID, err)
		s.faults.RecordNotification("application", app.ID, task, err)
		out.Warnings = append(out.Warnings, "applicant notification failed and was queued for retry")
	}

	return out, nil
}

// ensureMembership inserts the project member row. The unique index on
// (project_id, user_id) plus ON CONFLICT DO NOTHING makes it idempotent.
func (s *ApplicationService) ensureMembership(projectID, userID uint) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
		}).Error
}

// ListForProject returns a project's applications, newest first. Only
// the project creator may list them.
func (s *ApplicationService) ListForProject(projectID, callerID uint) ([]models.Application, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	if project.CreatorID != callerID {
		return nil, response.NewForbidden("only the project creator can view applications")
	}

	var apps []models.Application
	err := s.db.Preload("Applicant").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// ListForUser returns the applications the user has submitted.
func (s *ApplicationService) ListForUser(userID uint) ([]models.Application, error) {
	var apps []models.Application
	err := s.db.Preload("Project").
		Where("applicant_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}
