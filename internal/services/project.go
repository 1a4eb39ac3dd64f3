package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/response"
)

// ProjectService manages projects and their member rosters.
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// ProjectRequest carries the create/update form.
type ProjectRequest struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description" binding:"required"`
	RequiredSkills string `json:"required_skills"`
}

// Create stores a project. The creator is seeded as its first member.
func (s *ProjectService) Create(creatorID uint, req *ProjectRequest) (*models.Project, error) {
	project := models.Project{
		CreatorID:      creatorID,
		Title:          req.Title,
		Description:    req.Description,
		RequiredSkills: req.RequiredSkills,
		Status:         "open",
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProjectMember{ProjectID: project.ID, UserID: creatorID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status string
	Page   int
	Limit  int
}

// List returns projects matching the filter, newest first.
func (s *ProjectService) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := s.db.Model(&models.Project{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	var projects []models.Project
	err := query.Preload("Creator").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&projects).Error
	return projects, total, err
}

// GetByID returns one project with its creator.
func (s *ProjectService) GetByID(projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Creator").First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

// Update applies changes to a project. Only the creator may edit.
func (s *ProjectService) Update(projectID, callerID uint, req *ProjectRequest, status string) (*models.Project, error) {
	project, err := s.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != callerID {
		return nil, response.NewForbidden("only the project creator can edit it")
	}

	updates := map[string]interface{}{
		"title":           req.Title,
		"description":     req.Description,
		"required_skills": req.RequiredSkills,
	}
	if status != "" {
		switch status {
		case "open", "in_progress", "completed":
			updates["status"] = status
		default:
			return nil, response.NewBadRequest("status must be open, in_progress or completed")
		}
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Members returns a project's roster in join order.
func (s *ProjectService) Members(projectID uint) ([]models.ProjectMember, error) {
	if _, err := s.GetByID(projectID); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	err := s.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}
