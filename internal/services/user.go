package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/response"
)

// UserService exposes the member directory.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// UserFilter narrows directory listings.
type UserFilter struct {
	Skill     string
	Available *bool
	Page      int
	Limit     int
}

// List returns directory members matching the filter.
func (s *UserService) List(filter UserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if filter.Skill != "" {
		query = query.Where("id IN (?)",
			s.db.Model(&models.UserSkill{}).Select("user_id").Where("skill LIKE ?", "%"+filter.Skill+"%"))
	}
	if filter.Available != nil {
		query = query.Where("available = ?", *filter.Available)
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

	var users []models.User
	err := query.Preload("Skills").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error
	return users, total, err
}

// SetAvailability flips a member's open-to-collaborate flag. Users may
// only change their own.
func (s *UserService) SetAvailability(callerID, targetID uint, available bool) (*models.User, error) {
	if callerID != targetID {
		return nil, response.NewForbidden("cannot change another user's availability")
	}

	result := s.db.Model(&models.User{}).Where("id = ?", targetID).Update("available", available)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, response.NewNotFound("user not found")
	}
	return s.GetByID(targetID)
}

// GetByID returns one member with skills loaded.
func (s *UserService) GetByID(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Skills").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}
