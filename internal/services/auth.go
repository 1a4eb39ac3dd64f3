package services

import (
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/config"
	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/internal/utils"
	"github.com/skillhive/backend/pkg/response"
)

// AuthService handles registration, login and profile management.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// RegisterRequest carries the signup form.
type RegisterRequest struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	Bio      string   `json:"bio"`
	Skills   []string `json:"skills"`
}

// Register creates a user account and returns it with a session token.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, string, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := models.User{
		Name:      req.Name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		Role:      "user",
		Bio:       req.Bio,
		Available: true,
	}
	for _, skill := range req.Skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			user.Skills = append(user.Skills, models.UserSkill{Skill: skill})
		}
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", response.NewConflict("email is already registered")
		}
		return nil, "", err
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, "", err
	}
	LogInfo("auth", "register", "user registered: "+user.Email, &user.ID, "", "", nil)
	return &user, token, nil
}

// Login verifies credentials and returns the user with a session token.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.Preload("Skills").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", response.NewUnauthorized("invalid email or password")
		}
		return nil, "", err
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, "", response.NewUnauthorized("invalid email or password")
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	expireHours := 168
	if config.GlobalConfig != nil && config.GlobalConfig.JWT.ExpireHour > 0 {
		expireHours = config.GlobalConfig.JWT.ExpireHour
	}
	role := user.Role
	if role == "" {
		role = "user"
	}
	return utils.GenerateToken(user.ID, user.Name, role, expireHours)
}

// GetProfile returns the user with skills loaded.
func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
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

// ProfileUpdateRequest carries the editable profile fields. Nil pointers
// mean "leave unchanged".
type ProfileUpdateRequest struct {
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	Avatar    *string   `json:"avatar"`
	Links     []string  `json:"links"`
	Available *bool     `json:"available"`
	Skills    *[]string `json:"skills"`
}

// UpdateProfile applies a partial profile update and returns the fresh user.
func (s *AuthService) UpdateProfile(userID uint, req *ProfileUpdateRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if req.Links != nil {
		data, err := json.Marshal(req.Links)
		if err != nil {
			return nil, err
		}
		updates["links"] = string(data)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			result := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return response.NewNotFound("user not found")
			}
		}
		if req.Skills != nil {
			if err := tx.Where("user_id = ?", userID).Delete(&models.UserSkill{}).Error; err != nil {
				return err
			}
			for _, skill := range *req.Skills {
				if skill = strings.TrimSpace(skill); skill == "" {
					continue
				}
				if err := tx.Create(&models.UserSkill{UserID: userID, Skill: skill}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProfile(userID)
}
