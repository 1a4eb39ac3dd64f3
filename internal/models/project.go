package models

import (
	"time"

	"gorm.io/gorm"
)

// Project represents a collaboration project looking for members.
type Project struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatorID      uint           `gorm:"index;not null" json:"creator_id"`
	Creator        *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	RequiredSkills string         `gorm:"type:text" json:"required_skills"` // comma-separated
	Status         string         `gorm:"size:50;default:open" json:"status"` // open, in_progress, completed
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProjectMember represents a user's confirmed membership in a project's
// working group. The composite unique index makes inserts idempotent at the
// store layer: a racing duplicate resolves to a constraint violation, never a
// second row.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Project) TableName() string       { return "projects" }
func (ProjectMember) TableName() string { return "project_members" }
