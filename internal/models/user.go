package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a platform member.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role      string         `gorm:"size:20;default:user" json:"role"` // user, admin
	Bio       string         `gorm:"type:text" json:"bio"`
	Avatar    string         `gorm:"size:500" json:"avatar"`
	Links     string         `gorm:"type:text" json:"-"` // JSON array of profile links
	Available bool           `gorm:"default:true" json:"available"`
	Skills    []UserSkill    `gorm:"foreignKey:UserID" json:"skills,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSkill is one skill a user offers, one row per skill.
type UserSkill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Skill     string    `gorm:"size:255;not null" json:"skill"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string      { return "users" }
func (UserSkill) TableName() string { return "user_skills" }
