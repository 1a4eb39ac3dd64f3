package models

import (
	"fmt"
	"time"
)

// Request lifecycle statuses shared by applications and skill swaps.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Application represents a user's request to join a project.
//
// PendingKey is "<project_id>:<applicant_id>" while the application is
// pending and NULL afterwards. Its unique index is what enforces "at most one
// pending application per (project, applicant)" under concurrent submits; the
// conditional update that resolves the application clears it in the same
// statement that changes the status.
type Application struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"index;not null" json:"project_id"`
	Project     *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ApplicantID uint      `gorm:"index;not null" json:"applicant_id"`
	Applicant   *User     `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Message     string    `gorm:"type:text" json:"message"`
	Status      string    `gorm:"size:50;default:pending" json:"status"`
	PendingKey  *string   `gorm:"uniqueIndex;size:100" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Application) TableName() string { return "project_applications" }

// ApplicationPendingKey builds the uniqueness key for a pending application.
func ApplicationPendingKey(projectID, applicantID uint) string {
	return fmt.Sprintf("%d:%d", projectID, applicantID)
}
