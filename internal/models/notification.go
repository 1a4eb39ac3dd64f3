package models

import "time"

// Notification type tags emitted by the lifecycle engine.
const (
	NotifyApplicationCreated  = "application_created"
	NotifyApplicationAccepted = "application_accepted"
	NotifyApplicationDeclined = "application_declined"
	NotifySwapAccepted        = "swap_accepted"
	NotifySwapDeclined        = "swap_declined"
)

// Notification is an addressed, append-only event record. ReadAt is NULL
// while unread; the only permitted mutation is setting it, by the owner.
//
// DedupKey carries a unique index so that a retried delivery of the same
// logical notification collapses into the existing row instead of producing a
// duplicate.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Type      string     `gorm:"size:50;index" json:"type"`
	Title     string     `gorm:"size:255" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	Link      string     `gorm:"size:500" json:"link"`
	DedupKey  string     `gorm:"uniqueIndex;size:64" json:"-"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
