package models

import "time"

// Side-effect operations that can be replayed by the retry scheduler.
const (
	SideEffectNotificationCreate = "notification.create"
	SideEffectMembershipEnsure   = "membership.ensure"
	SideEffectHistoryAppend      = "history.append"
)

// SideEffectTask is the fault-capture record for a side effect that failed
// after its primary state transition committed. A row here means the caller
// already saw success (possibly with a warning); the retry scheduler replays
// the operation until it completes or attempts run out. Rows are never
// deleted — CompletedAt marks resolution, keeping the reconciliation trail.
type SideEffectTask struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Operation   string     `gorm:"size:50;index;not null" json:"operation"`
	EntityType  string     `gorm:"size:50;not null" json:"entity_type"`
	EntityID    uint       `gorm:"index;not null" json:"entity_id"`
	Payload     string     `gorm:"type:text;not null" json:"payload"` // JSON arguments for replay
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SideEffectTask) TableName() string { return "side_effect_tasks" }
