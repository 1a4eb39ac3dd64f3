package models

import "time"

// SkillSwap represents a bilateral proposal to exchange skills between two
// users. The initiator (FromUser) proposes; only the recipient (ToUser) may
// decide the status. Accepted and declined are terminal.
type SkillSwap struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FromUserID     uint      `gorm:"index;not null" json:"from_user_id"`
	FromUser       *User     `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUserID       uint      `gorm:"index;not null" json:"to_user_id"`
	ToUser         *User     `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
	OfferedSkill   string    `gorm:"size:255;not null" json:"offered_skill"`
	RequestedSkill string    `gorm:"size:255;not null" json:"requested_skill"`
	Message        string    `gorm:"type:text" json:"message"`
	Status         string    `gorm:"size:50;default:pending" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SwapMessage is one entry in a swap's conversation thread. Messages are
// accepted from either participant regardless of the swap's status.
type SwapMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SwapID    uint      `gorm:"index;not null" json:"swap_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SwapStatusHistory records every status value a swap has ever held, with the
// acting user. Every swap has at least one entry (pending, actor=initiator)
// written atomically with its creation.
type SwapStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SwapID    uint      `gorm:"index;not null" json:"swap_id"`
	Status    string    `gorm:"size:50;not null" json:"status"`
	ChangedBy uint      `gorm:"not null" json:"changed_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (SkillSwap) TableName() string         { return "skill_swaps" }
func (SwapMessage) TableName() string       { return "skill_swap_messages" }
func (SwapStatusHistory) TableName() string { return "skill_swap_status_history" }
