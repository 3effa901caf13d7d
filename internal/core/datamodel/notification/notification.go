package notification

import "time"

type Notification struct {
	ID        int64                  `gorm:"primaryKey"`
	UserID    int64                  `gorm:"column:user_id;not null;index"`
	Type      string                 `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Data      map[string]interface{} `gorm:"column:data;serializer:json"`
	BudgetID  *int64                 `gorm:"column:budget_id;index"`
	DedupKey  *string                `gorm:"column:dedup_key;uniqueIndex"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	IsSent    bool                   `gorm:"column:is_sent;not null;default:false"`
	Priority  string                 `gorm:"column:priority;not null;default:medium"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	ExpiresAt *time.Time             `gorm:"column:expires_at"`
}

func (Notification) TableName() string { return "notifications" }
