package user

import "time"

type User struct {
	ID                 int64     `gorm:"primaryKey"`
	Email              string    `gorm:"column:email;uniqueIndex;not null"`
	Name               string    `gorm:"column:name;not null"`
	PasswordHash       string    `gorm:"column:password_hash;not null"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	EmailNotifications bool      `gorm:"column:email_notifications;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// RevokedToken is a logged-out access or refresh token, kept until it would
// have expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"column:jti;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RevokedToken) TableName() string { return "revoked_tokens" }
