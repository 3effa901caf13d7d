package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID             int64           `gorm:"primaryKey"`
	UserID         int64           `gorm:"column:user_id;not null;index"`
	Category       string          `gorm:"column:category;not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Period         string          `gorm:"column:period;not null;default:monthly"`
	StartDate      time.Time       `gorm:"column:start_date;type:date;not null"`
	EndDate        time.Time       `gorm:"column:end_date;type:date;not null"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	AlertThreshold int             `gorm:"column:alert_threshold;not null;default:80"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Budget) TableName() string { return "budgets" }
