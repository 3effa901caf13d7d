package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID            int64           `gorm:"primaryKey"`
	UserID        int64           `gorm:"column:user_id;not null;index:idx_expenses_user_date,priority:1"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Category      string          `gorm:"column:category;not null;index"`
	Description   string          `gorm:"column:description;not null"`
	ExpenseDate   time.Time       `gorm:"column:expense_date;type:date;not null;index:idx_expenses_user_date,priority:2"`
	PaymentMethod string          `gorm:"column:payment_method;default:cash"`
	Notes         *string         `gorm:"column:notes"`
	Location      *string         `gorm:"column:location"`
	Tags          []string        `gorm:"column:tags;serializer:json"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string { return "expenses" }
