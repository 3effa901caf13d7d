package budget

import (
	"time"

	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/shopspring/decimal"
)

// CreateBudgetDTO dates are only honoured when both are supplied.
type CreateBudgetDTO struct {
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"`
	StartDate      *date.Date      `json:"start_date,omitempty"`
	EndDate        *date.Date      `json:"end_date,omitempty"`
	AlertThreshold *int            `json:"alert_threshold,omitempty"`
}

// UpdateBudgetDTO carries only the whitelisted fields; nil means unchanged.
type UpdateBudgetDTO struct {
	Category       *string          `json:"category,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Period         *string          `json:"period,omitempty"`
	StartDate      *date.Date       `json:"start_date,omitempty"`
	EndDate        *date.Date       `json:"end_date,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
	AlertThreshold *int             `json:"alert_threshold,omitempty"`
}

type ListFilter struct {
	UserID     int64
	ActiveOnly bool
	Category   *string
	// Covering keeps budgets whose window contains the day.
	Covering *time.Time
	// Overlapping keeps budgets whose window intersects it.
	Overlapping *Window
}

type BudgetView struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Category        string    `json:"category"`
	CategoryDisplay string    `json:"category_display"`
	Amount          float64   `json:"amount"`
	Period          string    `json:"period"`
	StartDate       date.Date `json:"start_date"`
	EndDate         date.Date `json:"end_date"`
	IsActive        bool      `json:"is_active"`
	AlertThreshold  int       `json:"alert_threshold"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Spent           float64   `json:"spent"`
	Remaining       float64   `json:"remaining"`
	PercentageUsed  float64   `json:"percentage_used"`
	DaysRemaining   int       `json:"days_remaining"`
	IsOverBudget    bool      `json:"is_over_budget"`
	ShouldAlert     bool      `json:"should_alert"`
}

func NewBudgetView(b *Budget, u Usage) BudgetView {
	return BudgetView{
		ID:              b.ID,
		UserID:          b.UserID,
		Category:        b.Category,
		CategoryDisplay: category.DisplayName(b.Category),
		Amount:          b.Amount.InexactFloat64(),
		Period:          b.Period,
		StartDate:       date.New(b.StartDate),
		EndDate:         date.New(b.EndDate),
		IsActive:        b.IsActive,
		AlertThreshold:  b.AlertThreshold,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Spent:           u.Spent.InexactFloat64(),
		Remaining:       u.Remaining.InexactFloat64(),
		PercentageUsed:  u.PercentageUsed.Round(2).InexactFloat64(),
		DaysRemaining:   u.DaysRemaining,
		IsOverBudget:    u.IsOverBudget,
		ShouldAlert:     u.ShouldAlert,
	}
}

type BudgetsResponse struct {
	Budgets []BudgetView `json:"budgets"`
	Total   int          `json:"total"`
}

const (
	StatusExcellent  = "excellent"
	StatusGood       = "good"
	StatusWarning    = "warning"
	StatusCritical   = "critical"
	StatusOverBudget = "over_budget"
)

type PerformanceView struct {
	Budget               BudgetView `json:"budget"`
	PerformanceScore     float64    `json:"performance_score"`
	Status               string     `json:"status"`
	DailyBudgetRemaining float64    `json:"daily_budget_remaining"`
	DaysElapsed          int        `json:"days_elapsed"`
	TotalDays            int        `json:"total_days"`
	TimeProgress         float64    `json:"time_progress"`
}
