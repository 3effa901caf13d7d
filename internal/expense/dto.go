package expense

import (
	"time"

	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/shopspring/decimal"
)

type CreateExpenseDTO struct {
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Date          *date.Date      `json:"date"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Location      *string         `json:"location,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
}

type UpdateExpenseDTO struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Date          *date.Date       `json:"date,omitempty"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	Location      *string          `json:"location,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
}

type BulkCreateDTO struct {
	Expenses []CreateExpenseDTO `json:"expenses"`
}

// ListFilter bounds are inclusive calendar days. A zero Limit means no limit.
type ListFilter struct {
	UserID    int64
	StartDate *time.Time
	EndDate   *time.Time
	Category  *string
	Limit     int
	Offset    int
}

type MonthlyTotal struct {
	Year  int
	Month time.Month
	Total decimal.Decimal
	Count int
}

type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

type DailyTotal struct {
	Date  time.Time
	Total decimal.Decimal
	Count int
}

type PaymentMethodTotal struct {
	PaymentMethod string
	Total         decimal.Decimal
	Count         int
}

type ExpenseView struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Amount          float64   `json:"amount"`
	Category        string    `json:"category"`
	CategoryDisplay string    `json:"category_display"`
	Description     string    `json:"description"`
	Date            date.Date `json:"date"`
	PaymentMethod   string    `json:"payment_method"`
	Notes           *string   `json:"notes"`
	Location        *string   `json:"location"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewExpenseView(e *Expense) ExpenseView {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return ExpenseView{
		ID:              e.ID,
		UserID:          e.UserID,
		Amount:          e.Amount.InexactFloat64(),
		Category:        e.Category,
		CategoryDisplay: category.DisplayName(e.Category),
		Description:     e.Description,
		Date:            date.New(e.Date),
		PaymentMethod:   e.PaymentMethod,
		Notes:           e.Notes,
		Location:        e.Location,
		Tags:            tags,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

type Pagination struct {
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
}

type PageSummary struct {
	TotalAmount   float64 `json:"total_amount"`
	ExpenseCount  int     `json:"expense_count"`
	AverageAmount float64 `json:"average_amount"`
}

type ListResponse struct {
	Expenses   []ExpenseView `json:"expenses"`
	Pagination Pagination    `json:"pagination"`
	Summary    PageSummary   `json:"summary"`
}

type DateRange struct {
	StartDate *date.Date `json:"start_date"`
	EndDate   *date.Date `json:"end_date"`
}

type SummaryTotals struct {
	TotalAmount   float64   `json:"total_amount"`
	ExpenseCount  int       `json:"expense_count"`
	AverageAmount float64   `json:"average_amount"`
	DateRange     DateRange `json:"date_range"`
}

type CategoryShare struct {
	Category    string  `json:"category"`
	DisplayName string  `json:"display_name"`
	Amount      float64 `json:"amount"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

type PaymentMethodShare struct {
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

type SummaryResponse struct {
	Summary                SummaryTotals        `json:"summary"`
	CategoryBreakdown      []CategoryShare      `json:"category_breakdown"`
	PaymentMethodBreakdown []PaymentMethodShare `json:"payment_method_breakdown"`
}
