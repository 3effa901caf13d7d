package budget

import (
	"context"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/core/common/validation"
	budgetDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/budget"
	"github.com/shopspring/decimal"
)

const DefaultAlertThreshold = 80

var hundred = decimal.NewFromInt(100)

type Budget struct {
	ID             int64
	UserID         int64
	Category       string
	Amount         decimal.Decimal
	Period         string
	StartDate      time.Time
	EndDate        time.Time
	IsActive       bool
	AlertThreshold int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Usage is the derived state of a budget for one spent amount and one day.
type Usage struct {
	Spent                decimal.Decimal
	Remaining            decimal.Decimal
	PercentageUsed       decimal.Decimal
	DaysRemaining        int
	DailyBudgetRemaining decimal.Decimal
	IsOverBudget         bool
	ShouldAlert          bool
}

func NewBudget(userID int64, dto CreateBudgetDTO, today time.Time) (*Budget, error) {
	cat := category.Normalize(dto.Category)
	period := category.Normalize(dto.Period)
	if period == "" {
		period = PeriodMonthly
	}
	threshold := DefaultAlertThreshold
	if dto.AlertThreshold != nil {
		threshold = *dto.AlertThreshold
	}
	window := ResolveWindow(period, today, date.Ptr(dto.StartDate), date.Ptr(dto.EndDate))

	v := validation.NewValidator()
	v.Field("category", cat).Required().OneOf(category.BudgetNames(), internal.ErrCodeInvalidCategory)
	v.Field("amount", dto.Amount).Positive(internal.ErrCodeInvalidAmount).MaxScale(2, internal.ErrCodeInvalidAmount)
	v.Field("period", period).OneOf(Periods, internal.ErrCodeInvalidPeriod)
	v.Field("end_date", window.End).NotBefore(window.Start, "start_date")
	v.Field("alert_threshold", threshold).Between(0, 100, internal.ErrCodeInvalidThreshold)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	now := today
	return &Budget{
		UserID:         userID,
		Category:       cat,
		Amount:         dto.Amount,
		Period:         period,
		StartDate:      window.Start,
		EndDate:        window.End,
		IsActive:       true,
		AlertThreshold: threshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (b *Budget) Window() Window {
	return Window{Start: Day(b.StartDate), End: Day(b.EndDate)}
}

// SpentAmount is always read live from the aggregator.
func (b *Budget) SpentAmount(ctx context.Context, agg SpendAggregator) (decimal.Decimal, error) {
	return agg.SpentBetween(ctx, b.UserID, b.Category, b.StartDate, b.EndDate)
}

// RemainingAmount may be negative once over budget.
func (b *Budget) RemainingAmount(spent decimal.Decimal) decimal.Decimal {
	return b.Amount.Sub(spent)
}

func (b *Budget) PercentageUsed(spent decimal.Decimal) decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return spent.Div(b.Amount).Mul(hundred)
}

// DaysRemaining counts today and every later day of the window; 0 once the
// window has ended.
func (b *Budget) DaysRemaining(today time.Time) int {
	t := Day(today)
	end := Day(b.EndDate)
	if t.After(end) {
		return 0
	}
	return int(end.Sub(t).Hours()/24) + 1
}

func (b *Budget) IsOverBudget(spent decimal.Decimal) bool {
	return spent.GreaterThan(b.Amount)
}

// ShouldAlert also holds once over budget; callers apply their own precedence.
func (b *Budget) ShouldAlert(spent decimal.Decimal) bool {
	return b.PercentageUsed(spent).GreaterThanOrEqual(decimal.NewFromInt(int64(b.AlertThreshold)))
}

func (b *Budget) DailyBudgetRemaining(spent decimal.Decimal, today time.Time) decimal.Decimal {
	days := b.DaysRemaining(today)
	if days == 0 {
		return decimal.Zero
	}
	return b.RemainingAmount(spent).Div(decimal.NewFromInt(int64(days)))
}

func (b *Budget) UsageFor(spent decimal.Decimal, today time.Time) Usage {
	return Usage{
		Spent:                spent,
		Remaining:            b.RemainingAmount(spent),
		PercentageUsed:       b.PercentageUsed(spent),
		DaysRemaining:        b.DaysRemaining(today),
		DailyBudgetRemaining: b.DailyBudgetRemaining(spent, today),
		IsOverBudget:         b.IsOverBudget(spent),
		ShouldAlert:          b.ShouldAlert(spent),
	}
}

// Evaluate reads the spent amount once and derives the full usage from it.
func (b *Budget) Evaluate(ctx context.Context, agg SpendAggregator, today time.Time) (Usage, error) {
	spent, err := b.SpentAmount(ctx, agg)
	if err != nil {
		return Usage{}, err
	}
	return b.UsageFor(spent, today), nil
}

// Apply validates every supplied field before touching the budget, so a
// rejected update leaves it unchanged.
func (b *Budget) Apply(dto UpdateBudgetDTO, now time.Time) error {
	next := *b

	v := validation.NewValidator()
	if dto.Category != nil {
		next.Category = category.Normalize(*dto.Category)
		v.Field("category", next.Category).OneOf(category.BudgetNames(), internal.ErrCodeInvalidCategory)
	}
	if dto.Amount != nil {
		next.Amount = *dto.Amount
		v.Field("amount", next.Amount).Positive(internal.ErrCodeInvalidAmount).MaxScale(2, internal.ErrCodeInvalidAmount)
	}
	if dto.Period != nil {
		next.Period = category.Normalize(*dto.Period)
		v.Field("period", next.Period).OneOf(Periods, internal.ErrCodeInvalidPeriod)
	}
	if start := date.Ptr(dto.StartDate); start != nil {
		next.StartDate = Day(*start)
	}
	if end := date.Ptr(dto.EndDate); end != nil {
		next.EndDate = Day(*end)
	}
	if dto.StartDate != nil || dto.EndDate != nil {
		v.Field("end_date", next.EndDate).NotBefore(next.StartDate, "start_date")
	}
	if dto.IsActive != nil {
		next.IsActive = *dto.IsActive
	}
	if dto.AlertThreshold != nil {
		next.AlertThreshold = *dto.AlertThreshold
		v.Field("alert_threshold", next.AlertThreshold).Between(0, 100, internal.ErrCodeInvalidThreshold)
	}
	if err := v.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = now
	*b = next
	return nil
}

func ToDataModel(b *Budget) *budgetDatamodel.Budget {
	return &budgetDatamodel.Budget{
		ID:             b.ID,
		UserID:         b.UserID,
		Category:       b.Category,
		Amount:         b.Amount,
		Period:         b.Period,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		IsActive:       b.IsActive,
		AlertThreshold: b.AlertThreshold,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func FromDataModel(b *budgetDatamodel.Budget) *Budget {
	return &Budget{
		ID:             b.ID,
		UserID:         b.UserID,
		Category:       b.Category,
		Amount:         b.Amount,
		Period:         b.Period,
		StartDate:      Day(b.StartDate),
		EndDate:        Day(b.EndDate),
		IsActive:       b.IsActive,
		AlertThreshold: b.AlertThreshold,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*budgetDatamodel.Budget) []*Budget {
	result := make([]*Budget, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
