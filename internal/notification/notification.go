package notification

import (
	"fmt"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	notificationDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/notification"
	"github.com/shopspring/decimal"
)

const (
	TypeBudgetAlert     = "budget_alert"
	TypeBudgetExceeded  = "budget_exceeded"
	TypeSpendingWarning = "spending_warning"
	TypeMonthlyReport   = "monthly_report"
	TypeUnusualSpending = "unusual_spending"
	TypeGoalAchieved    = "goal_achieved"
	TypeBillReminder    = "bill_reminder"
	TypeSystemUpdate    = "system_update"
	TypeWelcome         = "welcome"
	TypeSecurityAlert   = "security_alert"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var typeDisplay = map[string]string{
	TypeBudgetAlert:     "Budget Alert",
	TypeBudgetExceeded:  "Budget Exceeded",
	TypeSpendingWarning: "Spending Warning",
	TypeMonthlyReport:   "Monthly Report",
	TypeUnusualSpending: "Unusual Spending Pattern",
	TypeGoalAchieved:    "Goal Achieved",
	TypeBillReminder:    "Bill Reminder",
	TypeSystemUpdate:    "System Update",
	TypeWelcome:         "Welcome Message",
	TypeSecurityAlert:   "Security Alert",
}

// TypeDisplay falls back to the raw type for unknown values.
func TypeDisplay(t string) string {
	if d, ok := typeDisplay[t]; ok {
		return d
	}
	return t
}

func IsValidType(t string) bool {
	_, ok := typeDisplay[t]
	return ok
}

type Notification struct {
	ID        int64
	UserID    int64
	Type      string
	Title     string
	Message   string
	Data      map[string]interface{}
	BudgetID  *int64
	DedupKey  *string
	IsRead    bool
	IsSent    bool
	Priority  string
	CreatedAt time.Time
	ReadAt    *time.Time
	ExpiresAt *time.Time
}

func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

// DedupKey identifies one notification of a type per budget per calendar day.
func DedupKey(notificationType string, budgetID int64, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s", notificationType, budgetID, budget.Day(day).Format("2006-01-02"))
}

// NewBudgetAlert reports a budget that crossed its alert threshold. The dedup
// key pins it to the evaluation day.
func NewBudgetAlert(b *budget.Budget, u budget.Usage, today time.Time) *Notification {
	display := category.DisplayName(b.Category)
	pct := u.PercentageUsed.Round(1)
	key := DedupKey(TypeBudgetAlert, b.ID, today)
	id := b.ID
	return &Notification{
		UserID:  b.UserID,
		Type:    TypeBudgetAlert,
		Title:   fmt.Sprintf("Budget Alert: %s", display),
		Message: fmt.Sprintf("You've used %s%% of your %s budget for %s. Budget: $%s, Spent: $%s", pct.StringFixed(1), b.Period, display, b.Amount.StringFixed(2), u.Spent.StringFixed(2)),
		Data: map[string]interface{}{
			"budget_id":       b.ID,
			"category":        b.Category,
			"percentage_used": u.PercentageUsed.Round(2).InexactFloat64(),
			"amount_spent":    u.Spent.Round(2).InexactFloat64(),
			"budget_amount":   b.Amount.InexactFloat64(),
		},
		BudgetID: &id,
		DedupKey: &key,
		Priority: PriorityMedium,
	}
}

// NewBudgetExceeded carries the over-amount. It has no dedup key unless the
// caller assigns one.
func NewBudgetExceeded(b *budget.Budget, u budget.Usage) *Notification {
	display := category.DisplayName(b.Category)
	over := u.Spent.Sub(b.Amount)
	id := b.ID
	return &Notification{
		UserID:  b.UserID,
		Type:    TypeBudgetExceeded,
		Title:   fmt.Sprintf("Budget Exceeded: %s", display),
		Message: fmt.Sprintf("You've exceeded your %s budget for %s by $%s. Consider reviewing your spending.", b.Period, display, over.StringFixed(2)),
		Data: map[string]interface{}{
			"budget_id":     b.ID,
			"category":      b.Category,
			"over_amount":   over.Round(2).InexactFloat64(),
			"amount_spent":  u.Spent.Round(2).InexactFloat64(),
			"budget_amount": b.Amount.InexactFloat64(),
		},
		BudgetID: &id,
		Priority: PriorityHigh,
	}
}

func NewSpendingWarning(userID int64, cat string, current, predicted decimal.Decimal) *Notification {
	return &Notification{
		UserID:  userID,
		Type:    TypeSpendingWarning,
		Title:   fmt.Sprintf("Spending Warning: %s", category.DisplayName(cat)),
		Message: fmt.Sprintf("Your %s spending is trending high. Current: $%s, Predicted monthly: $%s", cat, current.StringFixed(2), predicted.StringFixed(2)),
		Data: map[string]interface{}{
			"category":           cat,
			"current_spending":   current.Round(2).InexactFloat64(),
			"predicted_spending": predicted.Round(2).InexactFloat64(),
		},
		Priority: PriorityMedium,
	}
}

func NewMonthlyReport(userID int64, year int, month time.Month, totalSpent decimal.Decimal, topCategory string) *Notification {
	return &Notification{
		UserID:  userID,
		Type:    TypeMonthlyReport,
		Title:   fmt.Sprintf("Monthly Report: %s %d", month, year),
		Message: fmt.Sprintf("Your spending summary for %s: Total spent $%s. Top category: %s", month, totalSpent.StringFixed(2), topCategory),
		Data: map[string]interface{}{
			"month":        month.String(),
			"year":         year,
			"total_spent":  totalSpent.Round(2).InexactFloat64(),
			"top_category": topCategory,
		},
		Priority: PriorityLow,
	}
}

func NewWelcome(userID int64, firstName string) *Notification {
	return &Notification{
		UserID:  userID,
		Type:    TypeWelcome,
		Title:   fmt.Sprintf("Welcome to FinanceTracker, %s!", firstName),
		Message: "Start by adding your first expense and setting up budgets to track your spending effectively.",
		Data: map[string]interface{}{
			"is_welcome": true,
			"tips": []string{
				"Add expenses regularly for accurate tracking",
				"Set up budgets for better financial control",
				"Check your analytics for spending insights",
			},
		},
		Priority: PriorityLow,
	}
}

// TimeAgo renders the age of a notification the way the inbox shows it.
func TimeAgo(created, now time.Time) string {
	if created.IsZero() {
		return "Unknown"
	}
	diff := now.Sub(created)
	if diff < 0 {
		diff = 0
	}
	days := int(diff.Hours() / 24)
	switch {
	case days >= 365:
		return plural(days/365, "year")
	case days >= 30:
		return plural(days/30, "month")
	case days >= 7:
		return plural(days/7, "week")
	case days >= 1:
		return plural(days, "day")
	}
	if hours := int(diff.Hours()); hours > 0 {
		return plural(hours, "hour")
	}
	if minutes := int(diff.Minutes()); minutes > 0 {
		return plural(minutes, "minute")
	}
	return "Just now"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		BudgetID:  n.BudgetID,
		DedupKey:  n.DedupKey,
		IsRead:    n.IsRead,
		IsSent:    n.IsSent,
		Priority:  n.Priority,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
		ExpiresAt: n.ExpiresAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		BudgetID:  n.BudgetID,
		DedupKey:  n.DedupKey,
		IsRead:    n.IsRead,
		IsSent:    n.IsSent,
		Priority:  n.Priority,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
		ExpiresAt: n.ExpiresAt,
	}
}

func FromDataModelSlice(rows []*notificationDatamodel.Notification) []*Notification {
	result := make([]*Notification, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
