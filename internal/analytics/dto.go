package analytics

import (
	"time"

	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/shopspring/decimal"
)

const (
	TrendMonthly = "monthly"
	TrendDaily   = "daily"
)

type MonthlyTrend struct {
	Period string  `json:"period"`
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Total  float64 `json:"total"`
	Date   string  `json:"date"`
}

type MonthlyTrendsResponse struct {
	Trends []MonthlyTrend `json:"trends"`
	Period string         `json:"period"`
	Months int            `json:"months"`
}

type DailyTrend struct {
	Date  date.Date `json:"date"`
	Total float64   `json:"total"`
	Count int       `json:"count"`
}

type DailyTrendsResponse struct {
	Trends []DailyTrend `json:"trends"`
	Period string       `json:"period"`
	Days   int          `json:"days"`
}

type CategoryInsight struct {
	Category              string  `json:"category"`
	DisplayName           string  `json:"display_name"`
	Total                 float64 `json:"total"`
	Count                 int     `json:"count"`
	Percentage            float64 `json:"percentage"`
	AveragePerTransaction float64 `json:"average_per_transaction"`
}

type DateRange struct {
	StartDate *date.Date `json:"start_date"`
	EndDate   *date.Date `json:"end_date"`
}

type CategoryInsightsSummary struct {
	TotalSpending        float64          `json:"total_spending"`
	TotalCategories      int              `json:"total_categories"`
	TopCategory          *CategoryInsight `json:"top_category"`
	MostFrequentCategory *CategoryInsight `json:"most_frequent_category"`
	DateRange            DateRange        `json:"date_range"`
}

type CategoryInsightsResponse struct {
	CategoryBreakdown []CategoryInsight       `json:"category_breakdown"`
	Summary           CategoryInsightsSummary `json:"summary"`
}

type ReportSummary struct {
	Year                  int     `json:"year"`
	Month                 int     `json:"month"`
	MonthName             string  `json:"month_name"`
	TotalSpent            float64 `json:"total_spent"`
	TotalTransactions     int     `json:"total_transactions"`
	AveragePerDay         float64 `json:"average_per_day"`
	AveragePerTransaction float64 `json:"average_per_transaction"`
	MonthOverMonthChange  float64 `json:"month_over_month_change"`
}

type CategoryShare struct {
	Category    string  `json:"category"`
	DisplayName string  `json:"display_name"`
	Total       float64 `json:"total"`
	Percentage  float64 `json:"percentage"`
}

type DailyShare struct {
	Day   int       `json:"day"`
	Total float64   `json:"total"`
	Date  date.Date `json:"date"`
}

type BudgetPerformance struct {
	Category       string  `json:"category"`
	DisplayName    string  `json:"display_name"`
	BudgetAmount   float64 `json:"budget_amount"`
	SpentAmount    float64 `json:"spent_amount"`
	Remaining      float64 `json:"remaining"`
	PercentageUsed float64 `json:"percentage_used"`
	IsOverBudget   bool    `json:"is_over_budget"`
}

type BudgetSummary struct {
	TotalBudget           float64 `json:"total_budget"`
	TotalSpent            float64 `json:"total_spent"`
	TotalRemaining        float64 `json:"total_remaining"`
	OverallPercentageUsed float64 `json:"overall_percentage_used"`
}

type MonthlyReport struct {
	Report            ReportSummary       `json:"report"`
	CategoryBreakdown []CategoryShare     `json:"category_breakdown"`
	DailyBreakdown    []DailyShare        `json:"daily_breakdown"`
	BudgetPerformance []BudgetPerformance `json:"budget_performance"`
	BudgetSummary     BudgetSummary       `json:"budget_summary"`
}

// TopCategory is the display name of the largest category, or "None".
func (r *MonthlyReport) TopCategory() string {
	if len(r.CategoryBreakdown) == 0 {
		return "None"
	}
	return r.CategoryBreakdown[0].DisplayName
}

type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type MonthComparison struct {
	Month            int       `json:"month"`
	MonthName        string    `json:"month_name"`
	CurrentYear      YearTotal `json:"current_year"`
	PreviousYear     YearTotal `json:"previous_year"`
	ChangePercentage float64   `json:"change_percentage"`
	ChangeAmount     float64   `json:"change_amount"`
}

type YearOverYearSummary struct {
	CurrentYear             int     `json:"current_year"`
	PreviousYear            int     `json:"previous_year"`
	CurrentTotal            float64 `json:"current_total"`
	PreviousTotal           float64 `json:"previous_total"`
	OverallChangePercentage float64 `json:"overall_change_percentage"`
	OverallChangeAmount     float64 `json:"overall_change_amount"`
}

type YearOverYear struct {
	Comparison []MonthComparison   `json:"comparison"`
	Summary    YearOverYearSummary `json:"summary"`
}

type BudgetAnalysis struct {
	BudgetID             int64   `json:"budget_id"`
	Category             string  `json:"category"`
	DisplayName          string  `json:"display_name"`
	Period               string  `json:"period"`
	BudgetedAmount       float64 `json:"budgeted_amount"`
	ActualSpent          float64 `json:"actual_spent"`
	Remaining            float64 `json:"remaining"`
	Variance             float64 `json:"variance"`
	VariancePercentage   float64 `json:"variance_percentage"`
	PercentageUsed       float64 `json:"percentage_used"`
	IsOverBudget         bool    `json:"is_over_budget"`
	DaysRemaining        int     `json:"days_remaining"`
	DailyBudgetRemaining float64 `json:"daily_budget_remaining"`
}

type PeriodRange struct {
	StartDate date.Date `json:"start_date"`
	EndDate   date.Date `json:"end_date"`
}

type BudgetVsActualSummary struct {
	TotalBudgeted             float64     `json:"total_budgeted"`
	TotalSpent                float64     `json:"total_spent"`
	TotalRemaining            float64     `json:"total_remaining"`
	OverallVariance           float64     `json:"overall_variance"`
	OverallVariancePercentage float64     `json:"overall_variance_percentage"`
	OverallPercentageUsed     float64     `json:"overall_percentage_used"`
	Period                    PeriodRange `json:"period"`
}

type BudgetVsActual struct {
	BudgetAnalysis []BudgetAnalysis      `json:"budget_analysis"`
	Summary        BudgetVsActualSummary `json:"summary"`
}

const (
	WarningHighProjection = "high_spending_projection"
	WarningBudgetExceeded = "budget_exceeded"
	WarningBudget         = "budget_warning"
)

// SpendingWarning carries either projection fields or budget fields
// depending on Type.
type SpendingWarning struct {
	Type               string   `json:"type"`
	Category           string   `json:"category"`
	DisplayName        string   `json:"display_name"`
	Message            string   `json:"message"`
	CurrentSpending    *float64 `json:"current_spending,omitempty"`
	ProjectedSpending  *float64 `json:"projected_spending,omitempty"`
	HistoricalAverage  *float64 `json:"historical_average,omitempty"`
	IncreasePercentage *float64 `json:"increase_percentage,omitempty"`
	BudgetAmount       *float64 `json:"budget_amount,omitempty"`
	SpentAmount        *float64 `json:"spent_amount,omitempty"`
	OverAmount         *float64 `json:"over_amount,omitempty"`
	PercentageUsed     *float64 `json:"percentage_used,omitempty"`
}

type SpendingWarningsSummary struct {
	TotalWarnings        int       `json:"total_warnings"`
	CurrentMonthSpending float64   `json:"current_month_spending"`
	AnalysisDate         time.Time `json:"analysis_date"`
}

type SpendingWarnings struct {
	Warnings []SpendingWarning       `json:"warnings"`
	Summary  SpendingWarningsSummary `json:"summary"`
}

// CategoryMonth is one category's spend in one calendar month.
type CategoryMonth struct {
	Category string
	Year     int
	Month    time.Month
	Total    decimal.Decimal
}
