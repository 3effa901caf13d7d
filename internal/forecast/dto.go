package forecast

import (
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
)

type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type Prediction struct {
	Month              string   `json:"month"`
	PredictedAmount    float64  `json:"predicted_amount"`
	ConfidenceInterval Interval `json:"confidence_interval"`
}

type CategoryPrediction struct {
	Category           string  `json:"category"`
	DisplayName        string  `json:"display_name"`
	PredictedNextMonth float64 `json:"predicted_next_month"`
	HistoricalAverage  float64 `json:"historical_average"`
	Trend              string  `json:"trend"`
}

type ModelInfo struct {
	ModelType     string  `json:"model_type"`
	AccuracyScore float64 `json:"accuracy_score"`
	Confidence    string  `json:"confidence"`
}

type HistoricalPoint struct {
	YearMonth string  `json:"year_month"`
	Amount    float64 `json:"amount"`
}

// Forecast is either a full projection or, below the data gate, a message
// with empty predictions and low confidence.
type Forecast struct {
	Message             string               `json:"message,omitempty"`
	Predictions         []Prediction         `json:"predictions"`
	CategoryPredictions []CategoryPrediction `json:"category_predictions,omitempty"`
	ModelInfo           *ModelInfo           `json:"model_info,omitempty"`
	Insights            []string             `json:"insights,omitempty"`
	HistoricalData      []HistoricalPoint    `json:"historical_data,omitempty"`
	Confidence          string               `json:"confidence,omitempty"`
}

func (f *Forecast) Insufficient() bool {
	return f.ModelInfo == nil
}

const (
	PatternDayOfWeek        = "day_of_week"
	PatternMonthly          = "monthly"
	PatternCategoryTrends   = "category_trends"
	PatternUnusual          = "unusual_spending"
	PatternSpendingVelocity = "spending_velocity"
)

type Pattern struct {
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Data        interface{} `json:"data"`
}

type DayOfWeekStat struct {
	DayOfWeek int     `json:"day_of_week"`
	DayName   string  `json:"day_name"`
	Sum       float64 `json:"sum"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
}

type MonthStat struct {
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Sum       float64 `json:"sum"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
}

type CategoryTrend struct {
	Category       string  `json:"category"`
	DisplayName    string  `json:"display_name"`
	TrendSlope     float64 `json:"trend_slope"`
	TrendDirection string  `json:"trend_direction"`
	MonthlyAverage float64 `json:"monthly_average"`
}

type UnusualSpending struct {
	Threshold    float64        `json:"threshold"`
	Count        int            `json:"count"`
	TotalUnusual float64        `json:"total_unusual"`
	Categories   map[string]int `json:"categories"`
}

type VelocityPoint struct {
	Date     date.Date `json:"date"`
	Velocity float64   `json:"velocity"`
}

type SpendingVelocity struct {
	CurrentVelocity float64         `json:"current_velocity"`
	VelocityTrend   []VelocityPoint `json:"velocity_trend"`
}

type AnalysisPeriod struct {
	StartDate     date.Date `json:"start_date"`
	EndDate       date.Date `json:"end_date"`
	TotalExpenses int       `json:"total_expenses"`
	TotalAmount   float64   `json:"total_amount"`
}

type Patterns struct {
	Message         string          `json:"message,omitempty"`
	Patterns        []Pattern       `json:"patterns"`
	Recommendations []string        `json:"recommendations"`
	AnalysisPeriod  *AnalysisPeriod `json:"analysis_period,omitempty"`
}

const (
	RecommendIncrease    = "increase_budget"
	RecommendDecrease    = "decrease_budget"
	RecommendCreate      = "create_budget"
	RecommendReduceNeeds = "reduce_needs"
	RecommendReduceWants = "reduce_wants"
)

type Recommendation struct {
	Type            string   `json:"type"`
	Category        string   `json:"category"`
	Message         string   `json:"message"`
	CurrentAmount   *float64 `json:"current_amount,omitempty"`
	SuggestedAmount *float64 `json:"suggested_amount,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

type SuggestedBudget struct {
	Category          string  `json:"category"`
	DisplayName       string  `json:"display_name"`
	SuggestedAmount   float64 `json:"suggested_amount"`
	HistoricalAverage float64 `json:"historical_average"`
	BufferPercentage  float64 `json:"buffer_percentage"`
	Confidence        string  `json:"confidence"`
}

type RecommendationAnalysis struct {
	TotalMonthlySpending float64 `json:"total_monthly_spending"`
	TotalSuggestedBudget float64 `json:"total_suggested_budget"`
	NeedsPercentage      float64 `json:"needs_percentage"`
	WantsPercentage      float64 `json:"wants_percentage"`
	CategoriesAnalyzed   int     `json:"categories_analyzed"`
}

type BudgetRecommendations struct {
	Message          string                  `json:"message,omitempty"`
	Recommendations  []Recommendation        `json:"recommendations"`
	SuggestedBudgets []SuggestedBudget       `json:"suggested_budgets"`
	Analysis         *RecommendationAnalysis `json:"analysis,omitempty"`
}
