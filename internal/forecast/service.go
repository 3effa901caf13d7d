package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/shopspring/decimal"
)

const (
	ForecastMinExpenses  = 20
	PatternMinExpenses   = 10
	RecommendMinExpenses = 5

	historyDays       = 365
	recommendDays     = 180
	recommendMonths   = 6
	minCategoryMonths = 3
	maxForecastMonths = 24
	seasonalityMonths = 12
	bandLower         = 0.8
	bandUpper         = 1.2
)

type ExpenseLister interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
}

// Rollups supplies the monthly aggregates the trend models are fitted to.
type Rollups interface {
	MonthlyTotalsBetween(ctx context.Context, userID int64, start, end time.Time) ([]expense.MonthlyTotal, error)
	CategoryMonthlyTotals(ctx context.Context, userID int64, start, end time.Time) ([]analytics.CategoryMonth, error)
}

type BudgetLister interface {
	ActiveBudgets(ctx context.Context, userID int64, cat *string, day *time.Time) ([]*budget.Budget, error)
}

type Service struct {
	expenses ExpenseLister
	rollups  Rollups
	budgets  BudgetLister
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(expenses ExpenseLister, rollups Rollups, budgets BudgetLister, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		expenses: expenses,
		rollups:  rollups,
		budgets:  budgets,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return budget.Day(s.now().UTC())
}

// Forecast projects total monthly spend for the next months months from the
// trailing year of monthly totals. It is a coarse trend heuristic: the
// better of a linear and a quadratic least squares fit, a fixed ±20% band
// and no seasonality model.
func (s *Service) Forecast(ctx context.Context, userID int64, months int) (*Forecast, error) {
	if months < 1 || months > maxForecastMonths {
		return nil, internal.NewValidationFieldError("months", fmt.Sprintf("months must be between 1 and %d", maxForecastMonths), internal.ErrCodeInvalidQuery)
	}

	today := s.today()
	start := today.AddDate(0, 0, -historyDays)
	monthly, err := s.rollups.MonthlyTotalsBetween(ctx, userID, start, today)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, m := range monthly {
		count += m.Count
	}
	if count < ForecastMinExpenses {
		s.logger.Debug("forecast below data gate", "user_id", userID, "expenses", count)
		return &Forecast{
			Message:     "Insufficient data for advanced predictions",
			Predictions: []Prediction{},
			Confidence:  ConfidenceLow,
		}, nil
	}

	ys := make([]float64, len(monthly))
	history := make([]HistoricalPoint, len(monthly))
	for i, m := range monthly {
		ys[i] = m.Total.InexactFloat64()
		history[i] = HistoricalPoint{YearMonth: yearMonth(m.Year, m.Month), Amount: round(ys[i], 2)}
	}

	model := SelectModel(ys)
	last := monthly[len(monthly)-1]
	lastMonth := time.Date(last.Year, last.Month, 1, 0, 0, 0, 0, time.UTC)

	predictions := make([]Prediction, months)
	for i := 1; i <= months; i++ {
		p := math.Max(0, model.Predict(float64(len(ys)-1+i)))
		next := lastMonth.AddDate(0, i, 0)
		predictions[i-1] = Prediction{
			Month:           yearMonth(next.Year(), next.Month()),
			PredictedAmount: round(p, 2),
			ConfidenceInterval: Interval{
				Lower: round(p*bandLower, 2),
				Upper: round(p*bandUpper, 2),
			},
		}
	}

	cats, err := s.rollups.CategoryMonthlyTotals(ctx, userID, start, today)
	if err != nil {
		return nil, err
	}

	return &Forecast{
		Predictions:         predictions,
		CategoryPredictions: categoryPredictions(cats),
		ModelInfo: &ModelInfo{
			ModelType:     model.Name,
			AccuracyScore: round(model.Score, 3),
			Confidence:    Confidence(model.Score),
		},
		Insights:       forecastInsights(model, monthly),
		HistoricalData: history,
	}, nil
}

// categoryPredictions fits a straight line per category with enough months
// and projects one month ahead.
func categoryPredictions(months []analytics.CategoryMonth) []CategoryPrediction {
	out := make([]CategoryPrediction, 0)
	for _, series := range splitByCategory(months) {
		if len(series.totals) < minCategoryMonths {
			continue
		}
		m := Fit(ModelLinear, 1, series.totals)
		out = append(out, CategoryPrediction{
			Category:           series.category,
			DisplayName:        category.DisplayName(series.category),
			PredictedNextMonth: round(math.Max(0, m.Predict(float64(len(series.totals)))), 2),
			HistoricalAverage:  round(mean(series.totals), 2),
			Trend:              m.Trend(),
		})
	}
	return out
}

func forecastInsights(model Model, monthly []expense.MonthlyTotal) []string {
	insights := make([]string, 0, 2)
	if model.Name == ModelLinear {
		switch model.Trend() {
		case TrendIncreasing:
			insights = append(insights, "Your spending trend is increasing over time")
		case TrendDecreasing:
			insights = append(insights, "Your spending trend is decreasing over time")
		default:
			insights = append(insights, "Your spending is relatively stable")
		}
	}

	if len(monthly) >= seasonalityMonths {
		var sums [13]float64
		var counts [13]int
		for _, m := range monthly {
			sums[m.Month] += m.Total.InexactFloat64()
			counts[m.Month]++
		}
		peak, low := time.Month(0), time.Month(0)
		var peakAvg, lowAvg float64
		for m := time.January; m <= time.December; m++ {
			if counts[m] == 0 {
				continue
			}
			avg := sums[m] / float64(counts[m])
			if peak == 0 || avg > peakAvg {
				peak, peakAvg = m, avg
			}
			if low == 0 || avg < lowAvg {
				low, lowAvg = m, avg
			}
		}
		insights = append(insights, fmt.Sprintf("You typically spend most in %s and least in %s", peak, low))
	}
	return insights
}

type categorySeries struct {
	category string
	totals   []float64
}

// splitByCategory expects months ordered by category then chronologically.
func splitByCategory(months []analytics.CategoryMonth) []categorySeries {
	var out []categorySeries
	for _, m := range months {
		n := len(out)
		if n == 0 || out[n-1].category != m.Category {
			out = append(out, categorySeries{category: m.Category})
			n++
		}
		out[n-1].totals = append(out[n-1].totals, m.Total.InexactFloat64())
	}
	return out
}

func yearMonth(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func round(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("expense store unavailable", err)
}
