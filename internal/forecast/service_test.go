package forecast_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/frahmantamala/budget-analytics/internal/forecast"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

type fakeExpenses struct {
	rows   []*expense.Expense
	err    error
	filter expense.ListFilter
}

func (f *fakeExpenses) List(_ context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	f.filter = filter
	return f.rows, f.err
}

type fakeRollups struct {
	monthly []expense.MonthlyTotal
	cats    []analytics.CategoryMonth
	err     error
}

func (f *fakeRollups) MonthlyTotalsBetween(context.Context, int64, time.Time, time.Time) ([]expense.MonthlyTotal, error) {
	return f.monthly, f.err
}

func (f *fakeRollups) CategoryMonthlyTotals(context.Context, int64, time.Time, time.Time) ([]analytics.CategoryMonth, error) {
	return f.cats, f.err
}

type fakeBudgets struct {
	active []*budget.Budget
}

func (f *fakeBudgets) ActiveBudgets(context.Context, int64, *string, *time.Time) ([]*budget.Budget, error) {
	return f.active, nil
}

var errRefused = errors.New("connection refused")

func month(year int, m time.Month, total float64, count int) expense.MonthlyTotal {
	return expense.MonthlyTotal{Year: year, Month: m, Total: decimal.NewFromFloat(total), Count: count}
}

func spent(cat string, amount float64, day time.Time) *expense.Expense {
	return &expense.Expense{UserID: 1, Category: cat, Amount: decimal.NewFromFloat(amount), Date: day}
}

func day(year int, m time.Month, d int) time.Time {
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Service", func() {
	var (
		expenses *fakeExpenses
		rollups  *fakeRollups
		budgets  *fakeBudgets
		svc      *forecast.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		expenses = &fakeExpenses{}
		rollups = &fakeRollups{}
		budgets = &fakeBudgets{}
		now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc = forecast.NewService(expenses, rollups, budgets, lg, forecast.WithClock(func() time.Time { return now }))
	})

	Describe("Forecast", func() {
		It("should answer with a message below twenty expenses", func() {
			rollups.monthly = []expense.MonthlyTotal{
				month(2024, time.January, 100, 10),
				month(2024, time.February, 200, 9),
			}

			f, err := svc.Forecast(ctx, 1, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Insufficient()).To(BeTrue())
			Expect(f.Message).To(Equal("Insufficient data for advanced predictions"))
			Expect(f.Predictions).NotTo(BeNil())
			Expect(f.Predictions).To(BeEmpty())
			Expect(f.Confidence).To(Equal(forecast.ConfidenceLow))
		})

		It("should project a rising trend with a twenty percent band", func() {
			rollups.monthly = []expense.MonthlyTotal{
				month(2023, time.November, 100, 6),
				month(2023, time.December, 200, 6),
				month(2024, time.January, 300, 6),
				month(2024, time.February, 400, 6),
			}

			f, err := svc.Forecast(ctx, 1, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Insufficient()).To(BeFalse())
			Expect(f.ModelInfo.ModelType).To(Equal(forecast.ModelLinear))
			Expect(f.ModelInfo.AccuracyScore).To(BeNumerically("~", 1, 1e-6))
			Expect(f.ModelInfo.Confidence).To(Equal(forecast.ConfidenceHigh))

			Expect(f.Predictions).To(HaveLen(3))
			Expect(f.Predictions[0].Month).To(Equal("2024-03"))
			Expect(f.Predictions[2].Month).To(Equal("2024-05"))
			Expect(f.Predictions[0].PredictedAmount).To(BeNumerically("~", 500, 0.01))
			Expect(f.Predictions[0].ConfidenceInterval.Lower).To(BeNumerically("~", 400, 0.01))
			Expect(f.Predictions[0].ConfidenceInterval.Upper).To(BeNumerically("~", 600, 0.01))
			Expect(f.Predictions[2].PredictedAmount).To(BeNumerically("~", 700, 0.01))

			Expect(f.Insights).To(ContainElement("Your spending trend is increasing over time"))
			Expect(f.HistoricalData).To(HaveLen(4))
			Expect(f.HistoricalData[0].YearMonth).To(Equal("2023-11"))
		})

		It("should never project negative spend", func() {
			rollups.monthly = []expense.MonthlyTotal{
				month(2023, time.November, 1000, 5),
				month(2023, time.December, 700, 5),
				month(2024, time.January, 400, 5),
				month(2024, time.February, 100, 5),
			}

			f, err := svc.Forecast(ctx, 1, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Predictions).To(HaveLen(6))
			for _, p := range f.Predictions {
				Expect(p.PredictedAmount).To(BeNumerically(">=", 0))
				Expect(p.ConfidenceInterval.Lower).To(BeNumerically(">=", 0))
				Expect(p.ConfidenceInterval.Lower).To(BeNumerically("<=", p.ConfidenceInterval.Upper))
			}
			Expect(f.Insights).To(ContainElement("Your spending trend is decreasing over time"))
		})

		It("should predict categories with at least three months", func() {
			rollups.monthly = []expense.MonthlyTotal{
				month(2024, time.January, 100, 10),
				month(2024, time.February, 100, 10),
			}
			rollups.cats = []analytics.CategoryMonth{
				{Category: category.Bills, Year: 2024, Month: time.January, Total: decimal.NewFromInt(50)},
				{Category: category.Bills, Year: 2024, Month: time.February, Total: decimal.NewFromInt(50)},
				{Category: category.Food, Year: 2023, Month: time.December, Total: decimal.NewFromInt(10)},
				{Category: category.Food, Year: 2024, Month: time.January, Total: decimal.NewFromInt(20)},
				{Category: category.Food, Year: 2024, Month: time.February, Total: decimal.NewFromInt(30)},
			}

			f, err := svc.Forecast(ctx, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.CategoryPredictions).To(HaveLen(1))
			p := f.CategoryPredictions[0]
			Expect(p.Category).To(Equal(category.Food))
			Expect(p.DisplayName).To(Equal(category.DisplayName(category.Food)))
			Expect(p.PredictedNextMonth).To(BeNumerically("~", 40, 0.01))
			Expect(p.HistoricalAverage).To(BeNumerically("~", 20, 0.01))
			Expect(p.Trend).To(Equal(forecast.TrendIncreasing))
			Expect(f.Insights).To(ContainElement("Your spending is relatively stable"))
		})

		It("should name the peak and low months once a year of history exists", func() {
			start := day(2023, time.March, 1)
			for i := 0; i < 12; i++ {
				m := start.AddDate(0, i, 0)
				total := 100.0
				switch m.Month() {
				case time.March:
					total = 500
				case time.July:
					total = 10
				}
				rollups.monthly = append(rollups.monthly, month(m.Year(), m.Month(), total, 3))
			}

			f, err := svc.Forecast(ctx, 1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Insights).To(ContainElement("You typically spend most in March and least in July"))
		})

		It("should reject a horizon outside one to twenty four months", func() {
			for _, months := range []int{0, 25} {
				_, err := svc.Forecast(ctx, 1, months)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			}
		})

		It("should surface rollup failures", func() {
			rollups.err = internal.NewDependencyError("expense store unavailable", errRefused)
			_, err := svc.Forecast(ctx, 1, 3)
			Expect(errors.Is(err, errRefused)).To(BeTrue())
		})
	})

	Describe("SpendingPatterns", func() {
		It("should answer with a message below ten expenses", func() {
			for i := 0; i < forecast.PatternMinExpenses-1; i++ {
				expenses.rows = append(expenses.rows, spent(category.Food, 10, day(2024, time.January, 2)))
			}

			p, err := svc.SpendingPatterns(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Message).To(Equal("Insufficient data for pattern analysis"))
			Expect(p.Patterns).To(BeEmpty())
			Expect(p.Recommendations).To(ConsistOf("Add more expenses to get meaningful insights"))
		})

		It("should describe weekday habits, trends, outliers and velocity", func() {
			// 2024-01-01, 2024-02-05 and 2024-03-04 are Mondays
			expenses.rows = []*expense.Expense{
				spent(category.Food, 10, day(2024, time.January, 1)),
				spent(category.Food, 20, day(2024, time.February, 5)),
				spent(category.Food, 30, day(2024, time.March, 4)),
				spent(category.Shopping, 500, day(2024, time.January, 3)),
			}
			for i := 0; i < 8; i++ {
				expenses.rows = append(expenses.rows, spent(category.Other, 10, day(2024, time.January, 2)))
			}

			p, err := svc.SpendingPatterns(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Message).To(BeEmpty())
			Expect(p.Patterns).To(HaveLen(5))
			Expect(expenses.filter.UserID).To(Equal(int64(1)))

			weekly := p.Patterns[0]
			Expect(weekly.Type).To(Equal(forecast.PatternDayOfWeek))
			Expect(weekly.Description).To(Equal("You spend most on Wednesdays ($500.00 total) and least on Mondays ($60.00 total)"))
			days := weekly.Data.([]forecast.DayOfWeekStat)
			Expect(days).To(HaveLen(3))
			Expect(days[0].DayOfWeek).To(Equal(0))
			Expect(days[0].DayName).To(Equal("Monday"))
			Expect(days[1].Count).To(Equal(8))

			Expect(p.Patterns[1].Description).To(Equal("Your highest spending month is typically January ($590.00)"))

			trends := p.Patterns[2].Data.([]forecast.CategoryTrend)
			Expect(trends).To(HaveLen(1))
			Expect(trends[0].Category).To(Equal(category.Food))
			Expect(trends[0].TrendSlope).To(BeNumerically("~", 10, 0.01))
			Expect(trends[0].TrendDirection).To(Equal(forecast.TrendIncreasing))

			unusual := p.Patterns[3].Data.(forecast.UnusualSpending)
			Expect(unusual.Count).To(Equal(1))
			Expect(unusual.TotalUnusual).To(Equal(500.0))
			Expect(unusual.Categories).To(HaveKeyWithValue(category.Shopping, 1))

			velocity := p.Patterns[4].Data.(forecast.SpendingVelocity)
			Expect(velocity.CurrentVelocity).To(BeNumerically("~", 10, 0.01))
			Expect(velocity.VelocityTrend).To(HaveLen(12))

			Expect(p.Recommendations).To(HaveLen(4))
			Expect(p.Recommendations[3]).To(Equal("At your current rate, you'll spend $300.00 this month. Consider if this aligns with your budget."))
			Expect(p.AnalysisPeriod.TotalExpenses).To(Equal(12))
			Expect(p.AnalysisPeriod.TotalAmount).To(Equal(640.0))
		})

		It("should wrap store failures as dependency errors", func() {
			expenses.err = errRefused
			_, err := svc.SpendingPatterns(ctx, 1)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeExternal))
		})
	})

	Describe("BudgetRecommendations", func() {
		It("should answer with a message below five expenses", func() {
			expenses.rows = []*expense.Expense{spent(category.Food, 10, day(2024, time.March, 1))}

			r, err := svc.BudgetRecommendations(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Message).To(Equal("Insufficient data for budget recommendations"))
			Expect(r.SuggestedBudgets).To(BeEmpty())
			Expect(r.Analysis).To(BeNil())
		})

		It("should suggest padded budgets and compare them with active ones", func() {
			for i := 0; i < 6; i++ {
				expenses.rows = append(expenses.rows, spent(category.Food, 100, day(2024, time.February, i+1)))
			}
			for i := 0; i < 3; i++ {
				expenses.rows = append(expenses.rows, spent(category.Entertainment, 60, day(2024, time.February, i+10)))
			}
			budgets.active = []*budget.Budget{
				{ID: 7, UserID: 1, Category: category.Food, Amount: decimal.NewFromInt(50), IsActive: true},
			}

			r, err := svc.BudgetRecommendations(ctx, 1)
			Expect(err).NotTo(HaveOccurred())

			Expect(r.SuggestedBudgets).To(HaveLen(2))
			food := r.SuggestedBudgets[0]
			Expect(food.Category).To(Equal(category.Food))
			Expect(food.SuggestedAmount).To(Equal(110.0))
			Expect(food.HistoricalAverage).To(Equal(100.0))
			Expect(food.BufferPercentage).To(Equal(10.0))
			Expect(food.Confidence).To(Equal(forecast.ConfidenceMedium))
			Expect(r.SuggestedBudgets[1].SuggestedAmount).To(Equal(30.0))
			Expect(r.SuggestedBudgets[1].Confidence).To(Equal(forecast.ConfidenceLow))

			Expect(r.Recommendations).To(HaveLen(3))
			Expect(r.Recommendations[0].Type).To(Equal(forecast.RecommendIncrease))
			Expect(*r.Recommendations[0].CurrentAmount).To(Equal(50.0))
			Expect(r.Recommendations[1].Type).To(Equal(forecast.RecommendCreate))
			Expect(r.Recommendations[1].Category).To(Equal(category.Entertainment))
			Expect(r.Recommendations[2].Type).To(Equal(forecast.RecommendReduceNeeds))

			Expect(r.Analysis.TotalMonthlySpending).To(Equal(130.0))
			Expect(r.Analysis.TotalSuggestedBudget).To(Equal(140.0))
			Expect(r.Analysis.NeedsPercentage).To(Equal(76.9))
			Expect(r.Analysis.WantsPercentage).To(Equal(23.1))
			Expect(r.Analysis.CategoriesAnalyzed).To(Equal(2))
		})
	})
})
