package analytics_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	budgetPostgres "github.com/frahmantamala/budget-analytics/internal/budget/postgres"
	budgetDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/budget"
	expenseDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/expense"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	expensePostgres "github.com/frahmantamala/budget-analytics/internal/expense/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type brokenExpenses struct{}

var errRefused = errors.New("connection refused")

func (brokenExpenses) List(context.Context, expense.ListFilter) ([]*expense.Expense, error) {
	return nil, errRefused
}

func (brokenExpenses) Sum(context.Context, int64, *string, time.Time, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, errRefused
}

func (brokenExpenses) MonthlyTotals(context.Context, int64, time.Time, time.Time) ([]expense.MonthlyTotal, error) {
	return nil, errRefused
}

func (brokenExpenses) CategoryTotals(context.Context, int64, *time.Time, *time.Time) ([]expense.CategoryTotal, error) {
	return nil, errRefused
}

func (brokenExpenses) DailyTotals(context.Context, int64, time.Time, time.Time) ([]expense.DailyTotal, error) {
	return nil, errRefused
}

func on(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	db       *gorm.DB
	expenses expense.RepositoryAPI
	budgets  *budget.Service
	service  *analytics.Service
	lg       *slog.Logger
	clock    func() time.Time
}

func newFixture(now *time.Time) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(db.AutoMigrate(&expenseDatamodel.Expense{}, &budgetDatamodel.Budget{})).To(Succeed())

	f := &fixture{
		db:    db,
		lg:    slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
		clock: func() time.Time { return *now },
	}
	f.expenses = expensePostgres.NewExpenseRepository(db)
	agg := budget.NewAggregator(f.expenses)
	f.budgets = budget.NewService(budgetPostgres.NewBudgetRepository(db), agg, f.lg, budget.WithClock(f.clock))
	f.service = analytics.NewService(f.expenses, f.budgets, agg, f.lg, analytics.WithClock(f.clock))
	return f
}

func (f *fixture) close() {
	sqlDB, err := f.db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.Close()
}

func (f *fixture) spend(userID int64, cat, amount string, day time.Time) {
	e := &expense.Expense{
		UserID:        userID,
		Amount:        decimal.RequireFromString(amount),
		Category:      cat,
		Description:   "test",
		Date:          day,
		PaymentMethod: expense.PaymentCash,
	}
	Expect(f.expenses.Create(context.Background(), e)).To(Succeed())
}

func (f *fixture) budget(cat, amount string) {
	_, err := f.budgets.Create(context.Background(), 7, budget.CreateBudgetDTO{Category: cat, Amount: decimal.RequireFromString(amount)})
	Expect(err).NotTo(HaveOccurred())
}

func expectValidation(err error, field string) {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	Expect(appErr.FirstField()).To(Equal(field))
}

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		now time.Time
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		f = newFixture(&now)
	})

	AfterEach(func() {
		f.close()
	})

	Describe("MonthlyReport", func() {
		BeforeEach(func() {
			f.spend(7, "food", "30", on(2024, 3, 2))
			f.spend(7, "food", "25", on(2024, 3, 5))
			f.spend(7, "transport", "45", on(2024, 3, 5))
			f.spend(8, "food", "999", on(2024, 3, 5))
		})

		It("should report zero month over month change when the prior month is empty", func() {
			report, err := f.service.MonthlyReport(ctx, 7, 2024, time.March)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Report.MonthName).To(Equal("March"))
			Expect(report.Report.TotalSpent).To(Equal(100.0))
			Expect(report.Report.TotalTransactions).To(Equal(3))
			Expect(report.Report.AveragePerDay).To(Equal(3.23))
			Expect(report.Report.AveragePerTransaction).To(Equal(33.33))
			Expect(report.Report.MonthOverMonthChange).To(BeZero())
		})

		It("should break the month down by category and day", func() {
			report, err := f.service.MonthlyReport(ctx, 7, 2024, time.March)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.CategoryBreakdown).To(HaveLen(2))
			Expect(report.CategoryBreakdown[0].Category).To(Equal("food"))
			Expect(report.CategoryBreakdown[0].Total).To(Equal(55.0))
			Expect(report.CategoryBreakdown[0].Percentage).To(Equal(55.0))
			Expect(report.CategoryBreakdown[1].Category).To(Equal("transport"))
			Expect(report.CategoryBreakdown[1].Percentage).To(Equal(45.0))
			Expect(report.TopCategory()).To(Equal("🍕 Food & Dining"))

			Expect(report.DailyBreakdown).To(HaveLen(2))
			Expect(report.DailyBreakdown[0].Day).To(Equal(2))
			Expect(report.DailyBreakdown[0].Total).To(Equal(30.0))
			Expect(report.DailyBreakdown[1].Day).To(Equal(5))
			Expect(report.DailyBreakdown[1].Total).To(Equal(70.0))
			Expect(report.DailyBreakdown[1].Date.String()).To(Equal("2024-03-05"))
		})

		It("should compare against the previous month", func() {
			f.spend(7, "food", "50", on(2024, 2, 10))
			report, err := f.service.MonthlyReport(ctx, 7, 2024, time.March)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Report.MonthOverMonthChange).To(Equal(100.0))
		})

		It("should roll the previous month back across a year boundary", func() {
			f.spend(7, "other", "40", on(2023, 12, 20))
			f.spend(7, "other", "60", on(2024, 1, 20))
			report, err := f.service.MonthlyReport(ctx, 7, 2024, time.January)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Report.MonthOverMonthChange).To(Equal(50.0))
		})

		It("should score the active budgets overlapping the month", func() {
			f.budget("food", "100")
			report, err := f.service.MonthlyReport(ctx, 7, 2024, time.March)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.BudgetPerformance).To(HaveLen(1))
			p := report.BudgetPerformance[0]
			Expect(p.DisplayName).To(Equal("🍕 Food & Dining"))
			Expect(p.SpentAmount).To(Equal(55.0))
			Expect(p.Remaining).To(Equal(45.0))
			Expect(p.PercentageUsed).To(Equal(55.0))
			Expect(p.IsOverBudget).To(BeFalse())

			Expect(report.BudgetSummary.TotalBudget).To(Equal(100.0))
			Expect(report.BudgetSummary.TotalSpent).To(Equal(100.0))
			Expect(report.BudgetSummary.TotalRemaining).To(BeZero())
			Expect(report.BudgetSummary.OverallPercentageUsed).To(Equal(100.0))
		})

		It("should keep every figure at zero for an empty month", func() {
			report, err := f.service.MonthlyReport(ctx, 7, 2023, time.June)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Report.TotalSpent).To(BeZero())
			Expect(report.Report.AveragePerTransaction).To(BeZero())
			Expect(report.CategoryBreakdown).To(BeEmpty())
			Expect(report.BudgetPerformance).To(BeEmpty())
			Expect(report.BudgetSummary.OverallPercentageUsed).To(BeZero())
			Expect(report.TopCategory()).To(Equal("None"))
		})

		It("should reject a month outside 1..12", func() {
			_, err := f.service.MonthlyReport(ctx, 7, 2024, 13)
			expectValidation(err, "month")
		})
	})

	Describe("YearOverYear", func() {
		It("should compare each month with the prior year", func() {
			f.spend(7, "food", "50", on(2023, 3, 10))
			f.spend(7, "food", "100", on(2024, 3, 2))
			f.spend(7, "bills", "40", on(2024, 1, 10))

			yoy, err := f.service.YearOverYear(ctx, 7, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(yoy.Comparison).To(HaveLen(12))

			jan := yoy.Comparison[0]
			Expect(jan.MonthName).To(Equal("January"))
			Expect(jan.CurrentYear.Total).To(Equal(40.0))
			Expect(jan.PreviousYear.Total).To(BeZero())
			Expect(jan.ChangePercentage).To(BeZero())
			Expect(jan.ChangeAmount).To(Equal(40.0))

			mar := yoy.Comparison[2]
			Expect(mar.CurrentYear).To(Equal(analytics.YearTotal{Year: 2024, Total: 100, Count: 1}))
			Expect(mar.PreviousYear).To(Equal(analytics.YearTotal{Year: 2023, Total: 50, Count: 1}))
			Expect(mar.ChangePercentage).To(Equal(100.0))

			Expect(yoy.Summary.CurrentTotal).To(Equal(140.0))
			Expect(yoy.Summary.PreviousTotal).To(Equal(50.0))
			Expect(yoy.Summary.OverallChangePercentage).To(Equal(180.0))
			Expect(yoy.Summary.OverallChangeAmount).To(Equal(90.0))
		})
	})

	Describe("BudgetVsActual", func() {
		BeforeEach(func() {
			f.spend(7, "food", "30", on(2024, 3, 2))
			f.spend(7, "food", "25", on(2024, 3, 5))
			f.spend(7, "transport", "45", on(2024, 3, 5))
			f.budget("food", "100")
		})

		It("should default to the current month", func() {
			bva, err := f.service.BudgetVsActual(ctx, 7, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(bva.BudgetAnalysis).To(HaveLen(1))
			a := bva.BudgetAnalysis[0]
			Expect(a.Period).To(Equal("monthly"))
			Expect(a.ActualSpent).To(Equal(55.0))
			Expect(a.Variance).To(Equal(-45.0))
			Expect(a.VariancePercentage).To(Equal(-45.0))
			Expect(a.PercentageUsed).To(Equal(55.0))
			Expect(a.DaysRemaining).To(Equal(17))
			Expect(a.DailyBudgetRemaining).To(Equal(2.65))

			Expect(bva.Summary.TotalBudgeted).To(Equal(100.0))
			Expect(bva.Summary.TotalSpent).To(Equal(55.0))
			Expect(bva.Summary.OverallVariance).To(Equal(-45.0))
			Expect(bva.Summary.Period.StartDate.String()).To(Equal("2024-03-01"))
			Expect(bva.Summary.Period.EndDate.String()).To(Equal("2024-03-31"))
		})

		It("should return zeroed totals when no budget intersects the window", func() {
			start, end := on(2024, 4, 1), on(2024, 4, 30)
			bva, err := f.service.BudgetVsActual(ctx, 7, &start, &end)
			Expect(err).NotTo(HaveOccurred())
			Expect(bva.BudgetAnalysis).To(BeEmpty())
			Expect(bva.Summary.OverallVariancePercentage).To(BeZero())
			Expect(bva.Summary.OverallPercentageUsed).To(BeZero())
			Expect(bva.Summary.Period.StartDate.String()).To(Equal("2024-04-01"))
		})

		It("should ignore a single bound", func() {
			start := on(2024, 4, 1)
			bva, err := f.service.BudgetVsActual(ctx, 7, &start, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(bva.BudgetAnalysis).To(HaveLen(1))
		})

		It("should reject an inverted window", func() {
			start, end := on(2024, 4, 30), on(2024, 4, 1)
			_, err := f.service.BudgetVsActual(ctx, 7, &start, &end)
			expectValidation(err, "end_date")
		})
	})

	Describe("trends", func() {
		It("should total the trailing calendar months", func() {
			f.spend(7, "food", "10", on(2023, 12, 31))
			f.spend(7, "food", "40", on(2024, 1, 10))
			f.spend(7, "food", "30", on(2024, 3, 2))

			resp, err := f.service.MonthlyTotals(ctx, 7, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Period).To(Equal(analytics.TrendMonthly))
			Expect(resp.Trends).To(Equal([]analytics.MonthlyTrend{
				{Period: "January 2024", Year: 2024, Month: 1, Total: 40, Date: "2024-01-01"},
				{Period: "March 2024", Year: 2024, Month: 3, Total: 30, Date: "2024-03-01"},
			}))
		})

		It("should reject a non-positive month count", func() {
			_, err := f.service.MonthlyTotals(ctx, 7, 0)
			expectValidation(err, "months")
		})

		It("should total the trailing days", func() {
			f.spend(7, "food", "10", on(2024, 3, 7))
			f.spend(7, "food", "20", on(2024, 3, 9))
			f.spend(7, "bills", "5", on(2024, 3, 9))
			f.spend(7, "food", "12.5", on(2024, 3, 15))

			resp, err := f.service.DailyTrends(ctx, 7, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Trends).To(HaveLen(2))
			Expect(resp.Trends[0].Date.String()).To(Equal("2024-03-09"))
			Expect(resp.Trends[0].Total).To(Equal(25.0))
			Expect(resp.Trends[0].Count).To(Equal(2))
			Expect(resp.Trends[1].Total).To(Equal(12.5))
		})
	})

	Describe("CategoryInsights", func() {
		It("should rank categories and pick the most frequent", func() {
			f.spend(7, "food", "30", on(2024, 3, 2))
			f.spend(7, "food", "25", on(2024, 3, 5))
			f.spend(7, "transport", "45", on(2024, 3, 5))
			for i := 0; i < 3; i++ {
				f.spend(7, "other", "10", on(2024, 3, 6))
			}

			resp, err := f.service.CategoryInsights(ctx, 7, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.CategoryBreakdown).To(HaveLen(3))
			Expect(resp.CategoryBreakdown[0].Percentage).To(Equal(42.31))
			Expect(resp.CategoryBreakdown[0].AveragePerTransaction).To(Equal(27.5))
			Expect(resp.CategoryBreakdown[1].Percentage).To(Equal(34.62))
			Expect(resp.CategoryBreakdown[2].Percentage).To(Equal(23.08))

			Expect(resp.Summary.TotalSpending).To(Equal(130.0))
			Expect(resp.Summary.TopCategory.Category).To(Equal("food"))
			Expect(resp.Summary.MostFrequentCategory.Category).To(Equal("other"))
			Expect(resp.Summary.DateRange.StartDate).To(BeNil())
		})

		It("should leave the summary empty without expenses", func() {
			resp, err := f.service.CategoryInsights(ctx, 7, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.CategoryBreakdown).To(BeEmpty())
			Expect(resp.Summary.TopCategory).To(BeNil())
			Expect(resp.Summary.MostFrequentCategory).To(BeNil())
		})
	})

	Describe("SpendingWarnings", func() {
		find := func(ws []analytics.SpendingWarning, kind, cat string) *analytics.SpendingWarning {
			for i := range ws {
				if ws[i].Type == kind && ws[i].Category == cat {
					return &ws[i]
				}
			}
			return nil
		}

		It("should flag projections above the historical pace and strained budgets", func() {
			f.spend(7, "food", "100", on(2024, 1, 10))
			f.spend(7, "food", "100", on(2024, 2, 10))
			f.spend(7, "transport", "100", on(2024, 2, 12))
			f.spend(7, "food", "90", on(2024, 3, 3))
			f.spend(7, "transport", "10", on(2024, 3, 4))
			f.budget("food", "100")
			f.budget("transport", "5")

			resp, err := f.service.SpendingWarnings(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Warnings).To(HaveLen(3))
			Expect(resp.Summary.TotalWarnings).To(Equal(3))
			Expect(resp.Summary.CurrentMonthSpending).To(Equal(100.0))
			Expect(resp.Summary.AnalysisDate).To(Equal(now))

			projection := find(resp.Warnings, analytics.WarningHighProjection, "food")
			Expect(projection).NotTo(BeNil())
			Expect(*projection.ProjectedSpending).To(Equal(186.0))
			Expect(*projection.HistoricalAverage).To(Equal(100.0))
			Expect(*projection.IncreasePercentage).To(Equal(86.0))
			Expect(projection.Message).To(Equal("Your 🍕 Food & Dining spending is projected to be $186.00 this month, $86.00 higher than your average of $100.00"))
			Expect(find(resp.Warnings, analytics.WarningHighProjection, "transport")).To(BeNil())

			warning := find(resp.Warnings, analytics.WarningBudget, "food")
			Expect(warning).NotTo(BeNil())
			Expect(*warning.PercentageUsed).To(Equal(90.0))

			exceeded := find(resp.Warnings, analytics.WarningBudgetExceeded, "transport")
			Expect(exceeded).NotTo(BeNil())
			Expect(*exceeded.OverAmount).To(Equal(5.0))
			Expect(exceeded.Message).To(Equal("You've exceeded your 🚗 Transportation budget by $5.00"))
		})

		It("should stay quiet without history or budgets", func() {
			f.spend(7, "food", "500", on(2024, 3, 3))
			resp, err := f.service.SpendingWarnings(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Warnings).To(BeEmpty())
			Expect(resp.Summary.CurrentMonthSpending).To(Equal(500.0))
		})
	})

	Describe("CategoryMonthlyTotals", func() {
		It("should bucket by category and month in order", func() {
			f.spend(7, "food", "10", on(2024, 2, 1))
			f.spend(7, "food", "15", on(2024, 2, 20))
			f.spend(7, "bills", "70", on(2024, 3, 1))
			f.spend(7, "food", "5", on(2024, 1, 31))

			months, err := f.service.CategoryMonthlyTotals(ctx, 7, on(2024, 1, 1), on(2024, 3, 31))
			Expect(err).NotTo(HaveOccurred())
			Expect(months).To(HaveLen(3))
			Expect(months[0].Category).To(Equal("bills"))
			Expect(months[1].Month).To(Equal(time.January))
			Expect(months[2].Month).To(Equal(time.February))
			Expect(months[2].Total.Equal(decimal.NewFromInt(25))).To(BeTrue())
		})
	})

	It("should surface store failures as dependency errors", func() {
		broken := analytics.NewService(brokenExpenses{}, f.budgets, budget.NewAggregator(brokenExpenses{}), f.lg, analytics.WithClock(f.clock))

		_, err := broken.MonthlyReport(ctx, 7, 2024, time.March)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeExternal))
		Expect(errors.Is(err, errRefused)).To(BeTrue())

		_, err = broken.YearOverYear(ctx, 7, 2024)
		Expect(err).To(HaveOccurred())
	})
})
