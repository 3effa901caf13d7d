package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/core/common/money"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ExpenseReader is the read side of the expense store. Nothing read through
// it is cached between calls.
type ExpenseReader interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
	Sum(ctx context.Context, userID int64, category *string, start, end time.Time) (decimal.Decimal, error)
	MonthlyTotals(ctx context.Context, userID int64, start, end time.Time) ([]expense.MonthlyTotal, error)
	CategoryTotals(ctx context.Context, userID int64, start, end *time.Time) ([]expense.CategoryTotal, error)
	DailyTotals(ctx context.Context, userID int64, start, end time.Time) ([]expense.DailyTotal, error)
}

type BudgetReader interface {
	ActiveBudgets(ctx context.Context, userID int64, cat *string, day *time.Time) ([]*budget.Budget, error)
	Overlapping(ctx context.Context, userID int64, w budget.Window) ([]*budget.Budget, error)
}

const (
	warningHistoryDays  = 180
	projectionThreshold = "1.3"
	budgetReadLimit     = 4
)

type Service struct {
	expenses ExpenseReader
	budgets  BudgetReader
	agg      budget.SpendAggregator
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(expenses ExpenseReader, budgets BudgetReader, agg budget.SpendAggregator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		expenses: expenses,
		budgets:  budgets,
		agg:      agg,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Today() time.Time {
	return budget.Day(s.now().UTC())
}

// MonthlyTotalsBetween returns the months in [start, end] that have spend,
// oldest first.
func (s *Service) MonthlyTotalsBetween(ctx context.Context, userID int64, start, end time.Time) ([]expense.MonthlyTotal, error) {
	totals, err := s.expenses.MonthlyTotals(ctx, userID, budget.Day(start), budget.Day(end))
	if err != nil {
		s.logger.Error("failed to load monthly totals", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return totals, nil
}

// MonthlyTotals covers the trailing months calendar months, the current one
// included.
func (s *Service) MonthlyTotals(ctx context.Context, userID int64, months int) (*MonthlyTrendsResponse, error) {
	if months <= 0 {
		return nil, internal.NewValidationFieldError("months", "months must be a positive number", internal.ErrCodeInvalidQuery)
	}
	today := s.Today()
	first := budget.MonthWindow(today.Year(), today.Month()-time.Month(months-1))
	current := budget.MonthWindow(today.Year(), today.Month())

	totals, err := s.MonthlyTotalsBetween(ctx, userID, first.Start, current.End)
	if err != nil {
		return nil, err
	}

	trends := make([]MonthlyTrend, len(totals))
	for i, t := range totals {
		trends[i] = MonthlyTrend{
			Period: fmt.Sprintf("%s %d", t.Month, t.Year),
			Year:   t.Year,
			Month:  int(t.Month),
			Total:  money.Float(t.Total),
			Date:   fmt.Sprintf("%04d-%02d-01", t.Year, int(t.Month)),
		}
	}
	return &MonthlyTrendsResponse{Trends: trends, Period: TrendMonthly, Months: months}, nil
}

// DailyTrends covers today and the days before it.
func (s *Service) DailyTrends(ctx context.Context, userID int64, days int) (*DailyTrendsResponse, error) {
	if days <= 0 {
		return nil, internal.NewValidationFieldError("days", "days must be a positive number", internal.ErrCodeInvalidQuery)
	}
	today := s.Today()
	totals, err := s.expenses.DailyTotals(ctx, userID, today.AddDate(0, 0, -days), today)
	if err != nil {
		s.logger.Error("failed to load daily totals", "error", err, "user_id", userID)
		return nil, storeError(err)
	}

	trends := make([]DailyTrend, len(totals))
	for i, t := range totals {
		trends[i] = DailyTrend{Date: date.New(t.Date), Total: money.Float(t.Total), Count: t.Count}
	}
	return &DailyTrendsResponse{Trends: trends, Period: TrendDaily, Days: days}, nil
}

// CategoryTotals is sorted by total, largest first.
func (s *Service) CategoryTotals(ctx context.Context, userID int64, start, end *time.Time) ([]expense.CategoryTotal, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDateRange)
	}
	totals, err := s.expenses.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("failed to load category totals", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return totals, nil
}

func (s *Service) CategoryInsights(ctx context.Context, userID int64, start, end *time.Time) (*CategoryInsightsResponse, error) {
	totals, err := s.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	overall := decimal.Zero
	for _, t := range totals {
		overall = overall.Add(t.Total)
	}

	breakdown := make([]CategoryInsight, len(totals))
	for i, t := range totals {
		breakdown[i] = CategoryInsight{
			Category:              t.Category,
			DisplayName:           category.DisplayName(t.Category),
			Total:                 money.Float(t.Total),
			Count:                 t.Count,
			Percentage:            money.Float(money.Percent(t.Total, overall)),
			AveragePerTransaction: money.Float(money.Ratio(t.Total, decimal.NewFromInt(int64(t.Count)))),
		}
	}

	summary := CategoryInsightsSummary{
		TotalSpending:   money.Float(overall),
		TotalCategories: len(breakdown),
		DateRange:       DateRange{StartDate: dayPtr(start), EndDate: dayPtr(end)},
	}
	if len(breakdown) > 0 {
		top := breakdown[0]
		summary.TopCategory = &top
		frequent := breakdown[0]
		for _, c := range breakdown[1:] {
			if c.Count > frequent.Count {
				frequent = c
			}
		}
		summary.MostFrequentCategory = &frequent
	}

	return &CategoryInsightsResponse{CategoryBreakdown: breakdown, Summary: summary}, nil
}

// MonthlyReport summarises one calendar month against the month before it
// and against the active budgets overlapping it.
func (s *Service) MonthlyReport(ctx context.Context, userID int64, year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, internal.NewValidationFieldError("month", "Month must be between 1 and 12", internal.ErrCodeInvalidMonth)
	}
	w := budget.MonthWindow(year, month)
	prev := budget.MonthWindow(year, month-1)

	var (
		cats      []expense.CategoryTotal
		days      []expense.DailyTotal
		prevTotal decimal.Decimal
		budgets   []*budget.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cats, err = s.expenses.CategoryTotals(gctx, userID, &w.Start, &w.End)
		return err
	})
	g.Go(func() (err error) {
		days, err = s.expenses.DailyTotals(gctx, userID, w.Start, w.End)
		return err
	})
	g.Go(func() (err error) {
		prevTotal, err = s.expenses.Sum(gctx, userID, nil, prev.Start, prev.End)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.budgets.Overlapping(gctx, userID, w)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build monthly report", "error", err, "user_id", userID, "year", year, "month", int(month))
		return nil, storeError(err)
	}

	total := decimal.Zero
	count := 0
	for _, c := range cats {
		total = total.Add(c.Total)
		count += c.Count
	}

	report := &MonthlyReport{
		Report: ReportSummary{
			Year:                  year,
			Month:                 int(month),
			MonthName:             month.String(),
			TotalSpent:            money.Float(total),
			TotalTransactions:     count,
			AveragePerDay:         money.Float(money.Ratio(total, decimal.NewFromInt(int64(w.Days())))),
			AveragePerTransaction: money.Float(money.Ratio(total, decimal.NewFromInt(int64(count)))),
			MonthOverMonthChange:  money.Float(money.Change(total, prevTotal)),
		},
		CategoryBreakdown: make([]CategoryShare, len(cats)),
		DailyBreakdown:    make([]DailyShare, len(days)),
		BudgetPerformance: make([]BudgetPerformance, 0, len(budgets)),
	}
	for i, c := range cats {
		report.CategoryBreakdown[i] = CategoryShare{
			Category:    c.Category,
			DisplayName: category.DisplayName(c.Category),
			Total:       money.Float(c.Total),
			Percentage:  money.Float(money.Percent(c.Total, total)),
		}
	}
	for i, d := range days {
		report.DailyBreakdown[i] = DailyShare{Day: d.Date.Day(), Total: money.Float(d.Total), Date: date.New(d.Date)}
	}

	usages, err := s.usages(ctx, budgets)
	if err != nil {
		return nil, err
	}
	budgeted := decimal.Zero
	for i, b := range budgets {
		u := usages[i]
		budgeted = budgeted.Add(b.Amount)
		report.BudgetPerformance = append(report.BudgetPerformance, BudgetPerformance{
			Category:       b.Category,
			DisplayName:    category.DisplayName(b.Category),
			BudgetAmount:   money.Float(b.Amount),
			SpentAmount:    money.Float(u.Spent),
			Remaining:      money.Float(u.Remaining),
			PercentageUsed: money.Float(u.PercentageUsed),
			IsOverBudget:   u.IsOverBudget,
		})
	}
	report.BudgetSummary = BudgetSummary{
		TotalBudget:           money.Float(budgeted),
		TotalSpent:            money.Float(total),
		TotalRemaining:        money.Float(budgeted.Sub(total)),
		OverallPercentageUsed: money.Float(money.Percent(total, budgeted)),
	}
	return report, nil
}

// YearOverYear compares every month of year with the same month a year
// earlier.
func (s *Service) YearOverYear(ctx context.Context, userID int64, year int) (*YearOverYear, error) {
	if year < 1 {
		return nil, internal.NewValidationFieldError("current_year", "current_year must be a positive number", internal.ErrCodeInvalidQuery)
	}

	var current, previous []expense.MonthlyTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = s.MonthlyTotalsBetween(gctx, userID, yearStart(year), yearEnd(year))
		return err
	})
	g.Go(func() (err error) {
		previous, err = s.MonthlyTotalsBetween(gctx, userID, yearStart(year-1), yearEnd(year-1))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cur, prev := byMonth(current), byMonth(previous)
	curTotal, prevTotal := decimal.Zero, decimal.Zero
	comparison := make([]MonthComparison, 0, 12)
	for m := time.January; m <= time.December; m++ {
		c, p := cur[m], prev[m]
		curTotal = curTotal.Add(c.Total)
		prevTotal = prevTotal.Add(p.Total)
		comparison = append(comparison, MonthComparison{
			Month:            int(m),
			MonthName:        m.String(),
			CurrentYear:      YearTotal{Year: year, Total: money.Float(c.Total), Count: c.Count},
			PreviousYear:     YearTotal{Year: year - 1, Total: money.Float(p.Total), Count: p.Count},
			ChangePercentage: money.Float(money.Change(c.Total, p.Total)),
			ChangeAmount:     money.Float(c.Total.Sub(p.Total)),
		})
	}

	return &YearOverYear{
		Comparison: comparison,
		Summary: YearOverYearSummary{
			CurrentYear:             year,
			PreviousYear:            year - 1,
			CurrentTotal:            money.Float(curTotal),
			PreviousTotal:           money.Float(prevTotal),
			OverallChangePercentage: money.Float(money.Change(curTotal, prevTotal)),
			OverallChangeAmount:     money.Float(curTotal.Sub(prevTotal)),
		},
	}, nil
}

// BudgetVsActual scores active budgets intersecting [start, end]. Without
// both bounds the window is the current month.
func (s *Service) BudgetVsActual(ctx context.Context, userID int64, start, end *time.Time) (*BudgetVsActual, error) {
	today := s.Today()
	w := budget.MonthWindow(today.Year(), today.Month())
	if start != nil && end != nil {
		w = budget.Window{Start: budget.Day(*start), End: budget.Day(*end)}
		if w.End.Before(w.Start) {
			return nil, internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDateRange)
		}
	}

	budgets, err := s.budgets.Overlapping(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	usages, err := s.usages(ctx, budgets)
	if err != nil {
		return nil, err
	}

	analysis := make([]BudgetAnalysis, len(budgets))
	budgeted, spent := decimal.Zero, decimal.Zero
	for i, b := range budgets {
		u := usages[i]
		variance := u.Spent.Sub(b.Amount)
		budgeted = budgeted.Add(b.Amount)
		spent = spent.Add(u.Spent)
		analysis[i] = BudgetAnalysis{
			BudgetID:             b.ID,
			Category:             b.Category,
			DisplayName:          category.DisplayName(b.Category),
			Period:               b.Period,
			BudgetedAmount:       money.Float(b.Amount),
			ActualSpent:          money.Float(u.Spent),
			Remaining:            money.Float(u.Remaining),
			Variance:             money.Float(variance),
			VariancePercentage:   money.Float(money.Percent(variance, b.Amount)),
			PercentageUsed:       money.Float(u.PercentageUsed),
			IsOverBudget:         u.IsOverBudget,
			DaysRemaining:        u.DaysRemaining,
			DailyBudgetRemaining: money.Float(u.DailyBudgetRemaining),
		}
	}

	variance := spent.Sub(budgeted)
	return &BudgetVsActual{
		BudgetAnalysis: analysis,
		Summary: BudgetVsActualSummary{
			TotalBudgeted:             money.Float(budgeted),
			TotalSpent:                money.Float(spent),
			TotalRemaining:            money.Float(budgeted.Sub(spent)),
			OverallVariance:           money.Float(variance),
			OverallVariancePercentage: money.Float(money.Percent(variance, budgeted)),
			OverallPercentageUsed:     money.Float(money.Percent(spent, budgeted)),
			Period:                    PeriodRange{StartDate: date.New(w.Start), EndDate: date.New(w.End)},
		},
	}, nil
}

// CategoryMonthlyTotals buckets spend in [start, end] by category and month,
// ordered by category then chronologically.
func (s *Service) CategoryMonthlyTotals(ctx context.Context, userID int64, start, end time.Time) ([]CategoryMonth, error) {
	from, to := budget.Day(start), budget.Day(end)
	rows, err := s.expenses.List(ctx, expense.ListFilter{UserID: userID, StartDate: &from, EndDate: &to})
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "user_id", userID)
		return nil, storeError(err)
	}

	type key struct {
		category string
		year     int
		month    time.Month
	}
	sums := make(map[key]decimal.Decimal)
	for _, e := range rows {
		k := key{e.Category, e.Date.Year(), e.Date.Month()}
		sums[k] = sums[k].Add(e.Amount)
	}

	out := make([]CategoryMonth, 0, len(sums))
	for k, total := range sums {
		out = append(out, CategoryMonth{Category: k.category, Year: k.year, Month: k.month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out, nil
}

// SpendingWarnings projects this month's spend per category from the pace so
// far and flags categories heading past 1.3x their average month over the
// previous 180 days. Active budgets add exceeded and threshold entries.
func (s *Service) SpendingWarnings(ctx context.Context, userID int64) (*SpendingWarnings, error) {
	now := s.now().UTC()
	today := budget.Day(now)
	month := budget.MonthWindow(today.Year(), today.Month())
	historyEnd := month.Start.AddDate(0, 0, -1)
	historyStart := month.Start.AddDate(0, 0, -warningHistoryDays)

	var (
		current []expense.CategoryTotal
		history []CategoryMonth
		budgets []*budget.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = s.CategoryTotals(gctx, userID, &month.Start, &month.End)
		return err
	})
	g.Go(func() (err error) {
		history, err = s.CategoryMonthlyTotals(gctx, userID, historyStart, historyEnd)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.budgets.ActiveBudgets(gctx, userID, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	spentNow := make(map[string]decimal.Decimal, len(current))
	monthTotal := decimal.Zero
	for _, c := range current {
		spentNow[c.Category] = c.Total
		monthTotal = monthTotal.Add(c.Total)
	}

	warnings := make([]SpendingWarning, 0)
	elapsed := decimal.NewFromInt(int64(today.Day()))
	length := decimal.NewFromInt(int64(month.Days()))
	threshold := decimal.RequireFromString(projectionThreshold)
	for _, h := range averageByCategory(history) {
		cur := spentNow[h.category]
		projected := cur.Div(elapsed).Mul(length)
		if !projected.GreaterThan(h.average.Mul(threshold)) {
			continue
		}
		display := category.DisplayName(h.category)
		warnings = append(warnings, SpendingWarning{
			Type:               WarningHighProjection,
			Category:           h.category,
			DisplayName:        display,
			CurrentSpending:    floatPtr(cur),
			ProjectedSpending:  floatPtr(projected),
			HistoricalAverage:  floatPtr(h.average),
			IncreasePercentage: floatPtr(money.Change(projected, h.average)),
			Message: fmt.Sprintf("Your %s spending is projected to be $%s this month, $%s higher than your average of $%s",
				display, projected.StringFixed(2), projected.Sub(h.average).StringFixed(2), h.average.StringFixed(2)),
		})
	}

	usages, err := s.usages(ctx, budgets)
	if err != nil {
		return nil, err
	}
	for i, b := range budgets {
		u := usages[i]
		display := category.DisplayName(b.Category)
		switch {
		case u.IsOverBudget:
			over := u.Spent.Sub(b.Amount)
			warnings = append(warnings, SpendingWarning{
				Type:         WarningBudgetExceeded,
				Category:     b.Category,
				DisplayName:  display,
				BudgetAmount: floatPtr(b.Amount),
				SpentAmount:  floatPtr(u.Spent),
				OverAmount:   floatPtr(over),
				Message:      fmt.Sprintf("You've exceeded your %s budget by $%s", display, over.StringFixed(2)),
			})
		case u.ShouldAlert:
			warnings = append(warnings, SpendingWarning{
				Type:           WarningBudget,
				Category:       b.Category,
				DisplayName:    display,
				BudgetAmount:   floatPtr(b.Amount),
				SpentAmount:    floatPtr(u.Spent),
				PercentageUsed: floatPtr(u.PercentageUsed),
				Message:        fmt.Sprintf("You've used %s%% of your %s budget", u.PercentageUsed.StringFixed(1), display),
			})
		}
	}

	return &SpendingWarnings{
		Warnings: warnings,
		Summary: SpendingWarningsSummary{
			TotalWarnings:        len(warnings),
			CurrentMonthSpending: money.Float(monthTotal),
			AnalysisDate:         now,
		},
	}, nil
}

// usages evaluates budgets concurrently, keeping their order.
func (s *Service) usages(ctx context.Context, budgets []*budget.Budget) ([]budget.Usage, error) {
	today := s.Today()
	out := make([]budget.Usage, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(budgetReadLimit)
	for i, b := range budgets {
		g.Go(func() error {
			u, err := b.Evaluate(gctx, s.agg, today)
			if err != nil {
				return err
			}
			out[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to evaluate budgets", "error", err)
		return nil, storeError(err)
	}
	return out, nil
}

type categoryAverage struct {
	category string
	average  decimal.Decimal
}

// averageByCategory averages only the months in which a category had spend.
func averageByCategory(months []CategoryMonth) []categoryAverage {
	var out []categoryAverage
	for i := 0; i < len(months); {
		j := i
		sum := decimal.Zero
		for j < len(months) && months[j].Category == months[i].Category {
			sum = sum.Add(months[j].Total)
			j++
		}
		out = append(out, categoryAverage{
			category: months[i].Category,
			average:  sum.Div(decimal.NewFromInt(int64(j - i))),
		})
		i = j
	}
	return out
}

func byMonth(totals []expense.MonthlyTotal) map[time.Month]expense.MonthlyTotal {
	out := make(map[time.Month]expense.MonthlyTotal, len(totals))
	for _, t := range totals {
		out[t.Month] = t
	}
	return out
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t *time.Time) *date.Date {
	if t == nil {
		return nil
	}
	d := date.New(*t)
	return &d
}

func floatPtr(d decimal.Decimal) *float64 {
	f := money.Float(d)
	return &f
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("expense store unavailable", err)
}
