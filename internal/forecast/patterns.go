package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/expense"
)

const velocityTrendPoints = 30

// SpendingPatterns describes the trailing year of expenses: weekday and
// calendar month habits, per category trends, outliers above mean + 2σ and
// the running spend per day.
func (s *Service) SpendingPatterns(ctx context.Context, userID int64) (*Patterns, error) {
	today := s.today()
	start := today.AddDate(0, 0, -historyDays)
	rows, err := s.expenses.List(ctx, expense.ListFilter{UserID: userID, StartDate: &start, EndDate: &today})
	if err != nil {
		s.logger.Error("failed to list expenses for patterns", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	if len(rows) < PatternMinExpenses {
		return &Patterns{
			Message:         "Insufficient data for pattern analysis",
			Patterns:        []Pattern{},
			Recommendations: []string{"Add more expenses to get meaningful insights"},
		}, nil
	}

	weekdays := dayOfWeekStats(rows)
	months := monthStats(rows)
	trends := categoryTrends(rows)
	unusual := unusualSpending(rows)
	velocity := spendingVelocity(rows)

	busiest, quietest := weekdays[0], weekdays[0]
	for _, d := range weekdays[1:] {
		if d.Sum > busiest.Sum {
			busiest = d
		}
		if d.Sum < quietest.Sum {
			quietest = d
		}
	}
	peak := months[0]
	for _, m := range months[1:] {
		if m.Sum > peak.Sum {
			peak = m
		}
	}

	patterns := []Pattern{
		{
			Type:  PatternDayOfWeek,
			Title: "Weekly Spending Pattern",
			Description: fmt.Sprintf("You spend most on %ss ($%.2f total) and least on %ss ($%.2f total)",
				busiest.DayName, busiest.Sum, quietest.DayName, quietest.Sum),
			Data: weekdays,
		},
		{
			Type:        PatternMonthly,
			Title:       "Monthly Spending Pattern",
			Description: fmt.Sprintf("Your highest spending month is typically %s ($%.2f)", peak.MonthName, peak.Sum),
			Data:        months,
		},
		{
			Type:        PatternCategoryTrends,
			Title:       "Category Spending Trends",
			Description: "How your spending in different categories is changing over time",
			Data:        trends,
		},
		{
			Type:        PatternUnusual,
			Title:       "Unusual Spending Detection",
			Description: fmt.Sprintf("Detected %d unusual expenses (above $%.2f)", unusual.Count, unusual.Threshold),
			Data:        unusual,
		},
		{
			Type:        PatternSpendingVelocity,
			Title:       "Spending Velocity",
			Description: fmt.Sprintf("Your current spending rate is $%.2f per day", velocity.CurrentVelocity),
			Data:        velocity,
		},
	}

	recommendations := []string{
		fmt.Sprintf("You spend most on %ss. Consider meal planning or limiting discretionary spending on this day.", busiest.DayName),
	}
	for _, t := range trends {
		if t.TrendDirection == TrendIncreasing {
			recommendations = append(recommendations,
				fmt.Sprintf("Your %s spending is increasing. Consider setting a budget to control this category.", t.DisplayName))
		}
	}
	if unusual.Count > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("You have %d unusual high-value expenses. Review these to ensure they align with your financial goals.", unusual.Count))
	}
	recommendations = append(recommendations,
		fmt.Sprintf("At your current rate, you'll spend $%.2f this month. Consider if this aligns with your budget.", velocity.CurrentVelocity*30))

	total := 0.0
	for _, e := range rows {
		total += e.Amount.InexactFloat64()
	}

	return &Patterns{
		Patterns:        patterns,
		Recommendations: recommendations,
		AnalysisPeriod: &AnalysisPeriod{
			StartDate:     date.New(start),
			EndDate:       date.New(today),
			TotalExpenses: len(rows),
			TotalAmount:   round(total, 2),
		},
	}, nil
}

// dayOfWeekStats lists only weekdays with spend, Monday first.
func dayOfWeekStats(rows []*expense.Expense) []DayOfWeekStat {
	var sums [7]float64
	var counts [7]int
	for _, e := range rows {
		d := mondayIndex(e.Date.Weekday())
		sums[d] += e.Amount.InexactFloat64()
		counts[d]++
	}
	out := make([]DayOfWeekStat, 0, 7)
	for d := 0; d < 7; d++ {
		if counts[d] == 0 {
			continue
		}
		out = append(out, DayOfWeekStat{
			DayOfWeek: d,
			DayName:   time.Weekday((d + 1) % 7).String(),
			Sum:       round(sums[d], 2),
			Mean:      round(sums[d]/float64(counts[d]), 2),
			Count:     counts[d],
		})
	}
	return out
}

func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// monthStats groups by calendar month regardless of year.
func monthStats(rows []*expense.Expense) []MonthStat {
	var sums [13]float64
	var counts [13]int
	for _, e := range rows {
		sums[e.Date.Month()] += e.Amount.InexactFloat64()
		counts[e.Date.Month()]++
	}
	out := make([]MonthStat, 0, 12)
	for m := time.January; m <= time.December; m++ {
		if counts[m] == 0 {
			continue
		}
		out = append(out, MonthStat{
			Month:     int(m),
			MonthName: m.String(),
			Sum:       round(sums[m], 2),
			Mean:      round(sums[m]/float64(counts[m]), 2),
			Count:     counts[m],
		})
	}
	return out
}

func categoryTrends(rows []*expense.Expense) []CategoryTrend {
	type key struct {
		category string
		month    time.Time
	}
	sums := make(map[key]float64)
	for _, e := range rows {
		k := key{e.Category, time.Date(e.Date.Year(), e.Date.Month(), 1, 0, 0, 0, 0, time.UTC)}
		sums[k] += e.Amount.InexactFloat64()
	}
	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].month.Before(keys[j].month)
	})

	out := make([]CategoryTrend, 0)
	for i := 0; i < len(keys); {
		j := i
		var series []float64
		for j < len(keys) && keys[j].category == keys[i].category {
			series = append(series, sums[keys[j]])
			j++
		}
		if len(series) >= minCategoryMonths {
			m := Fit(ModelLinear, 1, series)
			out = append(out, CategoryTrend{
				Category:       keys[i].category,
				DisplayName:    category.DisplayName(keys[i].category),
				TrendSlope:     round(m.Slope(), 2),
				TrendDirection: m.Trend(),
				MonthlyAverage: round(mean(series), 2),
			})
		}
		i = j
	}
	return out
}

func unusualSpending(rows []*expense.Expense) UnusualSpending {
	amounts := make([]float64, len(rows))
	for i, e := range rows {
		amounts[i] = e.Amount.InexactFloat64()
	}
	threshold := mean(amounts) + 2*sampleStdDev(amounts)

	u := UnusualSpending{Threshold: round(threshold, 2), Categories: map[string]int{}}
	total := 0.0
	for i, a := range amounts {
		if a > threshold {
			u.Count++
			total += a
			u.Categories[rows[i].Category]++
		}
	}
	u.TotalUnusual = round(total, 2)
	return u
}

// spendingVelocity is cumulative spend over days since the first expense,
// both ends counted.
func spendingVelocity(rows []*expense.Expense) SpendingVelocity {
	sorted := make([]*expense.Expense, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first := date.New(sorted[0].Date).Time
	points := make([]VelocityPoint, len(sorted))
	cumulative := 0.0
	for i, e := range sorted {
		cumulative += e.Amount.InexactFloat64()
		d := date.New(e.Date)
		days := math.Round(d.Sub(first).Hours()/24) + 1
		points[i] = VelocityPoint{Date: d, Velocity: cumulative / days}
	}

	current := points[len(points)-1].Velocity
	if len(points) > velocityTrendPoints {
		points = points[len(points)-velocityTrendPoints:]
	}
	for i := range points {
		points[i].Velocity = round(points[i].Velocity, 2)
	}
	return SpendingVelocity{CurrentVelocity: round(current, 2), VelocityTrend: points}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(sumSquares(xs) / float64(len(xs)-1))
}

func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return math.Sqrt(sumSquares(xs) / float64(len(xs)))
}

func sumSquares(xs []float64) float64 {
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return ss
}
