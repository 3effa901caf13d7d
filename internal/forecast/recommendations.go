package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/expense"
)

var (
	needsCategories = map[string]bool{
		category.Food: true, category.Transport: true, category.Bills: true, category.Healthcare: true,
	}
	wantsCategories = map[string]bool{
		category.Entertainment: true, category.Shopping: true,
	}
)

type categoryStats struct {
	category       string
	amounts        []float64
	total          float64
	monthlyAverage float64
}

// BudgetRecommendations suggests a monthly budget per category from the last
// 180 days, padded by the category's variability, and compares it with the
// active budgets.
func (s *Service) BudgetRecommendations(ctx context.Context, userID int64) (*BudgetRecommendations, error) {
	today := s.today()
	start := today.AddDate(0, 0, -recommendDays)
	rows, err := s.expenses.List(ctx, expense.ListFilter{UserID: userID, StartDate: &start, EndDate: &today})
	if err != nil {
		s.logger.Error("failed to list expenses for recommendations", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	if len(rows) < RecommendMinExpenses {
		return &BudgetRecommendations{
			Message:          "Insufficient data for budget recommendations",
			Recommendations:  []Recommendation{},
			SuggestedBudgets: []SuggestedBudget{},
		}, nil
	}

	active, err := s.budgets.ActiveBudgets(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	current := make(map[string]float64, len(active))
	for _, b := range active {
		current[b.Category] = b.Amount.InexactFloat64()
	}

	stats, total := groupStats(rows)
	recommendations := make([]Recommendation, 0)
	suggested := make([]SuggestedBudget, 0, len(stats))
	totalSuggested := 0.0
	var needs, wants float64

	for _, st := range stats {
		avg := mean(st.amounts)
		variability := 0.0
		if avg > 0 {
			variability = populationStdDev(st.amounts) / avg
		}
		buffer := math.Min(0.3, math.Max(0.1, variability))
		amount := math.Round(st.monthlyAverage*(1+buffer)/10) * 10
		totalSuggested += amount
		display := category.DisplayName(st.category)

		suggested = append(suggested, SuggestedBudget{
			Category:          st.category,
			DisplayName:       display,
			SuggestedAmount:   amount,
			HistoricalAverage: round(st.monthlyAverage, 2),
			BufferPercentage:  round(buffer*100, 1),
			Confidence:        countConfidence(len(st.amounts)),
		})

		if needsCategories[st.category] {
			needs += st.monthlyAverage
		}
		if wantsCategories[st.category] {
			wants += st.monthlyAverage
		}

		cur, ok := current[st.category]
		switch {
		case !ok:
			recommendations = append(recommendations, Recommendation{
				Type:            RecommendCreate,
				Category:        st.category,
				Message:         fmt.Sprintf("Create a budget for %s with $%.2f monthly limit", display, amount),
				SuggestedAmount: floatPtr(amount),
				Reason:          fmt.Sprintf("You spend an average of $%.2f monthly in this category", st.monthlyAverage),
			})
		case cur < st.monthlyAverage*0.8:
			recommendations = append(recommendations, Recommendation{
				Type:            RecommendIncrease,
				Category:        st.category,
				Message:         fmt.Sprintf("Consider increasing your %s budget from $%.2f to $%.2f", display, cur, amount),
				CurrentAmount:   floatPtr(cur),
				SuggestedAmount: floatPtr(amount),
				Reason:          "Your current budget is below historical spending",
			})
		case cur > st.monthlyAverage*1.5:
			recommendations = append(recommendations, Recommendation{
				Type:            RecommendDecrease,
				Category:        st.category,
				Message:         fmt.Sprintf("You could reduce your %s budget from $%.2f to $%.2f", display, cur, amount),
				CurrentAmount:   floatPtr(cur),
				SuggestedAmount: floatPtr(amount),
				Reason:          "Your current budget is significantly above historical spending",
			})
		}
	}

	// shares of the whole window, the monthly averages scaled back up
	needsPct, wantsPct := 0.0, 0.0
	if total > 0 {
		needsPct = needs * recommendMonths / total * 100
		wantsPct = wants * recommendMonths / total * 100
	}
	if needsPct > 60 {
		recommendations = append(recommendations, Recommendation{
			Type:     RecommendReduceNeeds,
			Category: "overall",
			Message:  fmt.Sprintf("Your essential spending (%.1f%%) exceeds the recommended 50%%. Consider ways to reduce necessary expenses.", needsPct),
		})
	}
	if wantsPct > 40 {
		recommendations = append(recommendations, Recommendation{
			Type:     RecommendReduceWants,
			Category: "overall",
			Message:  fmt.Sprintf("Your discretionary spending (%.1f%%) exceeds the recommended 30%%. Consider reducing entertainment and shopping expenses.", wantsPct),
		})
	}

	return &BudgetRecommendations{
		Recommendations:  recommendations,
		SuggestedBudgets: suggested,
		Analysis: &RecommendationAnalysis{
			TotalMonthlySpending: round(total/recommendMonths, 2),
			TotalSuggestedBudget: totalSuggested,
			NeedsPercentage:      round(needsPct, 1),
			WantsPercentage:      round(wantsPct, 1),
			CategoriesAnalyzed:   len(stats),
		},
	}, nil
}

// groupStats orders categories by total spend, largest first.
func groupStats(rows []*expense.Expense) ([]*categoryStats, float64) {
	byCategory := make(map[string]*categoryStats)
	total := 0.0
	for _, e := range rows {
		a := e.Amount.InexactFloat64()
		total += a
		st, ok := byCategory[e.Category]
		if !ok {
			st = &categoryStats{category: e.Category}
			byCategory[e.Category] = st
		}
		st.amounts = append(st.amounts, a)
		st.total += a
	}

	out := make([]*categoryStats, 0, len(byCategory))
	for _, st := range byCategory {
		st.monthlyAverage = st.total / recommendMonths
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].total != out[j].total {
			return out[i].total > out[j].total
		}
		return out[i].category < out[j].category
	})
	return out, total
}

func countConfidence(n int) string {
	switch {
	case n > 10:
		return ConfidenceHigh
	case n > 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func floatPtr(f float64) *float64 {
	r := round(f, 2)
	return &r
}
