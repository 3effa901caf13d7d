package budget

import (
	"context"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/shopspring/decimal"
)

// ExpenseSummer is the slice of the expense store the aggregator reads.
// A nil category means every category.
type ExpenseSummer interface {
	Sum(ctx context.Context, userID int64, category *string, start, end time.Time) (decimal.Decimal, error)
}

type SpendAggregator interface {
	SpentBetween(ctx context.Context, userID int64, category string, start, end time.Time) (decimal.Decimal, error)
}

type Aggregator struct {
	store ExpenseSummer
}

func NewAggregator(store ExpenseSummer) *Aggregator {
	return &Aggregator{store: store}
}

// SpentBetween sums expenses dated within [start, end]. The total category
// drops the category filter. No matching rows yields zero.
func (a *Aggregator) SpentBetween(ctx context.Context, userID int64, cat string, start, end time.Time) (decimal.Decimal, error) {
	var filter *string
	if cat != category.Total {
		filter = &cat
	}
	sum, err := a.store.Sum(ctx, userID, filter, Day(start), Day(end))
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return decimal.Zero, err
		}
		return decimal.Zero, internal.NewDependencyError("expense store unavailable", err)
	}
	return sum.Round(2), nil
}
