package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/events"
	"github.com/frahmantamala/budget-analytics/internal/notification"
)

const DefaultCooldown = 24 * time.Hour

// BudgetSource resolves the budgets an evaluation applies to.
type BudgetSource interface {
	ActiveBudgets(ctx context.Context, userID int64, cat *string, day *time.Time) ([]*budget.Budget, error)
	AllActive(ctx context.Context) ([]*budget.Budget, error)
	Find(ctx context.Context, userID, id int64) (*budget.Budget, error)
}

// Sink stores notifications. Create reports a taken dedup key as
// internal.ErrDuplicateNotification.
type Sink interface {
	Create(ctx context.Context, n *notification.Notification) (*notification.Notification, error)
	ExistsRecent(ctx context.Context, userID, budgetID int64, notificationType string, within time.Duration) (bool, error)
}

type Config struct {
	Cooldown      time.Duration
	DedupExceeded bool
}

type Engine struct {
	budgets BudgetSource
	agg     budget.SpendAggregator
	sink    Sink
	cfg     Config
	locks   *keyedMutex
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(budgets BudgetSource, agg budget.SpendAggregator, sink Sink, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	e := &Engine{
		budgets: budgets,
		agg:     agg,
		sink:    sink,
		cfg:     cfg,
		locks:   newKeyedMutex(),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate recomputes the budget from live spend and emits at most one
// notification for it. Evaluations of the same budget never overlap.
func (e *Engine) Evaluate(ctx context.Context, b *budget.Budget) (Result, error) {
	unlock := e.locks.Lock(b.ID)
	defer unlock()

	today := budget.Day(e.now().UTC())
	usage, err := b.Evaluate(ctx, e.agg, today)
	if err != nil {
		return Result{BudgetID: b.ID, UserID: b.UserID}, err
	}

	res := Result{BudgetID: b.ID, UserID: b.UserID, Decision: Decide(usage), Usage: usage}

	var n *notification.Notification
	switch res.Decision {
	case DecisionNone:
		return res, nil
	case DecisionExceeded:
		n = notification.NewBudgetExceeded(b, usage)
		if e.cfg.DedupExceeded {
			key := notification.DedupKey(notification.TypeBudgetExceeded, b.ID, today)
			n.DedupKey = &key
		}
	case DecisionAlert:
		n = notification.NewBudgetAlert(b, usage, today)
	}

	if n.DedupKey != nil {
		recent, err := e.sink.ExistsRecent(ctx, b.UserID, b.ID, n.Type, e.cfg.Cooldown)
		if err != nil {
			return res, err
		}
		if recent {
			e.logger.Debug("alert suppressed by cooldown", "budget_id", b.ID, "type", n.Type)
			res.Suppressed = true
			return res, nil
		}
	}

	created, err := e.sink.Create(ctx, n)
	if err != nil {
		if errors.Is(err, internal.ErrDuplicateNotification) {
			e.logger.Debug("alert suppressed by dedup key", "budget_id", b.ID, "type", n.Type)
			res.Suppressed = true
			return res, nil
		}
		return res, err
	}

	e.logger.Info("budget notification emitted",
		"budget_id", b.ID,
		"user_id", b.UserID,
		"type", created.Type,
		"percentage_used", usage.PercentageUsed.Round(2).String())
	res.Notification = created
	return res, nil
}

// EvaluateExpense evaluates the budgets an expense dated day in cat counts
// against: the category budgets and the total budgets whose window holds day.
func (e *Engine) EvaluateExpense(ctx context.Context, userID int64, cat string, day time.Time) ([]Result, error) {
	return e.EvaluateTargets(ctx, userID, []events.SpendTarget{{Category: cat, Date: day}})
}

// EvaluateTargets evaluates each affected budget once. A failing budget does
// not stop the others; every failure is returned joined.
func (e *Engine) EvaluateTargets(ctx context.Context, userID int64, targets []events.SpendTarget) ([]Result, error) {
	seen := make(map[int64]bool)
	var affected []*budget.Budget
	for _, t := range targets {
		day := budget.Day(t.Date)
		for _, cat := range []string{category.Normalize(t.Category), category.Total} {
			c := cat
			budgets, err := e.budgets.ActiveBudgets(ctx, userID, &c, &day)
			if err != nil {
				return nil, err
			}
			for _, b := range budgets {
				if !seen[b.ID] {
					seen[b.ID] = true
					affected = append(affected, b)
				}
			}
		}
	}

	results := make([]Result, 0, len(affected))
	var errs []error
	for _, b := range affected {
		res, err := e.Evaluate(ctx, b)
		if err != nil {
			e.logger.Error("budget evaluation failed", "error", err, "budget_id", b.ID, "user_id", userID)
			errs = append(errs, fmt.Errorf("budget %d: %w", b.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// CheckBudget evaluates one budget on behalf of its owner.
func (e *Engine) CheckBudget(ctx context.Context, userID, budgetID int64) (Result, error) {
	b, err := e.budgets.Find(ctx, userID, budgetID)
	if err != nil {
		return Result{}, err
	}
	return e.Evaluate(ctx, b)
}
