package budget

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/shopspring/decimal"
)

type RepositoryAPI interface {
	Create(ctx context.Context, b *Budget) error
	GetByID(ctx context.Context, id int64) (*Budget, error)
	Update(ctx context.Context, b *Budget) error
	List(ctx context.Context, filter ListFilter) ([]*Budget, error)
}

type Service struct {
	repo   RepositoryAPI
	agg    SpendAggregator
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Service)

// WithClock replaces the wall clock used to decide "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo RepositoryAPI, agg SpendAggregator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		agg:    agg,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Today() time.Time {
	return Day(s.now())
}

func (s *Service) Aggregator() SpendAggregator {
	return s.agg
}

func (s *Service) Create(ctx context.Context, userID int64, dto CreateBudgetDTO) (*BudgetView, error) {
	b, err := NewBudget(userID, dto, s.now().UTC())
	if err != nil {
		s.logger.Warn("budget validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error("failed to create budget", "error", err, "user_id", userID)
		return nil, storeError(err)
	}

	s.logger.Info("budget created",
		"budget_id", b.ID,
		"user_id", userID,
		"category", b.Category,
		"period", b.Period)

	return s.view(ctx, b)
}

// owned hides budgets of other users behind the same not-found error.
func (s *Service) owned(ctx context.Context, userID, id int64) (*Budget, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			return nil, internal.ErrBudgetNotFound
		}
		s.logger.Error("failed to load budget", "error", err, "budget_id", id)
		return nil, storeError(err)
	}
	if b.UserID != userID {
		s.logger.Warn("budget requested by non-owner", "budget_id", id, "user_id", userID)
		return nil, internal.ErrBudgetNotFound
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*BudgetView, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, b)
}

// Find returns the owned budget entity without computing its usage.
func (s *Service) Find(ctx context.Context, userID, id int64) (*Budget, error) {
	return s.owned(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID int64, activeOnly bool, cat *string) ([]BudgetView, error) {
	filter := ListFilter{UserID: userID, ActiveOnly: activeOnly}
	if cat != nil && *cat != "" {
		normalized := category.Normalize(*cat)
		filter.Category = &normalized
	}
	budgets, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list budgets", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return s.views(ctx, budgets)
}

func (s *Service) Update(ctx context.Context, userID, id int64, dto UpdateBudgetDTO) (*BudgetView, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := b.Apply(dto, s.now().UTC()); err != nil {
		s.logger.Warn("budget update rejected", "error", err, "budget_id", id)
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		s.logger.Error("failed to update budget", "error", err, "budget_id", id)
		return nil, storeError(err)
	}
	s.logger.Info("budget updated", "budget_id", id, "user_id", userID)
	return s.view(ctx, b)
}

// Deactivate is the soft delete path.
func (s *Service) Deactivate(ctx context.Context, userID, id int64) error {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	inactive := false
	if err := b.Apply(UpdateBudgetDTO{IsActive: &inactive}, s.now().UTC()); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		s.logger.Error("failed to deactivate budget", "error", err, "budget_id", id)
		return storeError(err)
	}
	s.logger.Info("budget deactivated", "budget_id", id, "user_id", userID)
	return nil
}

// ActiveBudgets returns active budgets whose window contains the given day.
// A nil day means today.
func (s *Service) ActiveBudgets(ctx context.Context, userID int64, cat *string, day *time.Time) ([]*Budget, error) {
	on := s.Today()
	if day != nil {
		on = Day(*day)
	}
	filter := ListFilter{UserID: userID, ActiveOnly: true, Covering: &on}
	if cat != nil {
		normalized := category.Normalize(*cat)
		filter.Category = &normalized
	}
	budgets, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list active budgets", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return budgets, nil
}

// AllActive lists active budgets covering today for every user.
func (s *Service) AllActive(ctx context.Context) ([]*Budget, error) {
	return s.ActiveBudgets(ctx, 0, nil, nil)
}

// Overlapping lists active budgets whose window intersects w.
func (s *Service) Overlapping(ctx context.Context, userID int64, w Window) ([]*Budget, error) {
	budgets, err := s.repo.List(ctx, ListFilter{UserID: userID, ActiveOnly: true, Overlapping: &w})
	if err != nil {
		s.logger.Error("failed to list overlapping budgets", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return budgets, nil
}

func (s *Service) BudgetsNeedingAlerts(ctx context.Context, userID int64) ([]BudgetView, error) {
	budgets, err := s.ActiveBudgets(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, budgets)
	if err != nil {
		return nil, err
	}
	alerting := make([]BudgetView, 0, len(views))
	for _, v := range views {
		if v.ShouldAlert {
			alerting = append(alerting, v)
		}
	}
	return alerting, nil
}

func (s *Service) Performance(ctx context.Context, userID, id int64) (*PerformanceView, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	usage, err := b.Evaluate(ctx, s.agg, s.Today())
	if err != nil {
		return nil, err
	}
	p := s.performance(b, usage)
	return &p, nil
}

// PerformanceHistory scores every budget that ended within the last months*30 days.
func (s *Service) PerformanceHistory(ctx context.Context, userID int64, months int) ([]PerformanceView, error) {
	since := s.Today().AddDate(0, 0, -30*months)
	far := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	budgets, err := s.repo.List(ctx, ListFilter{UserID: userID, Overlapping: &Window{Start: since, End: far}})
	if err != nil {
		s.logger.Error("failed to list budget history", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	result := make([]PerformanceView, 0, len(budgets))
	for _, b := range budgets {
		usage, err := b.Evaluate(ctx, s.agg, s.Today())
		if err != nil {
			return nil, err
		}
		result = append(result, s.performance(b, usage))
	}
	return result, nil
}

func (s *Service) performance(b *Budget, u Usage) PerformanceView {
	pct := u.PercentageUsed.InexactFloat64()
	score := 0.0
	if !u.IsOverBudget {
		score = math.Min(100, (1-pct/100)*100)
	}

	status := StatusCritical
	switch {
	case u.IsOverBudget:
		status = StatusOverBudget
	case pct < 50:
		status = StatusExcellent
	case pct < 75:
		status = StatusGood
	case pct < 90:
		status = StatusWarning
	}

	w := b.Window()
	total := w.Days()
	elapsed := int(s.Today().Sub(w.Start).Hours()/24) + 1
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	progress := 0.0
	if total > 0 {
		progress = float64(elapsed) / float64(total) * 100
	}

	return PerformanceView{
		Budget:               NewBudgetView(b, u),
		PerformanceScore:     round2(score),
		Status:               status,
		DailyBudgetRemaining: u.DailyBudgetRemaining.Round(2).InexactFloat64(),
		DaysElapsed:          elapsed,
		TotalDays:            total,
		TimeProgress:         round2(progress),
	}
}

func (s *Service) view(ctx context.Context, b *Budget) (*BudgetView, error) {
	usage, err := b.Evaluate(ctx, s.agg, s.Today())
	if err != nil {
		s.logger.Error("failed to compute budget usage", "error", err, "budget_id", b.ID)
		return nil, err
	}
	v := NewBudgetView(b, usage)
	return &v, nil
}

func (s *Service) views(ctx context.Context, budgets []*Budget) ([]BudgetView, error) {
	result := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		v, err := s.view(ctx, b)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, nil
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("budget store unavailable", err)
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
