package expense

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/core/common/money"
	"github.com/frahmantamala/budget-analytics/internal/core/events"
	"github.com/shopspring/decimal"
)

// RepositoryAPI is the expense store. Aggregations never cache.
type RepositoryAPI interface {
	Create(ctx context.Context, e *Expense) error
	CreateBatch(ctx context.Context, expenses []*Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]*Expense, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	Sum(ctx context.Context, userID int64, category *string, start, end time.Time) (decimal.Decimal, error)
	MonthlyTotals(ctx context.Context, userID int64, start, end time.Time) ([]MonthlyTotal, error)
	CategoryTotals(ctx context.Context, userID int64, start, end *time.Time) ([]CategoryTotal, error)
	DailyTotals(ctx context.Context, userID int64, start, end time.Time) ([]DailyTotal, error)
	PaymentMethodTotals(ctx context.Context, userID int64, start, end *time.Time) ([]PaymentMethodTotal, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, userID int64, dto CreateExpenseDTO) (*ExpenseView, error) {
	e, err := NewExpense(userID, dto)
	if err != nil {
		s.logger.Warn("expense validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", userID)
		return nil, storeError(err)
	}

	s.logger.Info("expense created",
		"expense_id", e.ID,
		"user_id", userID,
		"category", e.Category,
		"amount", e.Amount.String())

	s.publish(ctx, events.EventTypeExpenseCreated, e.ID, userID, target(e))
	view := NewExpenseView(e)
	return &view, nil
}

// CreateBulk stores all expenses or none. The first invalid entry is
// reported with its index.
func (s *Service) CreateBulk(ctx context.Context, userID int64, dtos []CreateExpenseDTO) ([]ExpenseView, error) {
	if len(dtos) == 0 {
		return nil, internal.NewValidationFieldError("expenses", "No expenses provided", internal.ErrCodeValidationFailed)
	}

	batch := make([]*Expense, 0, len(dtos))
	for i, dto := range dtos {
		e, err := NewExpense(userID, dto)
		if err != nil {
			return nil, indexed(i, err)
		}
		batch = append(batch, e)
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("failed to create expense batch", "error", err, "user_id", userID, "count", len(batch))
		return nil, storeError(err)
	}

	seen := make(map[events.SpendTarget]bool)
	touched := make([]events.SpendTarget, 0, len(batch))
	views := make([]ExpenseView, 0, len(batch))
	for _, e := range batch {
		if t := target(e); !seen[t] {
			seen[t] = true
			touched = append(touched, t)
		}
		views = append(views, NewExpenseView(e))
	}
	s.logger.Info("expense batch created", "user_id", userID, "count", len(batch))
	s.publish(ctx, events.EventTypeExpenseCreated, 0, userID, touched...)
	return views, nil
}

func (s *Service) owned(ctx context.Context, userID, id int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			return nil, internal.ErrExpenseNotFound
		}
		s.logger.Error("failed to load expense", "error", err, "expense_id", id)
		return nil, storeError(err)
	}
	if e.UserID != userID {
		return nil, internal.ErrExpenseNotFound
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*ExpenseView, error) {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	view := NewExpenseView(e)
	return &view, nil
}

func (s *Service) Update(ctx context.Context, userID, id int64, dto UpdateExpenseDTO) (*ExpenseView, error) {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	before := target(e)
	if err := e.Apply(dto); err != nil {
		s.logger.Warn("expense update rejected", "error", err, "expense_id", id)
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.Error("failed to update expense", "error", err, "expense_id", id)
		return nil, storeError(err)
	}

	touched := []events.SpendTarget{target(e)}
	if before != touched[0] {
		touched = append(touched, before)
	}
	s.logger.Info("expense updated", "expense_id", id, "user_id", userID)
	s.publish(ctx, events.EventTypeExpenseUpdated, id, userID, touched...)
	view := NewExpenseView(e)
	return &view, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete expense", "error", err, "expense_id", id)
		return storeError(err)
	}
	s.logger.Info("expense deleted", "expense_id", id, "user_id", userID)
	s.publish(ctx, events.EventTypeExpenseDeleted, id, userID, target(e))
	return nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Category != nil {
		normalized := category.Normalize(*filter.Category)
		filter.Category = &normalized
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count expenses", "error", err, "user_id", filter.UserID)
		return nil, storeError(err)
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "user_id", filter.UserID)
		return nil, storeError(err)
	}

	sum := decimal.Zero
	views := make([]ExpenseView, 0, len(rows))
	for _, e := range rows {
		sum = sum.Add(e.Amount)
		views = append(views, NewExpenseView(e))
	}
	return &ListResponse{
		Expenses: views,
		Pagination: Pagination{
			TotalCount: total,
			Limit:      filter.Limit,
			Offset:     filter.Offset,
			HasMore:    int64(filter.Offset+len(rows)) < total,
		},
		Summary: PageSummary{
			TotalAmount:   money.Float(sum),
			ExpenseCount:  len(rows),
			AverageAmount: money.Float(money.Ratio(sum, decimal.NewFromInt(int64(len(rows))))),
		},
	}, nil
}

func (s *Service) Summary(ctx context.Context, userID int64, start, end *time.Time) (*SummaryResponse, error) {
	cats, err := s.repo.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("failed to total categories", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	methods, err := s.repo.PaymentMethodTotals(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("failed to total payment methods", "error", err, "user_id", userID)
		return nil, storeError(err)
	}

	total := decimal.Zero
	count := 0
	for _, c := range cats {
		total = total.Add(c.Total)
		count += c.Count
	}

	resp := &SummaryResponse{
		Summary: SummaryTotals{
			TotalAmount:   money.Float(total),
			ExpenseCount:  count,
			AverageAmount: money.Float(money.Ratio(total, decimal.NewFromInt(int64(count)))),
			DateRange:     DateRange{StartDate: datePtr(start), EndDate: datePtr(end)},
		},
		CategoryBreakdown:      make([]CategoryShare, 0, len(cats)),
		PaymentMethodBreakdown: make([]PaymentMethodShare, 0, len(methods)),
	}
	for _, c := range cats {
		resp.CategoryBreakdown = append(resp.CategoryBreakdown, CategoryShare{
			Category:    c.Category,
			DisplayName: category.DisplayName(c.Category),
			Amount:      money.Float(c.Total),
			Count:       c.Count,
			Percentage:  money.Float(money.Percent(c.Total, total)),
		})
	}
	sort.SliceStable(methods, func(i, j int) bool { return methods[i].Total.GreaterThan(methods[j].Total) })
	for _, m := range methods {
		resp.PaymentMethodBreakdown = append(resp.PaymentMethodBreakdown, PaymentMethodShare{
			PaymentMethod: m.PaymentMethod,
			Amount:        money.Float(m.Total),
			Count:         m.Count,
			Percentage:    money.Float(money.Percent(m.Total, total)),
		})
	}
	return resp, nil
}

// publish runs after the mutation has committed; a failure only gets logged.
func (s *Service) publish(ctx context.Context, eventType string, expenseID, userID int64, touched ...events.SpendTarget) {
	if s.publisher == nil {
		return
	}
	evt := events.NewExpenseChangedEvent(eventType, expenseID, userID, touched...)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish expense event",
			"error", err,
			"event_type", eventType,
			"expense_id", expenseID)
	}
}

func target(e *Expense) events.SpendTarget {
	return events.SpendTarget{Category: e.Category, Date: date.New(e.Date).Time}
}

func indexed(i int, err error) error {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return err
	}
	details, ok := appErr.Details.(internal.ValidationErrors)
	if !ok || len(details.Errors) == 0 {
		return err
	}
	first := details.Errors[0]
	return internal.NewValidationFieldError(fmt.Sprintf("expenses[%d].%s", i, first.Field), first.Message, internal.ErrorCode(first.Code))
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("expense store unavailable", err)
}

func datePtr(t *time.Time) *date.Date {
	if t == nil {
		return nil
	}
	d := date.New(*t)
	return &d
}
