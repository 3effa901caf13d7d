package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	expenseDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/expense"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseRepository implements expense.RepositoryAPI using GORM. Day and
// month buckets are built in Go so the same queries run on postgres and sqlite.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.RepositoryAPI {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	row := expense.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ExpenseRepository) CreateBatch(ctx context.Context, expenses []*expense.Expense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range expenses {
			row := expense.ToDataModel(e)
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			e.ID = row.ID
			e.CreatedAt = row.CreatedAt
			e.UpdatedAt = row.UpdatedAt
		}
		return nil
	})
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&row), nil
}

func (r *ExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	row := expense.ToDataModel(e)
	err := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).
		Where("id = ?", e.ID).
		Select("amount", "category", "description", "expense_date", "payment_method", "notes", "location", "tags", "updated_at").
		Updates(row).Error
	if err != nil {
		return err
	}
	e.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&expenseDatamodel.Expense{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) filtered(ctx context.Context, f expense.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).Where("user_id = ?", f.UserID)
	if f.StartDate != nil {
		q = q.Where("expense_date >= ?", date.New(*f.StartDate).Time)
	}
	if f.EndDate != nil {
		q = q.Where("expense_date <= ?", date.New(*f.EndDate).Time)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	return q
}

func (r *ExpenseRepository) List(ctx context.Context, f expense.ListFilter) ([]*expense.Expense, error) {
	q := r.filtered(ctx, f).Order("expense_date DESC, created_at DESC, id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var rows []*expenseDatamodel.Expense
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return expense.FromDataModelSlice(rows), nil
}

func (r *ExpenseRepository) Count(ctx context.Context, f expense.ListFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, f).Count(&count).Error
	return count, err
}

// Sum covers [start, end] inclusive; a nil category sums every category.
func (r *ExpenseRepository) Sum(ctx context.Context, userID int64, category *string, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.filtered(ctx, expense.ListFilter{UserID: userID, StartDate: &start, EndDate: &end, Category: category}).
		Select("SUM(amount)").
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

type amountRow struct {
	ExpenseDate time.Time
	Amount      decimal.Decimal
}

func (r *ExpenseRepository) amounts(ctx context.Context, userID int64, start, end time.Time) ([]amountRow, error) {
	var rows []amountRow
	err := r.filtered(ctx, expense.ListFilter{UserID: userID, StartDate: &start, EndDate: &end}).
		Select("expense_date, amount").
		Order("expense_date ASC").
		Scan(&rows).Error
	return rows, err
}

// MonthlyTotals returns only months that have expenses, oldest first.
func (r *ExpenseRepository) MonthlyTotals(ctx context.Context, userID int64, start, end time.Time) ([]expense.MonthlyTotal, error) {
	rows, err := r.amounts(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	var out []expense.MonthlyTotal
	for _, row := range rows {
		d := date.New(row.ExpenseDate)
		n := len(out)
		if n == 0 || out[n-1].Year != d.Year() || out[n-1].Month != d.Month() {
			out = append(out, expense.MonthlyTotal{Year: d.Year(), Month: d.Month(), Total: decimal.Zero})
			n++
		}
		out[n-1].Total = out[n-1].Total.Add(row.Amount)
		out[n-1].Count++
	}
	for i := range out {
		out[i].Total = out[i].Total.Round(2)
	}
	return out, nil
}

// DailyTotals returns only days that have expenses, oldest first.
func (r *ExpenseRepository) DailyTotals(ctx context.Context, userID int64, start, end time.Time) ([]expense.DailyTotal, error) {
	rows, err := r.amounts(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	var out []expense.DailyTotal
	for _, row := range rows {
		d := date.New(row.ExpenseDate).Time
		n := len(out)
		if n == 0 || !out[n-1].Date.Equal(d) {
			out = append(out, expense.DailyTotal{Date: d, Total: decimal.Zero})
			n++
		}
		out[n-1].Total = out[n-1].Total.Add(row.Amount)
		out[n-1].Count++
	}
	for i := range out {
		out[i].Total = out[i].Total.Round(2)
	}
	return out, nil
}

type groupRow struct {
	GroupKey string
	Total    decimal.Decimal
	Count    int
}

func (r *ExpenseRepository) groupBy(ctx context.Context, column string, userID int64, start, end *time.Time) ([]groupRow, error) {
	var rows []groupRow
	err := r.filtered(ctx, expense.ListFilter{UserID: userID, StartDate: start, EndDate: end}).
		Select(column + " AS group_key, SUM(amount) AS total, COUNT(*) AS count").
		Group(column).
		Order("total DESC").
		Scan(&rows).Error
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, err
}

// CategoryTotals is sorted by total, largest first.
func (r *ExpenseRepository) CategoryTotals(ctx context.Context, userID int64, start, end *time.Time) ([]expense.CategoryTotal, error) {
	rows, err := r.groupBy(ctx, "category", userID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]expense.CategoryTotal, len(rows))
	for i, row := range rows {
		out[i] = expense.CategoryTotal{Category: row.GroupKey, Total: row.Total, Count: row.Count}
	}
	return out, nil
}

func (r *ExpenseRepository) PaymentMethodTotals(ctx context.Context, userID int64, start, end *time.Time) ([]expense.PaymentMethodTotal, error) {
	rows, err := r.groupBy(ctx, "payment_method", userID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]expense.PaymentMethodTotal, len(rows))
	for i, row := range rows {
		out[i] = expense.PaymentMethodTotal{PaymentMethod: row.GroupKey, Total: row.Total, Count: row.Count}
	}
	return out, nil
}
