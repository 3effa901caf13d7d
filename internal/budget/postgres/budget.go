package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	budgetDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/budget"
	"gorm.io/gorm"
)

// BudgetRepository implements budget.RepositoryAPI using GORM
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) budget.RepositoryAPI {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	row := budget.ToDataModel(b)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	b.ID = row.ID
	b.CreatedAt = row.CreatedAt
	b.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *BudgetRepository) GetByID(ctx context.Context, id int64) (*budget.Budget, error) {
	var row budgetDatamodel.Budget
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrBudgetNotFound
		}
		return nil, err
	}
	return budget.FromDataModel(&row), nil
}

// Update writes every column; is_active=false must survive the gorm default.
func (r *BudgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	row := budget.ToDataModel(b)
	return r.db.WithContext(ctx).Model(&budgetDatamodel.Budget{}).
		Where("id = ?", b.ID).
		Select("category", "amount", "period", "start_date", "end_date", "is_active", "alert_threshold", "updated_at").
		Updates(row).Error
}

// List filters by owner, active flag, category and date window. A zero user
// id lists budgets of every user.
func (r *BudgetRepository) List(ctx context.Context, f budget.ListFilter) ([]*budget.Budget, error) {
	q := r.db.WithContext(ctx).Model(&budgetDatamodel.Budget{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Covering != nil {
		day := budget.Day(*f.Covering)
		q = q.Where("start_date <= ? AND end_date >= ?", day, day)
	}
	if f.Overlapping != nil {
		q = q.Where("start_date <= ? AND end_date >= ?", f.Overlapping.End, f.Overlapping.Start)
	}

	var rows []*budgetDatamodel.Budget
	if err := q.Order("start_date DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return budget.FromDataModelSlice(rows), nil
}
