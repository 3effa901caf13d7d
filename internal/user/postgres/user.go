package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/user"
	"github.com/frahmantamala/budget-analytics/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

// UpdateEmailNotifications writes through a map so that false is not
// skipped as a zero value.
func (r *UserRepository) UpdateEmailNotifications(ctx context.Context, id int64, enabled bool) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"email_notifications": enabled}).Error
}
