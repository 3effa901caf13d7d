package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/auth"
	userDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	return r.credentials(ctx, "email = ?", email)
}

func (r *Repository) GetCredentialsByID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	return r.credentials(ctx, "id = ?", userID)
}

func (r *Repository) credentials(ctx context.Context, query string, arg interface{}) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.Credentials{
		UserID:       u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}, nil
}

// Revoke is idempotent.
func (r *Repository) Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	row := &userDatamodel.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt.UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *Repository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.RevokedToken{}).Where("jti = ?", jti).Count(&n).Error
	return n > 0, err
}

func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&userDatamodel.RevokedToken{})
	return res.RowsAffected, res.Error
}
