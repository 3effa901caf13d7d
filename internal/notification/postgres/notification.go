package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	notificationDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/notification"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"gorm.io/gorm"
)

// NotificationRepository implements notification.RepositoryAPI using GORM.
// The unique dedup_key column makes Create the single point that decides
// whether a deduplicated notification is stored.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.RepositoryAPI {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	row := notification.ToDataModel(n)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.ErrDuplicateNotification.WithCause(err)
		}
		return err
	}
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

func (r *NotificationRepository) ExistsRecent(ctx context.Context, userID, budgetID int64, notificationType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND budget_id = ? AND type = ? AND created_at >= ?", userID, budgetID, notificationType, since).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	var row notificationDatamodel.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrNotificationNotFound
		}
		return nil, err
	}
	return notification.FromDataModel(&row), nil
}

func (r *NotificationRepository) filtered(ctx context.Context, f notification.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).Where("user_id = ?", f.UserID)
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return q
}

func (r *NotificationRepository) List(ctx context.Context, f notification.ListFilter) ([]*notification.Notification, error) {
	q := r.filtered(ctx, f).Order("created_at DESC, id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var rows []*notificationDatamodel.Notification
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return notification.FromDataModelSlice(rows), nil
}

func (r *NotificationRepository) Count(ctx context.Context, f notification.ListFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, f).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).
		Where("id = ?", id).
		Update("is_sent", true).Error
}

func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&notificationDatamodel.Notification{})
	return res.RowsAffected, res.Error
}

// isDuplicateKey covers gorm's translated error as well as the raw driver
// messages of postgres and sqlite.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
