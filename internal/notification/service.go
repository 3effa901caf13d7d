package notification

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
)

// RepositoryAPI is the notification sink. Create returns
// internal.ErrDuplicateNotification when the dedup key is already taken.
type RepositoryAPI interface {
	Create(ctx context.Context, n *Notification) error
	ExistsRecent(ctx context.Context, userID, budgetID int64, notificationType string, since time.Time) (bool, error)
	GetByID(ctx context.Context, id int64) (*Notification, error)
	List(ctx context.Context, filter ListFilter) ([]*Notification, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	MarkSent(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Dispatcher pushes a stored notification to real-time delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *Notification) error
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, *Notification) error { return nil }

type Service struct {
	repo       RepositoryAPI
	dispatcher Dispatcher
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

func NewService(repo RepositoryAPI, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		dispatcher: noopDispatcher{},
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores n and hands it to the dispatcher. A duplicate is returned as
// internal.ErrDuplicateNotification. A dispatch failure is only logged.
func (s *Service) Create(ctx context.Context, n *Notification) (*Notification, error) {
	if !slices.Contains(Priorities, n.Priority) {
		n.Priority = PriorityMedium
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, internal.ErrDuplicateNotification) {
			s.logger.Debug("duplicate notification suppressed", "user_id", n.UserID, "type", n.Type)
			return nil, err
		}
		s.logger.Error("failed to create notification", "error", err, "user_id", n.UserID, "type", n.Type)
		return nil, storeError(err)
	}

	s.logger.Info("notification created",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"priority", n.Priority)

	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.Warn("failed to dispatch notification", "error", err, "notification_id", n.ID)
	}
	return n, nil
}

// Deliver handles one message taken off the delivery queue. Messages for
// notifications that no longer exist are dropped.
func (s *Service) Deliver(ctx context.Context, msg Message) error {
	n, err := s.repo.GetByID(ctx, msg.NotificationID)
	if err != nil {
		if errors.Is(err, internal.ErrNotificationNotFound) {
			s.logger.Warn("dropping delivery for missing notification", "notification_id", msg.NotificationID)
			return nil
		}
		return storeError(err)
	}
	if n.IsSent {
		return nil
	}
	if n.IsExpired(s.now().UTC()) {
		s.logger.Info("skipping expired notification", "notification_id", n.ID)
		return nil
	}

	s.logger.Info("notification delivered",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"title", n.Title)

	if err := s.repo.MarkSent(ctx, n.ID); err != nil {
		s.logger.Error("failed to mark notification sent", "error", err, "notification_id", n.ID)
		return storeError(err)
	}
	return nil
}

// ExistsRecent reports whether a notification of the given type referencing
// budgetID was created for userID within the last window.
func (s *Service) ExistsRecent(ctx context.Context, userID, budgetID int64, notificationType string, within time.Duration) (bool, error) {
	since := s.now().UTC().Add(-within)
	exists, err := s.repo.ExistsRecent(ctx, userID, budgetID, notificationType, since)
	if err != nil {
		s.logger.Error("failed to look up recent notification", "error", err, "user_id", userID, "budget_id", budgetID)
		return false, storeError(err)
	}
	return exists, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count notifications", "error", err, "user_id", filter.UserID)
		return nil, storeError(err)
	}
	unread, err := s.repo.Count(ctx, ListFilter{UserID: filter.UserID, UnreadOnly: true})
	if err != nil {
		s.logger.Error("failed to count unread notifications", "error", err, "user_id", filter.UserID)
		return nil, storeError(err)
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "user_id", filter.UserID)
		return nil, storeError(err)
	}

	return &ListResponse{
		Notifications: s.views(rows),
		Pagination: Pagination{
			TotalCount:  total,
			UnreadCount: unread,
			Limit:       filter.Limit,
			Offset:      filter.Offset,
			HasMore:     int64(filter.Offset+len(rows)) < total,
		},
	}, nil
}

func (s *Service) ListUnread(ctx context.Context, userID int64) ([]NotificationView, error) {
	rows, err := s.repo.List(ctx, ListFilter{UserID: userID, UnreadOnly: true})
	if err != nil {
		s.logger.Error("failed to list unread notifications", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return s.views(rows), nil
}

// MarkRead hides notifications of other users behind the not-found error.
// Marking an already read notification keeps its original read time.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) (*NotificationView, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrNotificationNotFound) {
			return nil, internal.ErrNotificationNotFound
		}
		s.logger.Error("failed to load notification", "error", err, "notification_id", id)
		return nil, storeError(err)
	}
	if n.UserID != userID {
		return nil, internal.ErrNotificationNotFound
	}

	if !n.IsRead {
		at := s.now().UTC()
		if err := s.repo.MarkRead(ctx, id, at); err != nil {
			s.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
			return nil, storeError(err)
		}
		n.IsRead = true
		n.ReadAt = &at
	}

	view := NewNotificationView(n, s.now().UTC())
	return &view, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to mark all notifications read", "error", err, "user_id", userID)
		return 0, storeError(err)
	}
	s.logger.Info("notifications marked read", "user_id", userID, "count", count)
	return count, nil
}

// DeleteExpired removes notifications whose expiry has passed.
func (s *Service) DeleteExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to delete expired notifications", "error", err)
		return 0, storeError(err)
	}
	s.logger.Info("expired notifications deleted", "count", count)
	return count, nil
}

func (s *Service) views(rows []*Notification) []NotificationView {
	now := s.now().UTC()
	views := make([]NotificationView, 0, len(rows))
	for _, n := range rows {
		views = append(views, NewNotificationView(n, now))
	}
	return views
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("notification store unavailable", err)
}
