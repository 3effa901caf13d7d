package user

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/go-playground/validator/v10"
)

// Lookups return nil, nil when nothing matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateEmailNotifications(ctx context.Context, id int64, enabled bool) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo     Repository
	hasher   PasswordHasher
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) NotificationSettings(ctx context.Context, userID int64) (*NotificationSettings, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationSettings{EmailNotifications: u.EmailNotifications}, nil
}

func (s *Service) UpdateNotificationSettings(ctx context.Context, userID int64, dto UpdateNotificationSettingsDTO) (*NotificationSettings, error) {
	if dto.EmailNotifications == nil {
		return nil, internal.NewValidationFieldError("email_notifications", "email_notifications is required", internal.ErrCodeValidationFailed)
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEmailNotifications(ctx, userID, *dto.EmailNotifications); err != nil {
		s.logger.Error("failed to update notification settings", "error", err, "user_id", userID)
		return nil, storeError(err)
	}
	return &NotificationSettings{EmailNotifications: *dto.EmailNotifications}, nil
}

// Ensure returns the user with the given email, creating it when missing.
// The bool reports whether it was created.
func (s *Service) Ensure(ctx context.Context, dto CreateUserDTO) (*User, bool, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := s.validate.Struct(dto); err != nil {
		var field string
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			field = strings.ToLower(fieldErrs[0].Field())
		}
		return nil, false, internal.NewValidationFieldError(field, err.Error(), internal.ErrCodeValidationFailed)
	}

	existing, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, false, storeError(err)
	}
	if existing != nil {
		return existing, false, nil
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to hash password", err)
	}
	u := &User{
		Email:              dto.Email,
		Name:               dto.Name,
		PasswordHash:       hash,
		IsActive:           true,
		EmailNotifications: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, false, storeError(err)
	}
	s.logger.Info("user created", "user_id", u.ID)
	return u, true, nil
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("user store unavailable", err)
}
