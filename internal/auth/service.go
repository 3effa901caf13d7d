package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryAPI covers the user credentials and the revoked token table.
// Lookups return nil, nil when nothing matches.
type RepositoryAPI interface {
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	GetCredentialsByID(ctx context.Context, userID int64) (*Credentials, error)
	Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	repo       RepositoryAPI
	tokens     TokenGenerator
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBCryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

func NewService(repo RepositoryAPI, tokens TokenGenerator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate checks the password before the active flag so an inactive
// account is only revealed to someone who knows its password.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, storeError(err)
	}
	if creds == nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	s.logger.Info("user logged in", "user_id", creds.UserID)
	return s.issue(creds.UserID, creds.Email)
}

// RefreshTokens rotates the pair: the presented refresh token is revoked
// and cannot be used twice.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentialsByID(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, storeError(err)
	}
	if creds == nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	if err := s.repo.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAtTime()); err != nil {
		return AuthTokens{}, storeError(err)
	}
	return s.issue(creds.UserID, creds.Email)
}

// Logout revokes the access token and, when given, the refresh token of the
// same user.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := s.repo.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAtTime()); err != nil {
		return storeError(err)
	}

	if refreshToken != "" {
		refresh, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
		if err != nil || refresh.UserID != claims.UserID {
			s.logger.Warn("ignoring refresh token on logout", "user_id", claims.UserID)
			return nil
		}
		if err := s.repo.Revoke(ctx, refresh.ID, refresh.UserID, refresh.ExpiresAtTime()); err != nil {
			return storeError(err)
		}
	}

	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// PurgeRevoked drops revocations of tokens that have expired on their own.
func (s *Service) PurgeRevoked(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) ensureNotRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := s.repo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return storeError(err)
	}
	if revoked {
		return internal.ErrTokenRevoked
	}
	return nil
}

func (s *Service) issue(userID int64, email string) (AuthTokens, error) {
	access, _, err := s.tokens.Generate(userID, email, TokenTypeAccess)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}
	refresh, _, err := s.tokens.Generate(userID, email, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.TTL(TokenTypeAccess).Seconds()),
	}, nil
}

func storeError(err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewDependencyError("user store unavailable", err)
}
