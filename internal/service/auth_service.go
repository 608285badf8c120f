package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellerdesk/support-portal/internal/auth"
	"github.com/sellerdesk/support-portal/internal/config"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/repository"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// AuthService coordinates login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("account disabled")
	}
	s.upgradeHash(ctx, user, password)
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "new_password"})
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return apperrors.NotFoundOr(err, "user", nil)
	}
	return nil
}

// upgradeHash re-hashes a verified password stored under an outdated bcrypt
// cost. Failures keep the old hash.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !auth.NeedsRehash(user.PasswordHash, s.bcryptCost) {
		return
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, hash); err == nil {
		user.PasswordHash = hash
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
