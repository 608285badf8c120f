package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/access"
	"github.com/sellerdesk/support-portal/internal/auth"
	"github.com/sellerdesk/support-portal/internal/config"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/org"
	"github.com/sellerdesk/support-portal/internal/repository"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// UserService manages portal users and the manager hierarchy.
type UserService struct {
	users      repository.UserRepository
	evaluator  *access.Evaluator
	bcryptCost int
	logger     *zap.Logger
}

// UserCreateInput describes an admin-created account.
type UserCreateInput struct {
	Email         string
	Name          string
	Password      string
	Role          domain.Role
	Department    string
	SubDepartment string
	ManagerID     *string
	SlackUserID   string
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, users repository.UserRepository, evaluator *access.Evaluator, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, evaluator: evaluator, bcryptCost: cfg.Auth.BcryptCost, logger: logger}
}

// List returns users matching filter.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// Create registers a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("valid email is required", map[string]any{"field": "email"})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	manager := trimmedOrNil(input.ManagerID)
	if manager != nil {
		if _, err := s.Get(ctx, *manager); err != nil {
			return nil, err
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Email:         email,
		Name:          strings.TrimSpace(input.Name),
		PasswordHash:  hash,
		Role:          input.Role,
		Department:    strings.TrimSpace(input.Department),
		SubDepartment: strings.TrimSpace(input.SubDepartment),
		ManagerID:     manager,
		SlackUserID:   strings.TrimSpace(input.SlackUserID),
		Active:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// SetManager links userID to managerID, or clears the link when managerID
// is nil. Links that would close a loop are rejected.
func (s *UserService) SetManager(ctx context.Context, userID string, managerID *string) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	manager := trimmedOrNil(managerID)
	if manager != nil {
		if _, err := s.Get(ctx, *manager); err != nil {
			return nil, err
		}
		pairs, err := s.users.ManagerPairs(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		switch err := org.NewTree(pairs).ValidateManager(user.ID, *manager); {
		case errors.Is(err, org.ErrSelfManager):
			return nil, apperrors.WrapValidation(err, map[string]any{"user_id": userID})
		case errors.Is(err, org.ErrManagerCycle):
			return nil, apperrors.WrapConflict(err, map[string]any{"user_id": userID, "manager_id": *manager})
		}
	}
	if err := s.users.SetManager(ctx, user.ID, manager); err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": userID})
	}
	user.ManagerID = manager
	return user, nil
}

// SetPermissions replaces the user's custom permissions. A non-empty list
// overrides the role's permissions entirely; an empty list restores them.
func (s *UserService) SetPermissions(ctx context.Context, userID string, permissions []string) (*domain.User, error) {
	cleaned := make([]string, 0, len(permissions))
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(cleaned, p) {
			continue
		}
		if !access.KnownPermission(p) {
			return nil, apperrors.NewValidationError("unknown permission", map[string]any{"permission": p})
		}
		cleaned = append(cleaned, p)
	}
	if err := s.users.SetCustomPermissions(ctx, userID, cleaned); err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": userID})
	}
	return s.Get(ctx, userID)
}

// Deactivate disables a user. Users cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, userID string) error {
	if actor != nil && actor.ID == userID {
		return apperrors.NewValidationError("cannot deactivate yourself", nil)
	}
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return apperrors.NotFoundOr(err, "user", map[string]any{"user_id": userID})
	}
	s.logger.Info("user deactivated", zap.String("user_id", userID))
	return nil
}

// Permissions returns the effective permission list for user.
func (s *UserService) Permissions(user *domain.User) []string {
	return s.evaluator.Permissions(user)
}

// ManagerCycles reports existing loops in the manager hierarchy.
func (s *UserService) ManagerCycles(ctx context.Context) ([][]string, error) {
	pairs, err := s.users.ManagerPairs(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return org.NewTree(pairs).Cycles(), nil
}
