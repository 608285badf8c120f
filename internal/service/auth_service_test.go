package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellerdesk/support-portal/internal/auth"
	"github.com/sellerdesk/support-portal/internal/config"
	"github.com/sellerdesk/support-portal/internal/domain"
)

func newAuthService(t *testing.T) (*AuthService, *fakeUsers) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	users := newFakeUsers(
		&domain.User{ID: agentID, Email: "agent@example.com", PasswordHash: hash, Role: domain.RoleAgent, Active: true},
		&domain.User{ID: viewerID, Email: "viewer@example.com", PasswordHash: hash, Role: domain.RoleViewer, Active: false},
	)
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}
	return NewAuthService(cfg, users), users
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, token, _, err := svc.Login(ctx, "Agent@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, agentID, user.ID)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, agentID, claims.UserID)

	_, _, _, err = svc.Login(ctx, "agent@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	_, _, _, err = svc.Login(ctx, "viewer@example.com", "s3cret-pass")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestChangePassword(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()
	user, err := users.GetByID(ctx, agentID)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user, "wrong", "another-pass")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	err = svc.ChangePassword(ctx, user, "s3cret-pass", "short")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, user, "s3cret-pass", "another-pass"))
	_, _, _, err = svc.Login(ctx, "agent@example.com", "another-pass")
	assert.NoError(t, err)
}

func TestLoginUpgradesOutdatedHashCost(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	users := newFakeUsers(&domain.User{ID: agentID, Email: "agent@example.com", PasswordHash: hash, Role: domain.RoleAgent, Active: true})
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost + 1}}
	svc := NewAuthService(cfg, users)
	ctx := context.Background()

	_, _, _, err = svc.Login(ctx, "agent@example.com", "s3cret-pass")
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, agentID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	_, _, _, err = svc.Login(ctx, "agent@example.com", "s3cret-pass")
	assert.NoError(t, err)
}
