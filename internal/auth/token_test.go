package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/support-portal/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	token, exp, err := tm.GenerateToken("user-1", domain.RoleAgent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleAgent, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 15).GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 15).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}
