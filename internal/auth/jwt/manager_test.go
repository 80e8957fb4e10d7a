package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora-backend/internal/auth/jwt"
	"github.com/planora/planora-backend/pkg/config"
	"github.com/planora/planora-backend/pkg/errors"
)

func newManager(accessExpiry time.Duration) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "planora-test",
	})
}

func testUser() *jwt.UserInfo {
	return &jwt.UserInfo{
		ID:          "user-1",
		EmployeeID:  "emp-1",
		Email:       "jane@example.com",
		Role:        "planner",
		Permissions: []string{"planning.*", "slot.*"},
	}
}

func TestManager_TokenRoundTrip(t *testing.T) {
	manager := newManager(15 * time.Minute)

	pair, err := manager.GenerateTokenPair(testUser())
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := manager.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "emp-1", claims.EmployeeID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "planner", claims.Role)
	assert.Equal(t, []string{"planning.*", "slot.*"}, claims.Permissions)

	refreshClaims, err := manager.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
}

func TestManager_VerifyAccessToken(t *testing.T) {
	manager := newManager(15 * time.Minute)

	pair, err := manager.GenerateTokenPair(testUser())
	require.NoError(t, err)

	principal, err := manager.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, "user-1", principal.UserID)
	assert.Equal(t, "emp-1", principal.EmployeeID)
	assert.Equal(t, "planner", principal.Role)
	assert.Equal(t, []string{"planning.*", "slot.*"}, principal.Permissions)
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	manager := newManager(-time.Minute)

	pair, err := manager.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(pair.AccessToken)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	manager := newManager(15 * time.Minute)
	other := jwt.NewManager(&config.JWTConfig{
		Secret:       "different-secret",
		AccessExpiry: 15 * time.Minute,
		Issuer:       "planora-test",
	})

	pair, err := manager.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestManager_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	manager := newManager(15 * time.Minute)

	pair, err := manager.GenerateTokenPair(testUser())
	require.NoError(t, err)

	// A refresh token parses as Claims but carries no role or permissions,
	// so the resulting principal must not grant access.
	claims, err := manager.ValidateAccessToken(pair.RefreshToken)
	if err == nil {
		assert.Empty(t, claims.Role)
		assert.Empty(t, claims.Permissions)
	}
}
