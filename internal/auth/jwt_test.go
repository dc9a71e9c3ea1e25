package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/auth/jwt"
	"mailadmin/backend/internal/config"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:        "test-secret-key-at-least-32-characters!",
		Issuer:        "mailadmin-test",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}
}

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	t.Run("生成并验证令牌对", func(t *testing.T) {
		tokens, err := manager.GenerateTokens("user-1", "admin@example.com", "super_admin")
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, "Bearer", tokens.TokenType)
		assert.Equal(t, int64(900), tokens.ExpiresIn)

		claims, err := manager.ValidateToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "admin@example.com", claims.Username)
		assert.Equal(t, "super_admin", claims.Role)
	})

	t.Run("刷新令牌生成新令牌对", func(t *testing.T) {
		tokens, err := manager.GenerateTokens("user-1", "admin@example.com", "super_admin")
		require.NoError(t, err)

		refreshed, err := manager.RefreshToken(tokens.RefreshToken)
		require.NoError(t, err)
		claims, err := manager.ValidateToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("伪造令牌被拒绝", func(t *testing.T) {
		_, err := manager.ValidateToken("not-a-token")
		assert.Error(t, err)

		other := jwt.NewManager("another-secret-also-32-characters-xx", "other", time.Minute, time.Hour)
		pair, err := other.GenerateTokenPair("user-1", "x", "simple_user")
		require.NoError(t, err)
		_, err = manager.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("过期令牌被拒绝", func(t *testing.T) {
		expired := jwt.NewManager("test-secret-key-at-least-32-characters!", "mailadmin-test",
			-time.Minute, -time.Minute)
		pair, err := expired.GenerateTokenPair("user-1", "x", "simple_user")
		require.NoError(t, err)

		_, err = manager.Manager().ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})
}
