package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	t.Run("哈希后可校验", func(t *testing.T) {
		hash, err := HashPassword("s3cret-pass")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-pass", hash)
		assert.True(t, CheckPassword("s3cret-pass", hash))
		assert.False(t, CheckPassword("wrong", hash))
	})

	t.Run("相同密码的哈希不同", func(t *testing.T) {
		h1, err := HashPassword("s3cret-pass")
		require.NoError(t, err)
		h2, err := HashPassword("s3cret-pass")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
	assert.NoError(t, ValidatePassword("long-enough-password"))
}
