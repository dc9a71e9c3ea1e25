package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddress(t *testing.T) {
	t.Run("拆分并统一小写", func(t *testing.T) {
		local, dom, err := SplitAddress(" Alice@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "alice", local)
		assert.Equal(t, "example.com", dom)
	})

	t.Run("以最后一个@为界", func(t *testing.T) {
		local, dom, err := SplitAddress(`"weird@name"@example.com`)
		require.NoError(t, err)
		assert.Equal(t, `"weird@name"`, local)
		assert.Equal(t, "example.com", dom)
	})

	t.Run("非法地址", func(t *testing.T) {
		for _, addr := range []string{"", "no-at-sign", "@example.com", "alice@"} {
			_, _, err := SplitAddress(addr)
			assert.ErrorIs(t, err, ErrInvalidEmail, addr)
		}
	})
}

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"alice@example.com",
		"a@example.com",
		"first.last@sub.example.co.uk",
		"user_name-1@example.com",
	}
	for _, addr := range valid {
		assert.NoError(t, ValidateEmail(addr), addr)
	}

	invalid := []string{
		"alice@localhost",       // 域名至少两段
		".alice@example.com",    // 本地部分不能以点开头
		"alice.@example.com",    // 也不能以点结尾
		"alice@-bad.com",        // 域名段不能以连字符开头
		"*@example.com",         // 普通地址不接受 catchall
		strings.Repeat("x", 250) + "@example.com",
	}
	for _, addr := range invalid {
		assert.Error(t, ValidateEmail(addr), addr)
	}
}

func TestValidateAliasAddress(t *testing.T) {
	t.Run("catchall通配符合法", func(t *testing.T) {
		assert.NoError(t, ValidateAliasAddress("*@example.com"))
	})

	t.Run("通配符只对别名开放", func(t *testing.T) {
		assert.ErrorIs(t, ValidateLocalPart("*", false), ErrInvalidLocalPart)
		assert.NoError(t, ValidateLocalPart("*", true))
	})
}

func TestValidateDomainName(t *testing.T) {
	assert.NoError(t, ValidateDomainName("example.com"))
	assert.NoError(t, ValidateDomainName("sub.example-site.co.uk"))
	assert.ErrorIs(t, ValidateDomainName(""), ErrInvalidDomain)
	assert.ErrorIs(t, ValidateDomainName("nodot"), ErrInvalidDomain)
	assert.ErrorIs(t, ValidateDomainName("-bad.com"), ErrInvalidDomain)
	assert.ErrorIs(t, ValidateDomainName(strings.Repeat("a", 254)+".com"), ErrDomainTooLong)
}

func TestValidationErrors(t *testing.T) {
	var verrs ValidationErrors
	assert.False(t, verrs.HasErrors())
	assert.NoError(t, verrs.OrNil())

	verrs.Add("name", "is required")
	verrs.Add("quota", "must be positive")
	assert.True(t, verrs.HasErrors())
	assert.Error(t, verrs.OrNil())
	assert.Equal(t, "name: is required; quota: must be positive", verrs.Error())
}
