package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/domain"
)

func TestPipeline(t *testing.T) {
	caller := &domain.User{ID: "u1", Role: domain.RoleSuperAdmin}

	t.Run("先全量校验后按序落库", func(t *testing.T) {
		var calls []string

		p := NewPipeline()
		p.Add(NewFormUnit("general",
			func() error { calls = append(calls, "validate:general"); return nil },
			func(*domain.User) error { calls = append(calls, "save:general"); return nil },
		))
		p.Add(NewFormUnit("mail",
			func() error { calls = append(calls, "validate:mail"); return nil },
			func(*domain.User) error { calls = append(calls, "save:mail"); return nil },
		))

		require.NoError(t, p.Run(caller))
		assert.Equal(t, []string{
			"validate:general", "validate:mail",
			"save:general", "save:mail",
		}, calls)
	})

	t.Run("任何单元校验失败都不落库", func(t *testing.T) {
		saved := false
		boom := errors.New("validation failed")

		p := NewPipeline()
		p.Add(NewFormUnit("general", nil,
			func(*domain.User) error { saved = true; return nil }))
		p.Add(NewFormUnit("mail",
			func() error { return boom },
			func(*domain.User) error { saved = true; return nil }))

		assert.ErrorIs(t, p.Run(caller), boom)
		assert.False(t, saved)
	})

	t.Run("开关为假的单元整体跳过", func(t *testing.T) {
		var calls []string

		p := NewPipeline()
		p.AddIf(NewFormUnit("perms",
			func() error { calls = append(calls, "validate"); return nil },
			func(*domain.User) error { calls = append(calls, "save"); return nil },
		), func() bool { return false })

		require.NoError(t, p.Run(caller))
		assert.Empty(t, calls)
	})

	t.Run("落库失败中止后续单元", func(t *testing.T) {
		boom := errors.New("save failed")
		var calls []string

		p := NewPipeline()
		p.Add(NewFormUnit("general", nil,
			func(*domain.User) error { calls = append(calls, "general"); return boom }))
		p.Add(NewFormUnit("mail", nil,
			func(*domain.User) error { calls = append(calls, "mail"); return nil }))

		assert.ErrorIs(t, p.Run(caller), boom)
		assert.Equal(t, []string{"general"}, calls)
	})
}
