package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/domain"
)

type staticUnit struct{ name string }

func (u staticUnit) Name() string            { return u.name }
func (u staticUnit) Validate() error         { return nil }
func (u staticUnit) Save(*domain.User) error { return nil }

type staticAccountExt struct{ units []FormUnit }

func (e staticAccountExt) AccountUnits(caller, account *domain.User) []FormUnit {
	return e.units
}

func TestRegistry(t *testing.T) {
	caller := &domain.User{ID: "u1", Role: domain.RoleSuperAdmin}

	t.Run("没有钩子时默认放行", func(t *testing.T) {
		r := NewRegistry()
		assert.NoError(t, r.RaiseCanCreate(caller, KindMailboxes))
	})

	t.Run("按注册顺序触发第一个否决即返回", func(t *testing.T) {
		r := NewRegistry()
		var order []string
		boom := errors.New("vetoed")

		r.RegisterCanCreate(func(c *domain.User, k Kind) error {
			order = append(order, "first")
			return nil
		})
		r.RegisterCanCreate(func(c *domain.User, k Kind) error {
			order = append(order, "second")
			return boom
		})
		r.RegisterCanCreate(func(c *domain.User, k Kind) error {
			order = append(order, "third")
			return nil
		})

		err := r.RaiseCanCreate(caller, KindUsers)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("收集扩展单元保持注册顺序", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterAccountExtension(staticAccountExt{units: []FormUnit{staticUnit{"a"}}})
		r.RegisterAccountExtension(staticAccountExt{units: []FormUnit{staticUnit{"b"}, staticUnit{"c"}}})

		units := r.AccountUnits(caller, caller)
		require.Len(t, units, 3)
		assert.Equal(t, "a", units[0].Name())
		assert.Equal(t, "b", units[1].Name())
		assert.Equal(t, "c", units[2].Name())
	})
}
