package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

func TestAccountSave(t *testing.T) {
	t.Run("创建账户成功", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		account, err := env.accounts.Save(admin, SaveAccountInput{
			Username:             "Alice@Example.COM",
			Role:                 domain.RoleSimpleUser,
			Password:             "s3cret-pass",
			PasswordConfirmation: "s3cret-pass",
			IsActive:             true,
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", account.Username)
		assert.Equal(t, domain.RoleSimpleUser, account.Role)

		ok, err := env.accounts.Authenticate("alice@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, account.ID, ok.ID)
	})

	t.Run("两次密码不一致是字段错误", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		_, err := env.accounts.Save(admin, SaveAccountInput{
			Username:             "alice@example.com",
			Password:             "s3cret-pass",
			PasswordConfirmation: "different",
		})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "password2", verrs[0].Field)
	})

	t.Run("普通用户登录名必须是邮件地址", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		_, err := env.accounts.Save(admin, SaveAccountInput{
			Username:             "not-an-email",
			Role:                 domain.RoleSimpleUser,
			Password:             "s3cret-pass",
			PasswordConfirmation: "s3cret-pass",
		})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "username", verrs[0].Field)
	})

	t.Run("登录名被占用拒绝创建", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		env.newUser(t, "alice@example.com", domain.RoleSimpleUser)

		_, err := env.accounts.Save(admin, SaveAccountInput{
			Username:             "alice@example.com",
			Password:             "s3cret-pass",
			PasswordConfirmation: "s3cret-pass",
		})
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("自我停用在任何校验之前拒绝", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		// 用户名非法 + 密码不一致也轮不到字段校验
		_, err := env.accounts.Save(admin, SaveAccountInput{
			ID:                   admin.ID,
			Username:             "",
			Password:             "a",
			PasswordConfirmation: "b",
			IsActive:             false,
		})
		assert.ErrorIs(t, err, ErrSelfDisable)
	})

	t.Run("域管理员改别人一律降为普通用户", func(t *testing.T) {
		env := newTestEnv(t)
		domAdmin := env.newUser(t, "da@example.com", domain.RoleDomainAdmin)

		account, err := env.accounts.Save(domAdmin, SaveAccountInput{
			Username:             "bob@example.com",
			Role:                 domain.RoleSuperAdmin, // 提交值被忽略
			Password:             "s3cret-pass",
			PasswordConfirmation: "s3cret-pass",
			IsActive:             true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSimpleUser, account.Role)
	})

	t.Run("域管理员改自己保持角色", func(t *testing.T) {
		env := newTestEnv(t)
		domAdmin := env.newUser(t, "da@example.com", domain.RoleDomainAdmin)

		account, err := env.accounts.Save(domAdmin, SaveAccountInput{
			ID:       domAdmin.ID,
			Username: "da@example.com",
			Role:     domain.RoleSimpleUser, // 提交值被忽略
			IsActive: true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleDomainAdmin, account.Role)
	})

	t.Run("普通用户不能提升自己的角色", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.newUser(t, "alice@example.com", domain.RoleSimpleUser)

		account, err := env.accounts.Save(user, SaveAccountInput{
			ID:       user.ID,
			Username: "alice@example.com",
			Role:     domain.RoleSuperAdmin, // 提交值被忽略
			IsActive: true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSimpleUser, account.Role)

		stored, err := env.store.GetUser(user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSimpleUser, stored.Role)
	})

	t.Run("更新他人账户需要管理权限", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.newUser(t, "alice@example.com", domain.RoleSimpleUser)
		other := env.newUser(t, "bob@example.com", domain.RoleSimpleUser)

		_, err := env.accounts.Save(user, SaveAccountInput{
			ID:                   other.ID,
			Username:             "bob@example.com",
			Password:             "hijacked-pass",
			PasswordConfirmation: "hijacked-pass",
			IsActive:             true,
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)

		// 密码未被改掉
		_, err = env.accounts.Authenticate("bob@example.com", "s3cret-pass")
		assert.NoError(t, err)
	})

	t.Run("域管理员不能更新辖域外的账户", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		env.createDomain(t, admin, "one.com", 0)
		account, _ := env.createMailbox(t, admin, "alice@one.com")
		outsider := env.newUser(t, "da@other.org", domain.RoleDomainAdmin)

		_, err := env.accounts.Save(outsider, SaveAccountInput{
			ID:       account.ID,
			Username: "alice@one.com",
			IsActive: true,
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("更新不提交密码时保留原哈希", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		user := env.newUser(t, "alice@example.com", domain.RoleSimpleUser)

		_, err := env.accounts.Save(admin, SaveAccountInput{
			ID:       user.ID,
			Username: "alice@example.com",
			Role:     domain.RoleSimpleUser,
			IsActive: true,
		})
		require.NoError(t, err)

		_, err = env.accounts.Authenticate("alice@example.com", "s3cret-pass")
		assert.NoError(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("停用账户拒绝登录", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.newUser(t, "alice@example.com", domain.RoleSimpleUser)
		user.IsActive = false
		require.NoError(t, env.store.UpdateUser(user))

		_, err := env.accounts.Authenticate("alice@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("密码错误与账户不存在同样返回", func(t *testing.T) {
		env := newTestEnv(t)
		env.newUser(t, "alice@example.com", domain.RoleSimpleUser)

		_, err := env.accounts.Authenticate("alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		_, err = env.accounts.Authenticate("nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestSyncAdminDomains(t *testing.T) {
	t.Run("按提交列表对齐域管理员关系", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d1 := env.createDomain(t, admin, "one.com", 0)
		d2 := env.createDomain(t, admin, "two.com", 0)
		domAdmin := env.newUser(t, "da@one.com", domain.RoleDomainAdmin)
		require.NoError(t, env.store.AddDomainAdmin(d1.ID, domAdmin.ID))

		// one.com 撤销，two.com 登记
		require.NoError(t, env.accounts.SyncAdminDomains(domAdmin, []string{"two.com", "TWO.com"}))

		ok, err := env.store.IsDomainAdmin(domAdmin.ID, d1.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = env.store.IsDomainAdmin(domAdmin.ID, d2.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("不存在的域中止整次同步", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d1 := env.createDomain(t, admin, "one.com", 0)
		domAdmin := env.newUser(t, "da@one.com", domain.RoleDomainAdmin)
		require.NoError(t, env.store.AddDomainAdmin(d1.ID, domAdmin.ID))

		err := env.accounts.SyncAdminDomains(domAdmin, []string{"nowhere.com"})
		assert.ErrorIs(t, err, ErrDomainNotFound)

		// 现有关系未被动过
		ok, err := env.store.IsDomainAdmin(domAdmin.ID, d1.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAccountDelete(t *testing.T) {
	t.Run("删除账户级联清理邮箱和别名", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "example.com", 100)
		account, mb := env.createMailbox(t, admin, "alice@example.com")
		require.NoError(t, env.aliasSync.SyncMailboxAliases(admin, mb, []string{"contact@example.com"}, true))

		require.NoError(t, env.accounts.Delete(admin, account.ID))

		_, err := env.store.GetUser(account.ID)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
		_, err = env.store.GetMailbox(mb.ID)
		assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
		_, err = env.store.GetQuotaRecord("alice@example.com")
		assert.ErrorIs(t, err, storage.ErrQuotaNotFound)
		_, err = env.store.GetAliasByAddress("contact", d.ID)
		assert.ErrorIs(t, err, storage.ErrAliasNotFound)
	})

	t.Run("分发列表在账户删除后保留", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "example.com", 0)
		account, mb1 := env.createMailbox(t, admin, "alice@example.com")
		_, mb2 := env.createMailbox(t, admin, "bob@example.com")

		id1, id2 := mb1.ID, mb2.ID
		list := &domain.Alias{
			ID: "list-1", LocalPart: "team", DomainID: d.ID, Enabled: true,
			Recipients: []domain.AliasRecipient{
				{ID: "r1", AliasID: "list-1", MailboxID: &id1},
				{ID: "r2", AliasID: "list-1", MailboxID: &id2},
			},
		}
		require.NoError(t, env.store.CreateAlias(list))

		require.NoError(t, env.accounts.Delete(admin, account.ID))

		_, err := env.store.GetAlias("list-1")
		assert.NoError(t, err)
	})

	t.Run("自我删除无条件拒绝", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		err := env.accounts.Delete(admin, admin.ID)
		assert.ErrorIs(t, err, ErrSelfDelete)
	})

	t.Run("域管理员只能删除所辖域内的账户", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		env.createDomain(t, admin, "one.com", 0)
		account, _ := env.createMailbox(t, admin, "alice@one.com")
		outsider := env.newUser(t, "da@other.org", domain.RoleDomainAdmin)

		err := env.accounts.Delete(outsider, account.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestAccountList(t *testing.T) {
	t.Run("域管理员只看到所辖域的账户", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d1 := env.createDomain(t, admin, "one.com", 0)
		env.createDomain(t, admin, "two.com", 0)
		env.createMailbox(t, admin, "alice@one.com")
		env.createMailbox(t, admin, "bob@two.com")

		domAdmin := env.newUser(t, "da@one.com", domain.RoleDomainAdmin)
		require.NoError(t, env.store.AddDomainAdmin(d1.ID, domAdmin.ID))

		visible, err := env.accounts.List(domAdmin)
		require.NoError(t, err)
		names := make([]string, 0, len(visible))
		for _, u := range visible {
			names = append(names, u.Username)
		}
		assert.ElementsMatch(t, []string{"alice@one.com", "da@one.com"}, names)
	})

	t.Run("超级管理员看到全部账户", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		env.newUser(t, "alice@example.com", domain.RoleSimpleUser)
		env.newUser(t, "bob@example.com", domain.RoleSimpleUser)

		all, err := env.accounts.List(admin)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}
