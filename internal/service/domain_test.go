package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

func TestDomainSave(t *testing.T) {
	t.Run("创建域成功", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		d, err := env.domains.Save(admin, SaveDomainInput{
			Name:    "Example.COM ",
			Quota:   100,
			Enabled: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "example.com", d.Name)
		assert.Equal(t, 100, d.Quota)
		assert.True(t, d.Enabled)
	})

	t.Run("无添加域能力被拒绝", func(t *testing.T) {
		env := newTestEnv(t)
		domAdmin := env.newUser(t, "da@other.org", domain.RoleDomainAdmin)

		_, err := env.domains.Save(domAdmin, SaveDomainInput{Name: "example.com"})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("域名与别名域共用命名空间", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		d := env.createDomain(t, admin, "example.com", 0)
		require.NoError(t, env.aliasSync.SyncDomainAliases(admin, d, []string{"alias.example.com"}))

		// 与现有域重名
		_, err := env.domains.Save(admin, SaveDomainInput{Name: "example.com"})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "name", verrs[0].Field)

		// 与现有别名域重名
		_, err = env.domains.Save(admin, SaveDomainInput{Name: "alias.example.com"})
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("每次保存都传播域配额", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "example.com", 100)
		_, mb := env.createMailbox(t, admin, "user@example.com")
		require.True(t, mb.UseDomainQuota)

		// 手工把台账改掉，模拟漂移
		require.NoError(t, env.store.SaveQuotaRecord(&domain.QuotaRecord{
			Address: "user@example.com",
			Quota:   1,
			Bytes:   2048,
		}))

		// 名字和配额都不变的保存也要把台账拉回域值
		_, err := env.domains.Save(admin, SaveDomainInput{
			ID:      d.ID,
			Name:    d.Name,
			Quota:   d.Quota,
			Enabled: d.Enabled,
		})
		require.NoError(t, err)

		rec, err := env.store.GetQuotaRecord("user@example.com")
		require.NoError(t, err)
		assert.Equal(t, 100, rec.Quota)
		assert.Equal(t, int64(2048), rec.Bytes, "传播不触碰已累计的用量")
	})

	t.Run("自有配额的邮箱不受传播影响", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		env.createDomain(t, admin, "example.com", 100)

		account := env.newUser(t, "vip@example.com", domain.RoleSimpleUser)
		quota := 500
		_, err := env.mailboxes.Save(admin, account, SaveMailboxInput{
			Email: "vip@example.com",
			Quota: &quota,
		})
		require.NoError(t, err)

		d, err := env.store.GetDomainByName("example.com")
		require.NoError(t, err)
		_, err = env.domains.Save(admin, SaveDomainInput{
			ID: d.ID, Name: d.Name, Quota: 50, Enabled: d.Enabled,
		})
		require.NoError(t, err)

		rec, err := env.store.GetQuotaRecord("vip@example.com")
		require.NoError(t, err)
		assert.Equal(t, 500, rec.Quota)
	})
}

func TestDomainRename(t *testing.T) {
	t.Run("改名级联迁移目录并改写台账", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "oldname.com", 100)
		env.createMailbox(t, admin, "alice@oldname.com")
		env.createMailbox(t, admin, "bob@oldname.com")

		// 累计一点用量，改键后必须保留
		rec, err := env.store.GetQuotaRecord("alice@oldname.com")
		require.NoError(t, err)
		rec.Bytes = 4096
		rec.Messages = 7
		require.NoError(t, env.store.SaveQuotaRecord(rec))

		env.mail.Moves = nil
		_, err = env.domains.Save(admin, SaveDomainInput{
			ID:      d.ID,
			Name:    "newname.com",
			Quota:   100,
			Enabled: true,
		})
		require.NoError(t, err)

		// 每个邮箱的主目录各迁移一次
		require.Len(t, env.mail.Moves, 2)
		moved := map[string]string{}
		for _, mv := range env.mail.Moves {
			moved[mv[0]] = mv[1]
		}
		assert.Equal(t, "/var/vmail/newname.com/alice", moved["/var/vmail/oldname.com/alice"])
		assert.Equal(t, "/var/vmail/newname.com/bob", moved["/var/vmail/oldname.com/bob"])

		// 旧键消失，新键保留用量
		_, err = env.store.GetQuotaRecord("alice@oldname.com")
		assert.ErrorIs(t, err, storage.ErrQuotaNotFound)
		rec, err = env.store.GetQuotaRecord("alice@newname.com")
		require.NoError(t, err)
		assert.Equal(t, int64(4096), rec.Bytes)
		assert.Equal(t, 7, rec.Messages)
	})

	t.Run("名字不变不触发级联", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "example.com", 100)
		env.createMailbox(t, admin, "alice@example.com")

		env.mail.Moves = nil
		_, err := env.domains.Save(admin, SaveDomainInput{
			ID: d.ID, Name: "example.com", Quota: 200, Enabled: true,
		})
		require.NoError(t, err)
		assert.Empty(t, env.mail.Moves)
	})
}

func TestDomainAdminTemplate(t *testing.T) {
	t.Run("模板创建账户邮箱和别名", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		d, err := env.domains.Save(admin, SaveDomainInput{
			Name:             "pouet.com",
			Quota:            100,
			Enabled:          true,
			CreateDomAdmin:   true,
			DomAdminUsername: "toto",
			CreateAliases:    true,
		})
		require.NoError(t, err)

		account, err := env.store.GetUserByUsername("toto@pouet.com")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleDomainAdmin, account.Role)
		assert.True(t, account.IsActive)

		mb, err := env.store.GetMailboxByUser(account.ID)
		require.NoError(t, err)
		assert.True(t, mb.UseDomainQuota)

		alias, err := env.store.GetAliasByAddress("postmaster", d.ID)
		require.NoError(t, err)
		require.Len(t, alias.Recipients, 1)
		require.NotNil(t, alias.Recipients[0].MailboxID)
		assert.Equal(t, mb.ID, *alias.Recipients[0].MailboxID)

		ok, err := env.store.IsDomainAdmin(account.ID, d.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("不勾选别名时只建账户和邮箱", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		d, err := env.domains.Save(admin, SaveDomainInput{
			Name:             "pouet.com",
			Enabled:          true,
			CreateDomAdmin:   true,
			DomAdminUsername: "toto",
		})
		require.NoError(t, err)

		_, err = env.store.GetAliasByAddress("postmaster", d.ID)
		assert.ErrorIs(t, err, storage.ErrAliasNotFound)
	})

	t.Run("登录名被占用时整个模板中止", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		env.newUser(t, "toto@pouet.com", domain.RoleSimpleUser)

		d, err := env.domains.Save(admin, SaveDomainInput{
			Name:             "pouet.com",
			Enabled:          true,
			CreateDomAdmin:   true,
			DomAdminUsername: "toto",
			CreateAliases:    true,
		})
		assert.ErrorIs(t, err, ErrUserExists)
		assert.Nil(t, d)

		// 中止在创建任何对象之前
		created, err := env.store.GetDomainByName("pouet.com")
		require.NoError(t, err)
		mailboxes, err := env.store.ListMailboxesByDomain(created.ID)
		require.NoError(t, err)
		assert.Empty(t, mailboxes)
	})

	t.Run("模板用户名含@是字段错误", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)

		_, err := env.domains.Save(admin, SaveDomainInput{
			Name:             "pouet.com",
			CreateDomAdmin:   true,
			DomAdminUsername: "toto@elsewhere.com",
		})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "dom_admin_username", verrs[0].Field)
	})
}

func TestDomainDelete(t *testing.T) {
	t.Run("删除域级联清理从属记录", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "example.com", 100)
		_, mb := env.createMailbox(t, admin, "alice@example.com")
		require.NoError(t, env.aliasSync.SyncDomainAliases(admin, d, []string{"alias.example.com"}))
		require.NoError(t, env.aliasSync.SyncMailboxAliases(admin, mb, []string{"contact@example.com"}, true))

		require.NoError(t, env.domains.Delete(admin, d.ID))

		_, err := env.store.GetDomain(d.ID)
		assert.ErrorIs(t, err, storage.ErrDomainNotFound)
		_, err = env.store.GetDomainAliasByName("alias.example.com")
		assert.ErrorIs(t, err, storage.ErrDomainAliasNotFound)
		_, err = env.store.GetMailboxByUser(mb.UserID)
		assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
		_, err = env.store.GetQuotaRecord("alice@example.com")
		assert.ErrorIs(t, err, storage.ErrQuotaNotFound)
	})

	t.Run("域管理员不能删除非所辖域", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d := env.createDomain(t, admin, "example.com", 0)
		outsider := env.newUser(t, "da@other.org", domain.RoleDomainAdmin)

		err := env.domains.Delete(outsider, d.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestDomainVisibility(t *testing.T) {
	t.Run("域管理员只看到所辖域", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.superAdmin(t)
		d1 := env.createDomain(t, admin, "one.com", 0)
		env.createDomain(t, admin, "two.com", 0)

		domAdmin := env.newUser(t, "da@one.com", domain.RoleDomainAdmin)
		require.NoError(t, env.store.AddDomainAdmin(d1.ID, domAdmin.ID))

		visible, err := env.domains.List(domAdmin)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "one.com", visible[0].Name)

		all, err := env.domains.List(admin)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
