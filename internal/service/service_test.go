package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/config"
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/maildir"
	"mailadmin/backend/internal/storage/memory"
)

// testEnv 组装一套基于内存存储的完整服务栈。
type testEnv struct {
	store     *memory.Store
	mail      *maildir.Recorder
	hooks     *hook.Registry
	perms     *PermissionService
	quotas    *QuotaService
	aliasSync *AliasSyncService
	domains   *DomainService
	mailboxes *MailboxService
	accounts  *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	mail := maildir.NewRecorder("/var/vmail")
	hooks := hook.NewRegistry()
	perms := NewPermissionService(store, hooks)
	quotas := NewQuotaService(store)
	aliasSync := NewAliasSyncService(store, perms)
	cfg := &config.Config{
		Provision: config.ProvisionConfig{
			MailRoot:             "/var/vmail",
			DefaultAdminPassword: "password",
			EnableMailDir:        true,
		},
	}

	return &testEnv{
		store:     store,
		mail:      mail,
		hooks:     hooks,
		perms:     perms,
		quotas:    quotas,
		aliasSync: aliasSync,
		domains:   NewDomainService(store, quotas, aliasSync, perms, mail, cfg),
		mailboxes: NewMailboxService(store, quotas, aliasSync, perms, mail),
		accounts:  NewAccountService(store, perms, quotas),
	}
}

// newUser 创建并保存一个指定角色的账户。
func (e *testEnv) newUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.store.CreateUser(user))
	return user
}

func (e *testEnv) superAdmin(t *testing.T) *domain.User {
	t.Helper()
	return e.newUser(t, "admin", domain.RoleSuperAdmin)
}

// createDomain 以超级管理员身份创建一个域。
func (e *testEnv) createDomain(t *testing.T, caller *domain.User, name string, quota int) *domain.Domain {
	t.Helper()

	d, err := e.domains.Save(caller, SaveDomainInput{
		Name:    name,
		Quota:   quota,
		Enabled: true,
	})
	require.NoError(t, err)
	return d
}

// createMailbox 为新账户在指定地址开通邮箱，返回账户和邮箱。
func (e *testEnv) createMailbox(t *testing.T, caller *domain.User, email string) (*domain.User, *domain.Mailbox) {
	t.Helper()

	account := e.newUser(t, email, domain.RoleSimpleUser)
	mb, err := e.mailboxes.Save(caller, account, SaveMailboxInput{
		Email:    email,
		QuotaAct: true,
	})
	require.NoError(t, err)
	require.NotNil(t, mb)
	return account, mb
}
