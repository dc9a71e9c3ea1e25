package service

import (
	"errors"

	"github.com/google/uuid"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/storage"
)

// AccountService 负责平台账户的创建、更新与删除（账户表单的"通用"页）
// 以及域管理员身份的对齐（"权限"页）。
type AccountService struct {
	store  storage.Store
	perms  *PermissionService
	quotas *QuotaService
}

// NewAccountService 创建账户服务。
func NewAccountService(store storage.Store, perms *PermissionService, quotas *QuotaService) *AccountService {
	return &AccountService{store: store, perms: perms, quotas: quotas}
}

// SaveAccountInput 定义保存账户所需的提交字段。
type SaveAccountInput struct {
	ID                   string // 为空表示创建
	Username             string
	Role                 domain.Role
	Password             string
	PasswordConfirmation string
	IsActive             bool
}

// Save 创建或更新账户。
//
// 更新已有账户要先过 canManage 判定。调用方只能授予自己角色允许
// 授予的角色：域管理员改自己保持域管理员，改别人一律普通用户，
// 普通用户无权改角色。普通用户的登录名必须是合法邮件地址并统一
// 小写。自我停用在任何字段校验之前就拒绝。
func (s *AccountService) Save(caller *domain.User, input SaveAccountInput) (*domain.User, error) {
	// 自我停用检查优先于一切字段校验
	if input.ID != "" && input.ID == caller.ID && !input.IsActive {
		return nil, ErrSelfDisable
	}

	var current *domain.User
	if input.ID != "" {
		var err error
		current, err = s.store.GetUser(input.ID)
		if err != nil {
			return nil, err
		}
		if err := s.canManage(caller, current); err != nil {
			return nil, err
		}
	}

	role := resolveRole(caller, current, input.Role)
	username, err := resolveUsername(input.Username, role)
	if err != nil {
		return nil, err
	}

	if input.Password != input.PasswordConfirmation {
		var verrs domain.ValidationErrors
		verrs.Add("password2", "the two password fields didn't match")
		return nil, verrs
	}

	if current == nil {
		return s.create(caller, username, role, input)
	}
	return s.update(current, username, role, input)
}

// resolveRole 决定保存后的账户角色，提交值超出调用方可授予范围时
// 被忽略：超级管理员任意指定，域管理员改自己保持域管理员、改别人
// 一律普通用户，其余调用方保持账户现有角色。
func resolveRole(caller, current *domain.User, submitted domain.Role) domain.Role {
	switch caller.Role {
	case domain.RoleSuperAdmin:
		if submitted != "" {
			return submitted
		}
		if current != nil {
			return current.Role
		}
		return domain.RoleSimpleUser
	case domain.RoleDomainAdmin:
		if current != nil && current.ID == caller.ID {
			return domain.RoleDomainAdmin
		}
		return domain.RoleSimpleUser
	default:
		if current != nil {
			return current.Role
		}
		return domain.RoleSimpleUser
	}
}

// resolveUsername 规范化登录名；普通用户的登录名必须是邮件地址。
func resolveUsername(username string, role domain.Role) (string, error) {
	username = normalizeName(username)
	if username == "" {
		var verrs domain.ValidationErrors
		verrs.Add("username", "username is required")
		return "", verrs
	}
	if role == domain.RoleSimpleUser {
		if err := domain.ValidateEmail(username); err != nil {
			var verrs domain.ValidationErrors
			verrs.Add("username", err.Error())
			return "", verrs
		}
	}
	return username, nil
}

func (s *AccountService) create(caller *domain.User, username string, role domain.Role, input SaveAccountInput) (*domain.User, error) {
	if err := s.perms.CanCreate(caller, hook.KindUsers); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByUsername(username); err == nil {
		return nil, ErrUserExists
	}
	if input.Password == "" {
		var verrs domain.ValidationErrors
		verrs.Add("password1", "password is required")
		return nil, verrs
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	account := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     input.IsActive,
	}
	if err := s.store.CreateUser(account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) update(account *domain.User, username string, role domain.Role, input SaveAccountInput) (*domain.User, error) {
	account.Username = username
	account.Role = role
	account.IsActive = input.IsActive
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
	}
	if err := s.store.UpdateUser(account); err != nil {
		return nil, err
	}
	return account, nil
}

// SyncAdminDomains 把账户管理的域集合与提交列表对齐：补登记缺失的，
// 注销不再提交的。提交值是域名，不存在的域按业务错误中止。
func (s *AccountService) SyncAdminDomains(account *domain.User, submitted []string) error {
	seen := make(map[string]bool)
	wanted := make([]*domain.Domain, 0, len(submitted))
	for _, value := range submitted {
		name := normalizeName(value)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		d, err := s.store.GetDomainByName(name)
		if err != nil {
			return ErrDomainNotFound
		}
		wanted = append(wanted, d)
	}

	current, err := s.store.ListAdministratedDomains(account.ID)
	if err != nil {
		return err
	}
	currentByName := make(map[string]bool, len(current))
	for _, d := range current {
		currentByName[d.Name] = true
	}

	for _, d := range wanted {
		if currentByName[d.Name] {
			continue
		}
		if err := s.store.AddDomainAdmin(d.ID, account.ID); err != nil {
			return err
		}
	}
	for _, d := range current {
		if !seen[d.Name] {
			if err := s.store.RemoveDomainAdmin(d.ID, account.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get 根据 ID 获取调用方可见的账户。
func (s *AccountService) Get(caller *domain.User, id string) (*domain.User, error) {
	account, err := s.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(caller, account); err != nil {
		return nil, err
	}
	return account, nil
}

// List 列出调用方可见的账户：超级管理员看到全部，域管理员只看到
// 自己和邮箱落在所辖域内的账户。
func (s *AccountService) List(caller *domain.User) ([]domain.User, error) {
	all, err := s.store.ListUsers()
	if err != nil {
		return nil, err
	}
	if caller.IsSuperAdmin() {
		return all, nil
	}

	visible := make([]domain.User, 0, len(all))
	for i := range all {
		if all[i].ID == caller.ID {
			visible = append(visible, all[i])
			continue
		}
		if err := s.canManage(caller, &all[i]); err == nil {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

// Delete 删除账户及其从属记录：邮箱、配额台账记录、以该邮箱为
// 唯一收件人的简单别名，以及域管理员登记。分发列表不受影响。
// 自我删除无条件拒绝。
func (s *AccountService) Delete(caller *domain.User, id string) error {
	if id == caller.ID {
		return ErrSelfDelete
	}
	account, err := s.store.GetUser(id)
	if err != nil {
		return err
	}
	if err := s.canManage(caller, account); err != nil {
		return err
	}

	mb, err := s.store.GetMailboxByUser(account.ID)
	switch {
	case errors.Is(err, storage.ErrMailboxNotFound):
		// 没有邮箱的账户直接删除
	case err != nil:
		return err
	default:
		aliases, err := s.store.ListAliasesByMailbox(mb.ID)
		if err != nil {
			return err
		}
		for i := range aliases {
			if aliases[i].IsDistributionList() {
				continue
			}
			if err := s.store.DeleteAlias(aliases[i].ID); err != nil {
				return err
			}
		}

		d, err := s.store.GetDomain(mb.DomainID)
		if err != nil {
			return err
		}
		if err := s.quotas.Remove(mb.FullAddress(d.Name)); err != nil {
			return err
		}
		if err := s.store.DeleteMailbox(mb.ID); err != nil {
			return err
		}
	}

	administrated, err := s.store.ListAdministratedDomains(account.ID)
	if err != nil {
		return err
	}
	for _, d := range administrated {
		if err := s.store.RemoveDomainAdmin(d.ID, account.ID); err != nil {
			return err
		}
	}

	return s.store.DeleteUser(account.ID)
}

// canManage 判断调用方是否可以查看/操作目标账户：自己总是可以，
// 超级管理员可以操作任何账户，域管理员只能操作邮箱落在所辖域内的
// 非超级管理员账户。
func (s *AccountService) canManage(caller, account *domain.User) error {
	if caller.ID == account.ID || caller.IsSuperAdmin() {
		return nil
	}
	if caller.Role != domain.RoleDomainAdmin || account.IsSuperAdmin() {
		return ErrPermissionDenied
	}
	mb, err := s.store.GetMailboxByUser(account.ID)
	if err != nil {
		if errors.Is(err, storage.ErrMailboxNotFound) {
			return ErrPermissionDenied
		}
		return err
	}
	return s.perms.CanAccessDomain(caller, mb.DomainID)
}

// Authenticate 校验登录名和密码，成功后返回账户。
func (s *AccountService) Authenticate(username, password string) (*domain.User, error) {
	account, err := s.store.GetUserByUsername(normalizeName(username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrPermissionDenied
	}
	if !auth.CheckPassword(password, account.PasswordHash) {
		return nil, ErrPermissionDenied
	}
	return account, nil
}
