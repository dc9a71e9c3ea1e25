package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/config"
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/maildir"
	"mailadmin/backend/internal/storage"
)

var (
	// ErrDomainNotFound 目标域不存在
	ErrDomainNotFound = errors.New("domain does not exist")
	// ErrUserExists 登录名已被占用
	ErrUserExists = errors.New("user already exists")
)

// postmasterLocalPart 标准别名模板创建的别名本地部分。
const postmasterLocalPart = "postmaster"

// DomainService 负责邮件域的创建、改名、删除及其级联维护：
// 别名域同步、配额台账改键、邮件主目录迁移、域管理员模板。
type DomainService struct {
	store   storage.Store
	quotas  *QuotaService
	aliases *AliasSyncService
	perms   *PermissionService
	mail    maildir.Storage
	cfg     *config.Config
}

// NewDomainService 创建域服务。
func NewDomainService(store storage.Store, quotas *QuotaService, aliases *AliasSyncService, perms *PermissionService, mail maildir.Storage, cfg *config.Config) *DomainService {
	return &DomainService{
		store:   store,
		quotas:  quotas,
		aliases: aliases,
		perms:   perms,
		mail:    mail,
		cfg:     cfg,
	}
}

// SaveDomainInput 定义保存邮件域所需的提交字段。
// ID 为空表示创建。Aliases 来自动态编号的别名域输入框。
type SaveDomainInput struct {
	ID      string
	Name    string
	Quota   int // MB，0 表示不限制
	Enabled bool
	Aliases []string

	// 域管理员模板（仅创建时生效）
	CreateDomAdmin   bool
	DomAdminUsername string
	CreateAliases    bool
}

// Save 创建或更新邮件域。
//
// 域名与别名域共用一个命名空间，冲突按字段校验错误返回。改名时
// 先在旧名下采集每个邮箱的邮件主目录，持久化新名后迁移目录，
// 再整批改写配额台账的主键。凡是 use_domain_quota 的邮箱，每次
// 保存都无条件把域配额传播到台账。这一串级联没有事务包裹，
// 中途失败会留下部分更新的状态。
func (s *DomainService) Save(caller *domain.User, input SaveDomainInput) (*domain.Domain, error) {
	name := normalizeName(input.Name)
	if err := s.validateName(name, input.ID); err != nil {
		return nil, err
	}

	var d *domain.Domain
	if input.ID == "" {
		if !caller.Can(domain.CapAddDomain) {
			return nil, ErrPermissionDenied
		}
		d = &domain.Domain{
			ID:      uuid.NewString(),
			Name:    name,
			Quota:   input.Quota,
			Enabled: input.Enabled,
		}
		if err := s.store.CreateDomain(d); err != nil {
			return nil, err
		}
	} else {
		prior, err := s.store.GetDomain(input.ID)
		if err != nil {
			return nil, ErrDomainNotFound
		}
		if !caller.Can(domain.CapChangeDomain) {
			return nil, ErrPermissionDenied
		}
		if err := s.perms.CanAccessDomain(caller, prior.ID); err != nil {
			return nil, err
		}

		oldName := prior.Name
		renamed := oldName != name

		// 改名前在旧域名下采集所有邮箱的邮件主目录
		var mailboxes []domain.Mailbox
		oldHomes := make(map[string]string)
		if renamed {
			mailboxes, err = s.store.ListMailboxesByDomain(prior.ID)
			if err != nil {
				return nil, err
			}
			for _, mb := range mailboxes {
				oldHomes[mb.ID] = s.mail.HomePath(oldName, mb.LocalPart)
			}
		}

		d = prior
		d.Name = name
		d.Quota = input.Quota
		d.Enabled = input.Enabled
		if err := s.store.UpdateDomain(d); err != nil {
			return nil, err
		}

		if renamed {
			for _, mb := range mailboxes {
				newHome := s.mail.HomePath(d.Name, mb.LocalPart)
				if err := s.mail.Rename(oldHomes[mb.ID], newHome); err != nil {
					return nil, err
				}
			}
			if err := s.quotas.ReKeyDomain(oldName, d.Name); err != nil {
				return nil, err
			}
		}
	}

	// 域配额传播：每次保存都执行，不只在配额变化时
	if err := s.propagateQuota(d); err != nil {
		return nil, err
	}

	if err := s.aliases.SyncDomainAliases(caller, d, input.Aliases); err != nil {
		return nil, err
	}

	if input.ID == "" && input.CreateDomAdmin {
		if err := s.instantiateAdminTemplate(caller, d, input.DomAdminUsername, input.CreateAliases); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// validateName 校验域名格式及其在共享命名空间（域 + 别名域）中的唯一性。
func (s *DomainService) validateName(name, selfID string) error {
	var verrs domain.ValidationErrors
	if err := domain.ValidateDomainName(name); err != nil {
		verrs.Add("name", err.Error())
		return verrs
	}
	if existing, err := s.store.GetDomainByName(name); err == nil && existing.ID != selfID {
		verrs.Add("name", "a domain with this name already exists")
	}
	if _, err := s.store.GetDomainAliasByName(name); err == nil {
		verrs.Add("name", "an alias with this name already exists")
	}
	return verrs.OrNil()
}

// propagateQuota 把域配额写入所有继承域配额的邮箱的台账记录。
func (s *DomainService) propagateQuota(d *domain.Domain) error {
	mailboxes, err := s.store.ListMailboxesByDomain(d.ID)
	if err != nil {
		return err
	}
	for i := range mailboxes {
		mb := &mailboxes[i]
		if !mb.UseDomainQuota {
			continue
		}
		if err := s.quotas.Ensure(mb.FullAddress(d.Name), d.Quota); err != nil {
			return err
		}
	}
	return nil
}

// instantiateAdminTemplate 按模板为新域创建管理员：账户（域管理员
// 角色）+ 邮箱（继承域配额）+ 可选的 postmaster 别名（唯一收件人是
// 该邮箱），最后把账户登记为域管理员。登录名被占用时在创建任何
// 对象之前就中止。
func (s *DomainService) instantiateAdminTemplate(caller *domain.User, d *domain.Domain, localPart string, createAliases bool) error {
	localPart = normalizeName(localPart)
	if localPart == "" || strings.Contains(localPart, "@") {
		var verrs domain.ValidationErrors
		verrs.Add("dom_admin_username", "invalid format")
		return verrs
	}

	username := localPart + "@" + d.Name
	if _, err := s.store.GetUserByUsername(username); err == nil {
		return ErrUserExists
	}

	hash, err := auth.HashPassword(s.cfg.Provision.DefaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username,
		PasswordHash: hash,
		Role:         domain.RoleDomainAdmin,
		IsActive:     true,
	}
	if err := s.store.CreateUser(admin); err != nil {
		return err
	}

	mb := &domain.Mailbox{
		ID:             uuid.NewString(),
		LocalPart:      localPart,
		DomainID:       d.ID,
		UserID:         admin.ID,
		UseDomainQuota: true,
	}
	mb.SetQuota(nil, caller.HasElevatedRights())
	if err := s.store.CreateMailbox(mb); err != nil {
		return err
	}
	if err := s.quotas.Ensure(mb.FullAddress(d.Name), EffectiveQuota(mb, d)); err != nil {
		return err
	}

	if createAliases {
		mailboxID := mb.ID
		alias := &domain.Alias{
			ID:        uuid.NewString(),
			LocalPart: postmasterLocalPart,
			DomainID:  d.ID,
			Enabled:   true,
		}
		alias.Recipients = []domain.AliasRecipient{{
			ID:        uuid.NewString(),
			AliasID:   alias.ID,
			MailboxID: &mailboxID,
		}}
		if err := s.store.CreateAlias(alias); err != nil {
			return err
		}
	}

	return s.store.AddDomainAdmin(d.ID, admin.ID)
}

// Get 根据 ID 获取邮件域。
func (s *DomainService) Get(caller *domain.User, id string) (*domain.Domain, error) {
	if err := s.perms.CanAccessDomain(caller, id); err != nil {
		return nil, err
	}
	d, err := s.store.GetDomain(id)
	if err != nil {
		return nil, ErrDomainNotFound
	}
	return d, nil
}

// List 列出调用方可见的域：超级管理员看到全部，其他人只看到
// 自己管理的域。
func (s *DomainService) List(caller *domain.User) ([]domain.Domain, error) {
	if caller.IsSuperAdmin() {
		return s.store.ListDomains()
	}
	return s.store.ListAdministratedDomains(caller.ID)
}

// Delete 删除邮件域及其全部从属记录：别名域、别名、邮箱和
// 对应的配额台账记录。级联同样没有事务保护。
func (s *DomainService) Delete(caller *domain.User, id string) error {
	d, err := s.store.GetDomain(id)
	if err != nil {
		return ErrDomainNotFound
	}
	if !caller.Can(domain.CapChangeDomain) {
		return ErrPermissionDenied
	}
	if err := s.perms.CanAccessDomain(caller, d.ID); err != nil {
		return err
	}

	domainAliases, err := s.store.ListDomainAliasesByTarget(d.ID)
	if err != nil {
		return err
	}
	for _, alias := range domainAliases {
		if err := s.store.DeleteDomainAlias(alias.ID); err != nil {
			return err
		}
	}

	aliases, err := s.store.ListAliasesByDomain(d.ID)
	if err != nil {
		return err
	}
	for _, alias := range aliases {
		if err := s.store.DeleteAlias(alias.ID); err != nil {
			return err
		}
	}

	mailboxes, err := s.store.ListMailboxesByDomain(d.ID)
	if err != nil {
		return err
	}
	for _, mb := range mailboxes {
		if err := s.quotas.Remove(mb.FullAddress(d.Name)); err != nil {
			return err
		}
		if err := s.store.DeleteMailbox(mb.ID); err != nil {
			return err
		}
	}

	return s.store.DeleteDomain(d.ID)
}
