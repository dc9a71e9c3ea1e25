package service

import (
	"errors"

	"github.com/google/uuid"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/maildir"
	"mailadmin/backend/internal/storage"
)

var (
	// ErrMailboxExists 目标地址已有邮箱
	ErrMailboxExists = errors.New("mailbox already exists")
)

// MailboxService 负责邮箱的开通、改名和配额策略，并把别名字段
// 交给别名同步器对齐。对应账户表单的"邮件"页。
type MailboxService struct {
	store   storage.Store
	quotas  *QuotaService
	aliases *AliasSyncService
	perms   *PermissionService
	mail    maildir.Storage
}

// NewMailboxService 创建邮箱服务。
func NewMailboxService(store storage.Store, quotas *QuotaService, aliases *AliasSyncService, perms *PermissionService, mail maildir.Storage) *MailboxService {
	return &MailboxService{
		store:   store,
		quotas:  quotas,
		aliases: aliases,
		perms:   perms,
		mail:    mail,
	}
}

// SaveMailboxInput 定义保存邮箱所需的提交字段。
// Aliases 来自动态编号的别名输入框，长度由调用方决定。
type SaveMailboxInput struct {
	Email    string
	Quota    *int // MB，nil 表示不限制
	QuotaAct bool // true 时配额继承所属域
	Aliases  []string
}

// Save 为指定账户开通或更新邮箱。
//
// 没有已有邮箱且 Email 为空时不做任何事。改名有两个触发条件：
// 提交的地址与当前地址不同，或普通用户账户自己的登录名变了
// （普通用户的邮箱地址必须跟随登录名）。保存成功后账户的邮件
// 地址会同步更新，最后对齐别名集合。
func (s *MailboxService) Save(caller, account *domain.User, input SaveMailboxInput) (*domain.Mailbox, error) {
	email := normalizeName(input.Email)
	if input.QuotaAct {
		input.Quota = nil
	}

	mb, err := s.store.GetMailboxByUser(account.ID)
	switch {
	case errors.Is(err, storage.ErrMailboxNotFound):
		if email == "" {
			return nil, nil
		}
		mb, err = s.create(caller, account, email, input)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		mb, err = s.update(caller, account, mb, email, input)
		if err != nil {
			return nil, err
		}
	}

	account.Email = email
	if err := s.store.UpdateUser(account); err != nil {
		return nil, err
	}

	if err := s.aliases.SyncMailboxAliases(caller, mb, input.Aliases, account.IsActive); err != nil {
		return nil, err
	}
	return mb, nil
}

// create 开通新邮箱：目标域必须存在且调用方有权访问，地址未被占用，
// 且调用方持有 mailboxes 创建能力。配额覆盖只对持提升权限的调用方
// 生效，否则落到域默认配额。
func (s *MailboxService) create(caller, account *domain.User, email string, input SaveMailboxInput) (*domain.Mailbox, error) {
	if err := domain.ValidateEmail(email); err != nil {
		var verrs domain.ValidationErrors
		verrs.Add("email", err.Error())
		return nil, verrs
	}
	localPart, domainName, err := domain.SplitAddress(email)
	if err != nil {
		return nil, ErrDomainNotFound
	}
	d, err := s.store.GetDomainByName(domainName)
	if err != nil {
		return nil, ErrDomainNotFound
	}
	if err := s.perms.CanAccessDomain(caller, d.ID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetMailboxByAddress(localPart, d.ID); err == nil {
		return nil, ErrMailboxExists
	}
	if err := s.perms.CanCreate(caller, hook.KindMailboxes); err != nil {
		return nil, err
	}

	mb := &domain.Mailbox{
		ID:             uuid.NewString(),
		LocalPart:      localPart,
		DomainID:       d.ID,
		UserID:         account.ID,
		UseDomainQuota: input.QuotaAct,
	}
	if !mb.UseDomainQuota {
		if caller.HasElevatedRights() {
			mb.Quota = input.Quota
		} else {
			// 无提升权限时不接受覆盖值，落回域默认配额
			q := d.Quota
			mb.Quota = &q
		}
	}
	if err := s.store.CreateMailbox(mb); err != nil {
		return nil, err
	}
	if err := s.quotas.Ensure(mb.FullAddress(d.Name), EffectiveQuota(mb, d)); err != nil {
		return nil, err
	}
	return mb, nil
}

// update 更新已有邮箱：先判定是否触发改名，再按覆盖规则应用配额。
func (s *MailboxService) update(caller, account *domain.User, mb *domain.Mailbox, email string, input SaveMailboxInput) (*domain.Mailbox, error) {
	if email == "" {
		var verrs domain.ValidationErrors
		verrs.Add("email", "email is required for an existing mailbox")
		return nil, verrs
	}
	currentDomain, err := s.store.GetDomain(mb.DomainID)
	if err != nil {
		return nil, err
	}
	currentAddress := mb.FullAddress(currentDomain.Name)

	newAddress := ""
	if email != "" && email != currentAddress {
		newAddress = email
	} else if account.Role == domain.RoleSimpleUser && account.Username != currentAddress {
		// 普通用户的邮箱地址跟随登录名
		newAddress = account.Username
	}

	// 配额覆盖判定要看改名前的状态
	override := s.perms.CanOverrideQuota(caller, mb)

	if newAddress != "" {
		if err := s.rename(caller, mb, currentDomain, newAddress); err != nil {
			return nil, err
		}
	}

	d, err := s.store.GetDomain(mb.DomainID)
	if err != nil {
		return nil, err
	}

	wasInheriting := mb.UseDomainQuota
	mb.UseDomainQuota = input.QuotaAct
	if mb.UseDomainQuota {
		mb.Quota = nil
	} else {
		mb.SetQuota(input.Quota, override)
		// 脱离域配额继承时无提升权限的调用方拿不到不限额，落回域配额
		if wasInheriting && mb.Quota == nil && !caller.HasElevatedRights() {
			q := d.Quota
			mb.Quota = &q
		}
	}
	if err := s.store.UpdateMailbox(mb); err != nil {
		return nil, err
	}

	if err := s.quotas.Ensure(mb.FullAddress(d.Name), EffectiveQuota(mb, d)); err != nil {
		return nil, err
	}
	return mb, nil
}

// rename 把邮箱迁移到新地址：更新存储记录、移动邮件主目录、
// 迁移配额台账记录。域不变的改名只影响这一个邮箱；整域改名的
// 级联由域服务处理。
func (s *MailboxService) rename(caller *domain.User, mb *domain.Mailbox, currentDomain *domain.Domain, newAddress string) error {
	localPart, domainName, err := domain.SplitAddress(newAddress)
	if err != nil {
		var verrs domain.ValidationErrors
		verrs.Add("email", "invalid email format")
		return verrs
	}
	if err := domain.ValidateLocalPart(localPart, false); err != nil {
		var verrs domain.ValidationErrors
		verrs.Add("email", err.Error())
		return verrs
	}
	d, err := s.store.GetDomainByName(domainName)
	if err != nil {
		return ErrDomainNotFound
	}
	if err := s.perms.CanAccessDomain(caller, d.ID); err != nil {
		return err
	}

	oldAddress := mb.FullAddress(currentDomain.Name)
	oldHome := s.mail.HomePath(currentDomain.Name, mb.LocalPart)

	mb.LocalPart = localPart
	mb.DomainID = d.ID
	if err := s.mail.Rename(oldHome, s.mail.HomePath(d.Name, mb.LocalPart)); err != nil {
		return err
	}
	return s.quotas.Rename(oldAddress, mb.FullAddress(d.Name))
}
