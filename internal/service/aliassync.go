package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/storage"
)

// AliasSyncService 把调用方提交的别名集合与持久化状态对齐：
// 补建缺失的、删除不再提交的。只处理收件人数不超过 1 的简单别名，
// 分发列表无论提交内容如何都不会被动到。
type AliasSyncService struct {
	store storage.Store
	perms *PermissionService
}

// NewAliasSyncService 创建别名同步服务。
func NewAliasSyncService(store storage.Store, perms *PermissionService) *AliasSyncService {
	return &AliasSyncService{store: store, perms: perms}
}

// aliasTarget 是一个规范化后的提交值及其解析结果。
type aliasTarget struct {
	address   string // 完整地址，小写
	localPart string
	domain    *domain.Domain
}

// resolveTargets 规范化提交的别名地址：去空白、转小写、丢弃空串、
// 合并重复值，再逐个校验格式并解析目标域。目标域不存在是业务错误，
// 会中止整次同步。
func (s *AliasSyncService) resolveTargets(values []string) ([]aliasTarget, error) {
	seen := make(map[string]bool)
	targets := make([]aliasTarget, 0, len(values))
	var verrs domain.ValidationErrors

	for _, value := range values {
		trimmed := normalizeName(value)
		if trimmed == "" {
			continue
		}
		localPart, domainName, err := domain.SplitAddress(trimmed)
		if err != nil {
			verrs.Add("aliases", "invalid alias address: "+trimmed)
			continue
		}
		address := localPart + "@" + domainName
		if seen[address] {
			// 重复提交视为同一个逻辑值
			continue
		}
		seen[address] = true

		if err := domain.ValidateLocalPart(localPart, true); err != nil {
			verrs.Add("aliases", "invalid alias address: "+address)
			continue
		}
		d, err := s.store.GetDomainByName(domainName)
		if err != nil {
			return nil, ErrDomainNotFound
		}
		targets = append(targets, aliasTarget{address: address, localPart: localPart, domain: d})
	}
	if verrs.HasErrors() {
		return nil, verrs
	}
	return targets, nil
}

// SyncMailboxAliases 对齐某个邮箱的简单别名集合。
// 新建别名的启用状态取所属账户的激活标志；每个新建都要过
// mailbox_aliases 创建检查，被否决的只跳过自己，不影响整次保存。
func (s *AliasSyncService) SyncMailboxAliases(caller *domain.User, mb *domain.Mailbox, submitted []string, enabled bool) error {
	targets, err := s.resolveTargets(submitted)
	if err != nil {
		return err
	}

	existing, err := s.store.ListAliasesByMailbox(mb.ID)
	if err != nil {
		return err
	}
	existingByAddress := make(map[string]bool, len(existing))
	for i := range existing {
		address, err := s.fullAddress(&existing[i])
		if err != nil {
			return err
		}
		existingByAddress[address] = true
	}

	wanted := make(map[string]bool, len(targets))
	for _, t := range targets {
		wanted[t.address] = true
		if existingByAddress[t.address] {
			continue
		}
		if err := s.perms.CanCreate(caller, hook.KindMailboxAliases); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				continue
			}
			return err
		}
		mailboxID := mb.ID
		alias := &domain.Alias{
			ID:        uuid.NewString(),
			LocalPart: t.localPart,
			DomainID:  t.domain.ID,
			Enabled:   enabled,
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

	for i := range existing {
		alias := &existing[i]
		if alias.IsDistributionList() {
			continue
		}
		address, err := s.fullAddress(alias)
		if err != nil {
			return err
		}
		if !wanted[address] {
			if err := s.store.DeleteAlias(alias.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncDomainAliases 对齐指向某个域的别名域集合。
// 提交值是域名；与现有域重名的提交作为字段校验错误拒绝，
// 新建别名域继承目标域当前的启用状态。
func (s *AliasSyncService) SyncDomainAliases(caller *domain.User, d *domain.Domain, submitted []string) error {
	seen := make(map[string]bool)
	names := make([]string, 0, len(submitted))
	var verrs domain.ValidationErrors
	for _, value := range submitted {
		name := normalizeName(value)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if err := domain.ValidateDomainName(name); err != nil {
			verrs.Add("aliases", "invalid domain name: "+name)
			continue
		}
		if _, err := s.store.GetDomainByName(name); err == nil {
			verrs.Add("aliases", "a domain with this name already exists: "+name)
			continue
		}
		names = append(names, name)
	}
	if verrs.HasErrors() {
		return verrs
	}

	existing, err := s.store.ListDomainAliasesByTarget(d.ID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]bool, len(existing))
	for _, alias := range existing {
		existingByName[alias.Name] = true
	}

	for _, name := range names {
		if existingByName[name] {
			continue
		}
		if err := s.perms.CanCreate(caller, hook.KindDomainAliases); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				continue
			}
			return err
		}
		alias := &domain.DomainAlias{
			ID:       uuid.NewString(),
			Name:     name,
			TargetID: d.ID,
			Enabled:  d.Enabled,
		}
		if err := s.store.CreateDomainAlias(alias); err != nil {
			return err
		}
	}

	for _, alias := range existing {
		if !seen[alias.Name] {
			if err := s.store.DeleteDomainAlias(alias.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeName 去空白并转小写。
func normalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// fullAddress 取别名的完整地址（需要查所属域的当前域名）。
func (s *AliasSyncService) fullAddress(alias *domain.Alias) (string, error) {
	d, err := s.store.GetDomain(alias.DomainID)
	if err != nil {
		return "", err
	}
	return alias.FullAddress(d.Name), nil
}
