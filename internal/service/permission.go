package service

import (
	"errors"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/storage"
)

var (
	// ErrPermissionDenied 权限不足，区别于业务规则错误
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSelfDisable 账户不能通过此路径停用自己
	ErrSelfDisable = errors.New("you cannot disable your own account")
	// ErrSelfDelete 账户不能删除自己
	ErrSelfDelete = errors.New("you cannot delete your own account")
)

// kindCapabilities 创建对象类型到角色能力的映射。
var kindCapabilities = map[hook.Kind]domain.Capability{
	hook.KindDomains:        domain.CapAddDomain,
	hook.KindDomainAliases:  domain.CapAddDomainAlias,
	hook.KindMailboxes:      domain.CapAddMailbox,
	hook.KindMailboxAliases: domain.CapAddMailboxAlias,
	hook.KindUsers:          domain.CapAddUser,
}

// PermissionService 是纯判定逻辑的权限门卫，所有创建/覆盖操作
// 在执行前都要先问它。
type PermissionService struct {
	store storage.DomainAdminRepository
	hooks *hook.Registry
}

// NewPermissionService 创建权限门卫。
func NewPermissionService(store storage.DomainAdminRepository, hooks *hook.Registry) *PermissionService {
	return &PermissionService{store: store, hooks: hooks}
}

// CanAccessDomain 判断调用方是否可以操作指定域：
// 超级管理员放行，否则必须是该域的管理员。
func (s *PermissionService) CanAccessDomain(caller *domain.User, domainID string) error {
	if caller.IsSuperAdmin() {
		return nil
	}
	ok, err := s.store.IsDomainAdmin(caller.ID, domainID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// CanCreate 判断调用方角色是否持有对应的创建能力，
// 然后触发注册表中的创建前钩子，任何一方否决都会拒绝。
func (s *PermissionService) CanCreate(caller *domain.User, kind hook.Kind) error {
	cap, ok := kindCapabilities[kind]
	if !ok {
		return ErrPermissionDenied
	}
	if !caller.Can(cap) {
		return ErrPermissionDenied
	}
	return s.hooks.RaiseCanCreate(caller, kind)
}

// CanOverrideQuota 判断调用方是否可以覆盖邮箱配额。
// 持有提升权限的调用方总是可以；否则仅当目标当前没有配额限制
// （current 为 nil 表示创建场景，只看提升权限）。
func (s *PermissionService) CanOverrideQuota(caller *domain.User, current *domain.Mailbox) bool {
	if caller.HasElevatedRights() {
		return true
	}
	return current != nil && current.Quota == nil && !current.UseDomainQuota
}
