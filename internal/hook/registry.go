package hook

import (
	"mailadmin/backend/internal/domain"
)

// Kind 标识一次创建动作的对象类型，供 CanCreate 钩子判断。
type Kind string

const (
	KindDomains        Kind = "domains"
	KindDomainAliases  Kind = "domain_aliases"
	KindMailboxes      Kind = "mailboxes"
	KindMailboxAliases Kind = "mailbox_aliases"
	KindUsers          Kind = "users"
)

// CanCreateFunc 在创建对象前被调用，返回非 nil 错误表示否决。
type CanCreateFunc func(caller *domain.User, kind Kind) error

// FormUnit 是扩展模块挂入保存流程的一个单元：先校验、后保存，
// 校验失败会否决整次保存。
type FormUnit interface {
	Name() string
	Validate() error
	Save(caller *domain.User) error
}

// DomainExtension 为域保存流程提供附加单元。
type DomainExtension interface {
	DomainUnits(caller *domain.User, d *domain.Domain) []FormUnit
}

// AccountExtension 为账户保存流程提供附加单元。
type AccountExtension interface {
	AccountUnits(caller *domain.User, account *domain.User) []FormUnit
}

// Registry 是显式的钩子注册表，取代隐式的全局事件机制。
// 钩子在构造期注入，按注册顺序被调用，没有全局可变状态。
type Registry struct {
	canCreate         []CanCreateFunc
	domainExtensions  []DomainExtension
	accountExtensions []AccountExtension
}

// NewRegistry 创建空的钩子注册表。
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterCanCreate 注册一个创建前检查钩子。
func (r *Registry) RegisterCanCreate(fn CanCreateFunc) {
	r.canCreate = append(r.canCreate, fn)
}

// RaiseCanCreate 依注册顺序触发全部创建前检查，第一个否决即返回。
// 没有注册任何钩子时默认放行。
func (r *Registry) RaiseCanCreate(caller *domain.User, kind Kind) error {
	for _, fn := range r.canCreate {
		if err := fn(caller, kind); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDomainExtension 注册域表单扩展。
func (r *Registry) RegisterDomainExtension(ext DomainExtension) {
	r.domainExtensions = append(r.domainExtensions, ext)
}

// DomainUnits 收集全部扩展为某次域保存提供的单元，按注册顺序排列。
func (r *Registry) DomainUnits(caller *domain.User, d *domain.Domain) []FormUnit {
	var units []FormUnit
	for _, ext := range r.domainExtensions {
		units = append(units, ext.DomainUnits(caller, d)...)
	}
	return units
}

// RegisterAccountExtension 注册账户表单扩展。
func (r *Registry) RegisterAccountExtension(ext AccountExtension) {
	r.accountExtensions = append(r.accountExtensions, ext)
}

// AccountUnits 收集全部扩展为某次账户保存提供的单元。
func (r *Registry) AccountUnits(caller *domain.User, account *domain.User) []FormUnit {
	var units []FormUnit
	for _, ext := range r.accountExtensions {
		units = append(units, ext.AccountUnits(caller, account)...)
	}
	return units
}
