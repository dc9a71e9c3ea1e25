package domain

import "time"

// Role 用户角色
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleDomainAdmin Role = "domain_admin"
	RoleSimpleUser  Role = "simple_user"
)

// Capability 角色可持有的创建/变更能力
type Capability string

const (
	CapAddDomain       Capability = "add_domain"
	CapChangeDomain    Capability = "change_domain"
	CapAddDomainAlias  Capability = "add_domain_alias"
	CapAddMailbox      Capability = "add_mailbox"
	CapAddMailboxAlias Capability = "add_mailbox_alias"
	CapAddUser         Capability = "add_user"
)

// roleCapabilities 各角色持有的能力集合。超级管理员拥有全部能力，
// 域管理员只能在所辖域内创建邮箱、别名和普通账户。
var roleCapabilities = map[Role]map[Capability]bool{
	RoleSuperAdmin: {
		CapAddDomain:       true,
		CapChangeDomain:    true,
		CapAddDomainAlias:  true,
		CapAddMailbox:      true,
		CapAddMailboxAlias: true,
		CapAddUser:         true,
	},
	RoleDomainAdmin: {
		CapAddMailbox:      true,
		CapAddMailboxAlias: true,
		CapAddUser:         true,
	},
	RoleSimpleUser: {},
}

// User 表示平台账户（超级管理员、域管理员或普通用户）。
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string     `json:"username" gorm:"uniqueIndex;type:varchar(255);not null"`
	Email        string     `json:"email" gorm:"type:varchar(255)"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255)"`
	Role         Role       `json:"role" gorm:"type:varchar(20);default:'simple_user';index"`
	IsActive     bool       `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// IsSuperAdmin 判断用户是否为超级管理员
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// Can 判断用户角色是否持有指定能力。
func (u *User) Can(cap Capability) bool {
	caps, ok := roleCapabilities[u.Role]
	if !ok {
		return false
	}
	return caps[cap]
}

// HasElevatedRights 判断用户是否持有配额覆盖所需的提升权限
// （add_domain 或 change_domain 能力）。
func (u *User) HasElevatedRights() bool {
	return u.Can(CapAddDomain) || u.Can(CapChangeDomain)
}
