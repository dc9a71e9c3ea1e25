package storage

import (
	"errors"

	"mailadmin/backend/internal/domain"
)

// 各实体的"未找到/已存在"哨兵错误。所有存储实现都返回这里定义的
// 哨兵，业务层通过 errors.Is 判断，不依赖具体后端。
var (
	ErrDomainNotFound      = errors.New("domain not found")
	ErrDomainExists        = errors.New("domain already exists")
	ErrDomainAliasNotFound = errors.New("domain alias not found")
	ErrDomainAliasExists   = errors.New("domain alias already exists")
	ErrMailboxNotFound     = errors.New("mailbox not found")
	ErrMailboxExists       = errors.New("mailbox already exists")
	ErrAliasNotFound       = errors.New("alias not found")
	ErrAliasExists         = errors.New("alias already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrQuotaNotFound       = errors.New("quota record not found")
)

// DomainRepository 定义邮件域数据存取操作。
type DomainRepository interface {
	CreateDomain(d *domain.Domain) error
	UpdateDomain(d *domain.Domain) error
	GetDomain(id string) (*domain.Domain, error)
	GetDomainByName(name string) (*domain.Domain, error)
	ListDomains() ([]domain.Domain, error)
	DeleteDomain(id string) error
}

// DomainAliasRepository 定义别名域数据存取操作。
type DomainAliasRepository interface {
	CreateDomainAlias(alias *domain.DomainAlias) error
	GetDomainAliasByName(name string) (*domain.DomainAlias, error)
	ListDomainAliasesByTarget(domainID string) ([]domain.DomainAlias, error)
	DeleteDomainAlias(id string) error
}

// MailboxRepository 定义邮箱数据存取操作。
type MailboxRepository interface {
	CreateMailbox(mb *domain.Mailbox) error
	UpdateMailbox(mb *domain.Mailbox) error
	GetMailbox(id string) (*domain.Mailbox, error)
	GetMailboxByAddress(localPart, domainID string) (*domain.Mailbox, error)
	GetMailboxByUser(userID string) (*domain.Mailbox, error)
	ListMailboxesByDomain(domainID string) ([]domain.Mailbox, error)
	DeleteMailbox(id string) error
}

// AliasRepository 定义地址别名数据存取操作。
// 读取操作必须带上收件人列表。
type AliasRepository interface {
	CreateAlias(alias *domain.Alias) error
	GetAlias(id string) (*domain.Alias, error)
	GetAliasByAddress(localPart, domainID string) (*domain.Alias, error)
	ListAliasesByDomain(domainID string) ([]domain.Alias, error)
	ListAliasesByMailbox(mailboxID string) ([]domain.Alias, error)
	DeleteAlias(id string) error
}

// UserRepository 定义账户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	UpdateUser(user *domain.User) error
	GetUser(id string) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	ListUsers() ([]domain.User, error)
	DeleteUser(id string) error
}

// QuotaRepository 定义配额台账数据存取操作。
// 记录以完整邮件地址为主键，改键必须逐条重写。
type QuotaRepository interface {
	SaveQuotaRecord(rec *domain.QuotaRecord) error
	GetQuotaRecord(address string) (*domain.QuotaRecord, error)
	ListQuotaRecordsByDomain(domainName string) ([]domain.QuotaRecord, error)
	RenameQuotaRecord(oldAddress, newAddress string) error
	DeleteQuotaRecord(address string) error
}

// DomainAdminRepository 定义域管理员关系的存取操作。
type DomainAdminRepository interface {
	AddDomainAdmin(domainID, userID string) error
	RemoveDomainAdmin(domainID, userID string) error
	IsDomainAdmin(userID, domainID string) (bool, error)
	ListAdministratedDomains(userID string) ([]domain.Domain, error)
	ListDomainAdmins(domainID string) ([]domain.User, error)
}

// Store 定义完整的存储接口。
type Store interface {
	DomainRepository
	DomainAliasRepository
	MailboxRepository
	AliasRepository
	UserRepository
	QuotaRepository
	DomainAdminRepository

	// 工具方法
	Close() error
	Health() error
}
