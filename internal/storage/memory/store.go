package memory

import (
	"sort"
	"strings"
	"sync"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// Store 使用内存保存全部实体，主要用于开发验证和单元测试。
// 所有读写都在拷贝上进行，调用方持有的对象不会与存储内部共享。
type Store struct {
	mu sync.RWMutex

	domains       map[string]*domain.Domain // domainID -> domain
	domainsByName map[string]string         // name -> domainID

	domainAliases       map[string]*domain.DomainAlias // aliasID -> alias
	domainAliasesByName map[string]string              // name -> aliasID

	mailboxes      map[string]*domain.Mailbox // mailboxID -> mailbox
	mailboxesByKey map[string]string          // localPart@domainID -> mailboxID

	aliases      map[string]*domain.Alias // aliasID -> alias
	aliasesByKey map[string]string        // localPart@domainID -> aliasID

	users       map[string]*domain.User // userID -> user
	usersByName map[string]string       // username -> userID

	quotas map[string]*domain.QuotaRecord // address -> record

	domainAdmins map[string]map[string]bool // domainID -> userID set
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		domains:             make(map[string]*domain.Domain),
		domainsByName:       make(map[string]string),
		domainAliases:       make(map[string]*domain.DomainAlias),
		domainAliasesByName: make(map[string]string),
		mailboxes:           make(map[string]*domain.Mailbox),
		mailboxesByKey:      make(map[string]string),
		aliases:             make(map[string]*domain.Alias),
		aliasesByKey:        make(map[string]string),
		users:               make(map[string]*domain.User),
		usersByName:         make(map[string]string),
		quotas:              make(map[string]*domain.QuotaRecord),
		domainAdmins:        make(map[string]map[string]bool),
	}
}

func addressKey(localPart, domainID string) string {
	return localPart + "@" + domainID
}

// ========== DomainRepository ==========

// CreateDomain 保存新的邮件域。
func (s *Store) CreateDomain(d *domain.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domainsByName[d.Name]; ok {
		return storage.ErrDomainExists
	}
	cp := *d
	s.domains[cp.ID] = &cp
	s.domainsByName[cp.Name] = cp.ID
	return nil
}

// UpdateDomain 更新已有邮件域，域名索引跟随新名称。
func (s *Store) UpdateDomain(d *domain.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.domains[d.ID]
	if !ok {
		return storage.ErrDomainNotFound
	}
	if old.Name != d.Name {
		delete(s.domainsByName, old.Name)
	}
	cp := *d
	s.domains[cp.ID] = &cp
	s.domainsByName[cp.Name] = cp.ID
	return nil
}

// GetDomain 根据 ID 获取邮件域。
func (s *Store) GetDomain(id string) (*domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, storage.ErrDomainNotFound
	}
	cp := *d
	return &cp, nil
}

// GetDomainByName 根据域名获取邮件域。
func (s *Store) GetDomainByName(name string) (*domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.domainsByName[name]
	if !ok {
		return nil, storage.ErrDomainNotFound
	}
	cp := *s.domains[id]
	return &cp, nil
}

// ListDomains 返回全部邮件域的快照。
func (s *Store) ListDomains() ([]domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		result = append(result, *d)
	}
	return result, nil
}

// DeleteDomain 删除邮件域。
func (s *Store) DeleteDomain(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[id]
	if !ok {
		return storage.ErrDomainNotFound
	}
	delete(s.domainsByName, d.Name)
	delete(s.domains, id)
	delete(s.domainAdmins, id)
	return nil
}

// ========== DomainAliasRepository ==========

// CreateDomainAlias 保存新的别名域。
func (s *Store) CreateDomainAlias(alias *domain.DomainAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domainAliasesByName[alias.Name]; ok {
		return storage.ErrDomainAliasExists
	}
	cp := *alias
	s.domainAliases[cp.ID] = &cp
	s.domainAliasesByName[cp.Name] = cp.ID
	return nil
}

// GetDomainAliasByName 根据名称获取别名域。
func (s *Store) GetDomainAliasByName(name string) (*domain.DomainAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.domainAliasesByName[name]
	if !ok {
		return nil, storage.ErrDomainAliasNotFound
	}
	cp := *s.domainAliases[id]
	return &cp, nil
}

// ListDomainAliasesByTarget 列出指向某个域的全部别名域。
func (s *Store) ListDomainAliasesByTarget(domainID string) ([]domain.DomainAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DomainAlias, 0)
	for _, alias := range s.domainAliases {
		if alias.TargetID == domainID {
			result = append(result, *alias)
		}
	}
	return result, nil
}

// DeleteDomainAlias 删除别名域。
func (s *Store) DeleteDomainAlias(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alias, ok := s.domainAliases[id]
	if !ok {
		return storage.ErrDomainAliasNotFound
	}
	delete(s.domainAliasesByName, alias.Name)
	delete(s.domainAliases, id)
	return nil
}

// ========== MailboxRepository ==========

// CreateMailbox 保存新的邮箱。
func (s *Store) CreateMailbox(mb *domain.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := addressKey(mb.LocalPart, mb.DomainID)
	if _, ok := s.mailboxesByKey[key]; ok {
		return storage.ErrMailboxExists
	}
	cp := *mb
	s.mailboxes[cp.ID] = &cp
	s.mailboxesByKey[key] = cp.ID
	return nil
}

// UpdateMailbox 更新已有邮箱，地址索引跟随新地址。
func (s *Store) UpdateMailbox(mb *domain.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.mailboxes[mb.ID]
	if !ok {
		return storage.ErrMailboxNotFound
	}
	delete(s.mailboxesByKey, addressKey(old.LocalPart, old.DomainID))
	cp := *mb
	s.mailboxes[cp.ID] = &cp
	s.mailboxesByKey[addressKey(cp.LocalPart, cp.DomainID)] = cp.ID
	return nil
}

// GetMailbox 根据 ID 获取邮箱。
func (s *Store) GetMailbox(id string) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mb, ok := s.mailboxes[id]
	if !ok {
		return nil, storage.ErrMailboxNotFound
	}
	cp := *mb
	return &cp, nil
}

// GetMailboxByAddress 根据本地部分和所属域获取邮箱。
func (s *Store) GetMailboxByAddress(localPart, domainID string) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.mailboxesByKey[addressKey(localPart, domainID)]
	if !ok {
		return nil, storage.ErrMailboxNotFound
	}
	cp := *s.mailboxes[id]
	return &cp, nil
}

// GetMailboxByUser 获取某个账户名下的邮箱。
func (s *Store) GetMailboxByUser(userID string) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mb := range s.mailboxes {
		if mb.UserID == userID {
			cp := *mb
			return &cp, nil
		}
	}
	return nil, storage.ErrMailboxNotFound
}

// ListMailboxesByDomain 列出某个域下的全部邮箱。
func (s *Store) ListMailboxesByDomain(domainID string) ([]domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Mailbox, 0)
	for _, mb := range s.mailboxes {
		if mb.DomainID == domainID {
			result = append(result, *mb)
		}
	}
	return result, nil
}

// DeleteMailbox 删除邮箱。
func (s *Store) DeleteMailbox(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mb, ok := s.mailboxes[id]
	if !ok {
		return storage.ErrMailboxNotFound
	}
	delete(s.mailboxesByKey, addressKey(mb.LocalPart, mb.DomainID))
	delete(s.mailboxes, id)
	return nil
}

// ========== AliasRepository ==========

func copyAlias(a *domain.Alias) *domain.Alias {
	cp := *a
	cp.Recipients = make([]domain.AliasRecipient, len(a.Recipients))
	copy(cp.Recipients, a.Recipients)
	return &cp
}

// CreateAlias 保存新的地址别名及其收件人。
func (s *Store) CreateAlias(alias *domain.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := addressKey(alias.LocalPart, alias.DomainID)
	if _, ok := s.aliasesByKey[key]; ok {
		return storage.ErrAliasExists
	}
	s.aliases[alias.ID] = copyAlias(alias)
	s.aliasesByKey[key] = alias.ID
	return nil
}

// GetAlias 根据 ID 获取别名。
func (s *Store) GetAlias(id string) (*domain.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alias, ok := s.aliases[id]
	if !ok {
		return nil, storage.ErrAliasNotFound
	}
	return copyAlias(alias), nil
}

// GetAliasByAddress 根据本地部分和所属域获取别名。
func (s *Store) GetAliasByAddress(localPart, domainID string) (*domain.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.aliasesByKey[addressKey(localPart, domainID)]
	if !ok {
		return nil, storage.ErrAliasNotFound
	}
	return copyAlias(s.aliases[id]), nil
}

// ListAliasesByDomain 列出某个域下的全部别名。
func (s *Store) ListAliasesByDomain(domainID string) ([]domain.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Alias, 0)
	for _, alias := range s.aliases {
		if alias.DomainID == domainID {
			result = append(result, *copyAlias(alias))
		}
	}
	return result, nil
}

// ListAliasesByMailbox 列出收件人中包含某个邮箱的全部别名。
func (s *Store) ListAliasesByMailbox(mailboxID string) ([]domain.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Alias, 0)
	for _, alias := range s.aliases {
		for _, rcpt := range alias.Recipients {
			if rcpt.MailboxID != nil && *rcpt.MailboxID == mailboxID {
				result = append(result, *copyAlias(alias))
				break
			}
		}
	}
	return result, nil
}

// DeleteAlias 删除别名及其收件人。
func (s *Store) DeleteAlias(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alias, ok := s.aliases[id]
	if !ok {
		return storage.ErrAliasNotFound
	}
	delete(s.aliasesByKey, addressKey(alias.LocalPart, alias.DomainID))
	delete(s.aliases, id)
	return nil
}

// ========== UserRepository ==========

// CreateUser 保存新账户。
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByName[user.Username]; ok {
		return storage.ErrUserExists
	}
	cp := *user
	s.users[cp.ID] = &cp
	s.usersByName[cp.Username] = cp.ID
	return nil
}

// UpdateUser 更新已有账户，用户名索引跟随新名称。
func (s *Store) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[user.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	if old.Username != user.Username {
		delete(s.usersByName, old.Username)
	}
	cp := *user
	s.users[cp.ID] = &cp
	s.usersByName[cp.Username] = cp.ID
	return nil
}

// GetUser 根据 ID 获取账户。
func (s *Store) GetUser(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByUsername 根据用户名获取账户。
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// ListUsers 返回全部账户的快照，按用户名排序。
func (s *Store) ListUsers() ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

// DeleteUser 删除账户。
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	delete(s.usersByName, user.Username)
	delete(s.users, id)
	for _, admins := range s.domainAdmins {
		delete(admins, id)
	}
	return nil
}

// ========== QuotaRepository ==========

// SaveQuotaRecord 保存或更新配额记录。
func (s *Store) SaveQuotaRecord(rec *domain.QuotaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.quotas[cp.Address] = &cp
	return nil
}

// GetQuotaRecord 根据地址获取配额记录。
func (s *Store) GetQuotaRecord(address string) (*domain.QuotaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.quotas[address]
	if !ok {
		return nil, storage.ErrQuotaNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListQuotaRecordsByDomain 列出地址后缀为指定域名的全部配额记录。
func (s *Store) ListQuotaRecordsByDomain(domainName string) ([]domain.QuotaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suffix := "@" + domainName
	result := make([]domain.QuotaRecord, 0)
	for _, rec := range s.quotas {
		if strings.HasSuffix(rec.Address, suffix) {
			result = append(result, *rec)
		}
	}
	return result, nil
}

// RenameQuotaRecord 将一条配额记录迁移到新地址主键下。
func (s *Store) RenameQuotaRecord(oldAddress, newAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.quotas[oldAddress]
	if !ok {
		return storage.ErrQuotaNotFound
	}
	cp := *rec
	cp.Address = newAddress
	delete(s.quotas, oldAddress)
	s.quotas[newAddress] = &cp
	return nil
}

// DeleteQuotaRecord 删除配额记录。
func (s *Store) DeleteQuotaRecord(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotas[address]; !ok {
		return storage.ErrQuotaNotFound
	}
	delete(s.quotas, address)
	return nil
}

// ========== DomainAdminRepository ==========

// AddDomainAdmin 登记某个用户为域管理员。
func (s *Store) AddDomainAdmin(domainID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[domainID]; !ok {
		return storage.ErrDomainNotFound
	}
	if _, ok := s.domainAdmins[domainID]; !ok {
		s.domainAdmins[domainID] = make(map[string]bool)
	}
	s.domainAdmins[domainID][userID] = true
	return nil
}

// RemoveDomainAdmin 取消某个用户的域管理员身份。
func (s *Store) RemoveDomainAdmin(domainID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if admins, ok := s.domainAdmins[domainID]; ok {
		delete(admins, userID)
	}
	return nil
}

// IsDomainAdmin 判断用户是否为指定域的管理员。
func (s *Store) IsDomainAdmin(userID, domainID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins, ok := s.domainAdmins[domainID]
	if !ok {
		return false, nil
	}
	return admins[userID], nil
}

// ListAdministratedDomains 列出用户管理的全部域。
func (s *Store) ListAdministratedDomains(userID string) ([]domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Domain, 0)
	for domainID, admins := range s.domainAdmins {
		if admins[userID] {
			if d, ok := s.domains[domainID]; ok {
				result = append(result, *d)
			}
		}
	}
	return result, nil
}

// ListDomainAdmins 列出指定域的全部管理员账户。
func (s *Store) ListDomainAdmins(domainID string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0)
	for userID := range s.domainAdmins[domainID] {
		if user, ok := s.users[userID]; ok {
			result = append(result, *user)
		}
	}
	return result, nil
}

// Close 实现 storage.Store 接口，内存存储无需释放资源。
func (s *Store) Close() error { return nil }

// Health 实现 storage.Store 接口。
func (s *Store) Health() error { return nil }
