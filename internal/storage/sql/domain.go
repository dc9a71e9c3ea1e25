package sql

import (
	"errors"

	"gorm.io/gorm"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// ========== Domain Repository ==========

// CreateDomain 创建邮件域
func (s *Store) CreateDomain(d *domain.Domain) error {
	err := s.db.Create(d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrDomainExists
	}
	return err
}

// UpdateDomain 更新邮件域
func (s *Store) UpdateDomain(d *domain.Domain) error {
	result := s.db.Model(&domain.Domain{}).Where("id = ?", d.ID).
		Select("name", "quota", "enabled", "updated_at").Updates(d)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrDomainNotFound
	}
	return nil
}

// GetDomain 根据 ID 获取邮件域
func (s *Store) GetDomain(id string) (*domain.Domain, error) {
	var d domain.Domain
	if err := s.db.First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrDomainNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetDomainByName 根据域名获取邮件域
func (s *Store) GetDomainByName(name string) (*domain.Domain, error) {
	var d domain.Domain
	if err := s.db.First(&d, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrDomainNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListDomains 列出全部邮件域（按域名排序）
func (s *Store) ListDomains() ([]domain.Domain, error) {
	var domains []domain.Domain
	if err := s.db.Order("name").Find(&domains).Error; err != nil {
		return nil, err
	}
	return domains, nil
}

// DeleteDomain 删除邮件域
func (s *Store) DeleteDomain(id string) error {
	result := s.db.Delete(&domain.Domain{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrDomainNotFound
	}
	return nil
}

// ========== DomainAlias Repository ==========

// CreateDomainAlias 创建别名域
func (s *Store) CreateDomainAlias(alias *domain.DomainAlias) error {
	err := s.db.Create(alias).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrDomainAliasExists
	}
	return err
}

// GetDomainAliasByName 根据域名获取别名域
func (s *Store) GetDomainAliasByName(name string) (*domain.DomainAlias, error) {
	var alias domain.DomainAlias
	if err := s.db.First(&alias, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrDomainAliasNotFound
		}
		return nil, err
	}
	return &alias, nil
}

// ListDomainAliasesByTarget 列出指向某个域的全部别名域
func (s *Store) ListDomainAliasesByTarget(domainID string) ([]domain.DomainAlias, error) {
	var aliases []domain.DomainAlias
	if err := s.db.Where("target_id = ?", domainID).Order("name").Find(&aliases).Error; err != nil {
		return nil, err
	}
	return aliases, nil
}

// DeleteDomainAlias 删除别名域
func (s *Store) DeleteDomainAlias(id string) error {
	result := s.db.Delete(&domain.DomainAlias{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrDomainAliasNotFound
	}
	return nil
}

// ========== DomainAdmin Repository ==========

// AddDomainAdmin 登记域管理员关系（已存在时视为成功）
func (s *Store) AddDomainAdmin(domainID, userID string) error {
	rel := domain.DomainAdmin{DomainID: domainID, UserID: userID}
	err := s.db.Create(&rel).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// RemoveDomainAdmin 注销域管理员关系
func (s *Store) RemoveDomainAdmin(domainID, userID string) error {
	return s.db.Delete(&domain.DomainAdmin{}, "domain_id = ? AND user_id = ?", domainID, userID).Error
}

// IsDomainAdmin 判断用户是否为指定域的管理员
func (s *Store) IsDomainAdmin(userID, domainID string) (bool, error) {
	var count int64
	err := s.db.Model(&domain.DomainAdmin{}).
		Where("domain_id = ? AND user_id = ?", domainID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAdministratedDomains 列出用户管理的全部域
func (s *Store) ListAdministratedDomains(userID string) ([]domain.Domain, error) {
	var domains []domain.Domain
	err := s.db.
		Joins("JOIN domain_admins ON domain_admins.domain_id = domains.id").
		Where("domain_admins.user_id = ?", userID).
		Order("domains.name").
		Find(&domains).Error
	if err != nil {
		return nil, err
	}
	return domains, nil
}

// ListDomainAdmins 列出指定域的全部管理员账户
func (s *Store) ListDomainAdmins(domainID string) ([]domain.User, error) {
	var users []domain.User
	err := s.db.
		Joins("JOIN domain_admins ON domain_admins.user_id = users.id").
		Where("domain_admins.domain_id = ?", domainID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
