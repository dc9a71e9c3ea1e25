package sql

import (
	"errors"

	"gorm.io/gorm"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// ========== Alias Repository ==========

// CreateAlias 创建别名及其收件人（同一事务）
func (s *Store) CreateAlias(alias *domain.Alias) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		recipients := alias.Recipients
		alias.Recipients = nil
		defer func() { alias.Recipients = recipients }()

		if err := tx.Create(alias).Error; err != nil {
			return err
		}
		for i := range recipients {
			if err := tx.Create(&recipients[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrAliasExists
	}
	return err
}

// GetAlias 根据 ID 获取别名（带收件人列表）
func (s *Store) GetAlias(id string) (*domain.Alias, error) {
	var alias domain.Alias
	err := s.db.Preload("Recipients").First(&alias, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrAliasNotFound
		}
		return nil, err
	}
	return &alias, nil
}

// GetAliasByAddress 根据本地部分和所属域获取别名（带收件人列表）
func (s *Store) GetAliasByAddress(localPart, domainID string) (*domain.Alias, error) {
	var alias domain.Alias
	err := s.db.Preload("Recipients").
		First(&alias, "local_part = ? AND domain_id = ?", localPart, domainID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrAliasNotFound
		}
		return nil, err
	}
	return &alias, nil
}

// ListAliasesByDomain 列出某个域下的全部别名（带收件人列表）
func (s *Store) ListAliasesByDomain(domainID string) ([]domain.Alias, error) {
	var aliases []domain.Alias
	err := s.db.Preload("Recipients").
		Where("domain_id = ?", domainID).Order("local_part").Find(&aliases).Error
	if err != nil {
		return nil, err
	}
	return aliases, nil
}

// ListAliasesByMailbox 列出把指定邮箱作为收件人的全部别名（带收件人列表）
func (s *Store) ListAliasesByMailbox(mailboxID string) ([]domain.Alias, error) {
	var ids []string
	err := s.db.Model(&domain.AliasRecipient{}).
		Where("mailbox_id = ?", mailboxID).
		Distinct().Pluck("alias_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Alias{}, nil
	}

	var aliases []domain.Alias
	err = s.db.Preload("Recipients").
		Where("id IN ?", ids).Order("local_part").Find(&aliases).Error
	if err != nil {
		return nil, err
	}
	return aliases, nil
}

// DeleteAlias 删除别名及其收件人（同一事务）
func (s *Store) DeleteAlias(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.AliasRecipient{}, "alias_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Alias{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrAliasNotFound
		}
		return nil
	})
}
