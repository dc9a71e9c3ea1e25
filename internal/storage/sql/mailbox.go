package sql

import (
	"errors"

	"gorm.io/gorm"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// ========== Mailbox Repository ==========

// CreateMailbox 创建邮箱
func (s *Store) CreateMailbox(mb *domain.Mailbox) error {
	err := s.db.Create(mb).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrMailboxExists
	}
	return err
}

// UpdateMailbox 更新邮箱（包括把配额写回 NULL 的情况）
func (s *Store) UpdateMailbox(mb *domain.Mailbox) error {
	result := s.db.Model(&domain.Mailbox{}).Where("id = ?", mb.ID).
		Select("local_part", "domain_id", "user_id", "quota", "use_domain_quota", "updated_at").
		Updates(map[string]interface{}{
			"local_part":       mb.LocalPart,
			"domain_id":        mb.DomainID,
			"user_id":          mb.UserID,
			"quota":            mb.Quota,
			"use_domain_quota": mb.UseDomainQuota,
			"updated_at":       mb.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMailboxNotFound
	}
	return nil
}

// GetMailbox 根据 ID 获取邮箱
func (s *Store) GetMailbox(id string) (*domain.Mailbox, error) {
	var mb domain.Mailbox
	if err := s.db.First(&mb, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMailboxNotFound
		}
		return nil, err
	}
	return &mb, nil
}

// GetMailboxByAddress 根据本地部分和所属域获取邮箱
func (s *Store) GetMailboxByAddress(localPart, domainID string) (*domain.Mailbox, error) {
	var mb domain.Mailbox
	err := s.db.First(&mb, "local_part = ? AND domain_id = ?", localPart, domainID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMailboxNotFound
		}
		return nil, err
	}
	return &mb, nil
}

// GetMailboxByUser 获取账户名下的邮箱（每个账户至多一个）
func (s *Store) GetMailboxByUser(userID string) (*domain.Mailbox, error) {
	var mb domain.Mailbox
	if err := s.db.First(&mb, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMailboxNotFound
		}
		return nil, err
	}
	return &mb, nil
}

// ListMailboxesByDomain 列出某个域下的全部邮箱
func (s *Store) ListMailboxesByDomain(domainID string) ([]domain.Mailbox, error) {
	var mailboxes []domain.Mailbox
	err := s.db.Where("domain_id = ?", domainID).Order("local_part").Find(&mailboxes).Error
	if err != nil {
		return nil, err
	}
	return mailboxes, nil
}

// DeleteMailbox 删除邮箱
func (s *Store) DeleteMailbox(id string) error {
	result := s.db.Delete(&domain.Mailbox{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMailboxNotFound
	}
	return nil
}

// ========== Quota Repository ==========

// SaveQuotaRecord 写入配额记录（存在则整行覆盖）
func (s *Store) SaveQuotaRecord(rec *domain.QuotaRecord) error {
	return s.db.Save(rec).Error
}

// GetQuotaRecord 根据地址获取配额记录
func (s *Store) GetQuotaRecord(address string) (*domain.QuotaRecord, error) {
	var rec domain.QuotaRecord
	if err := s.db.First(&rec, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrQuotaNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListQuotaRecordsByDomain 列出地址后缀为指定域名的全部配额记录
func (s *Store) ListQuotaRecordsByDomain(domainName string) ([]domain.QuotaRecord, error) {
	var records []domain.QuotaRecord
	err := s.db.Where("address LIKE ?", "%@"+domainName).Order("address").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RenameQuotaRecord 把配额记录迁移到新地址。主键不能原地更新，
// 在一个事务里插入新行、复制用量、删除旧行。
func (s *Store) RenameQuotaRecord(oldAddress, newAddress string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var rec domain.QuotaRecord
		if err := tx.First(&rec, "address = ?", oldAddress).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrQuotaNotFound
			}
			return err
		}
		if err := tx.Delete(&domain.QuotaRecord{}, "address = ?", oldAddress).Error; err != nil {
			return err
		}
		rec.Address = newAddress
		return tx.Create(&rec).Error
	})
}

// DeleteQuotaRecord 删除配额记录
func (s *Store) DeleteQuotaRecord(address string) error {
	result := s.db.Delete(&domain.QuotaRecord{}, "address = ?", address)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrQuotaNotFound
	}
	return nil
}
