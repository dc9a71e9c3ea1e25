package service

import (
	"fmt"
	"strings"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// QuotaService 维护配额台账：每个邮箱一条记录，主键是完整地址。
type QuotaService struct {
	store storage.QuotaRepository
}

// NewQuotaService 创建配额台账服务。
func NewQuotaService(store storage.QuotaRepository) *QuotaService {
	return &QuotaService{store: store}
}

// EffectiveQuota 计算邮箱的生效配额（MB）。继承域配额时取域值，
// 否则取邮箱自身配额，nil 视为不限制（0）。
func EffectiveQuota(mb *domain.Mailbox, d *domain.Domain) int {
	if mb.UseDomainQuota {
		return d.Quota
	}
	if mb.Quota == nil {
		return 0
	}
	return *mb.Quota
}

// Ensure 为指定地址写入配额记录，已存在时只更新配额值，
// 保留已累计的用量。
func (s *QuotaService) Ensure(address string, quotaMB int) error {
	rec, err := s.store.GetQuotaRecord(address)
	if err != nil {
		rec = &domain.QuotaRecord{Address: address}
	}
	rec.Quota = quotaMB
	return s.store.SaveQuotaRecord(rec)
}

// Rename 将单个邮箱的配额记录迁移到新地址（邮箱改名场景）。
func (s *QuotaService) Rename(oldAddress, newAddress string) error {
	return s.store.RenameQuotaRecord(oldAddress, newAddress)
}

// Remove 删除指定地址的配额记录。
func (s *QuotaService) Remove(address string) error {
	err := s.store.DeleteQuotaRecord(address)
	if err != nil && err != storage.ErrQuotaNotFound {
		return err
	}
	return nil
}

// ReKeyDomain 在域改名后整批重写配额记录的主键。
//
// 主键内嵌域名，属于派生数据，不能当外键更新；只能逐条把
// 旧域名后缀替换为新域名再重写。本操作与域改名本身不在同一个
// 事务里，中途失败会留下新旧混杂的记录。
func (s *QuotaService) ReKeyDomain(oldName, newName string) error {
	records, err := s.store.ListQuotaRecordsByDomain(oldName)
	if err != nil {
		return err
	}
	oldSuffix := "@" + oldName
	for _, rec := range records {
		localPart := strings.TrimSuffix(rec.Address, oldSuffix)
		newAddress := localPart + "@" + newName
		if err := s.store.RenameQuotaRecord(rec.Address, newAddress); err != nil {
			return fmt.Errorf("failed to re-key quota record %s: %w", rec.Address, err)
		}
	}
	return nil
}
