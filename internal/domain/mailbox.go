package domain

import (
	"fmt"
	"time"
)

// Mailbox 表示某个域下已开通的邮箱账户。
// Quota 为 nil 表示不限制；UseDomainQuota 为 true 时以所属域的配额为准。
type Mailbox struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LocalPart      string    `json:"localPart" gorm:"type:varchar(255);uniqueIndex:idx_mailbox_address;not null"`
	DomainID       string    `json:"domainId" gorm:"type:varchar(36);uniqueIndex:idx_mailbox_address;index;not null"`
	UserID         string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	Quota          *int      `json:"quota,omitempty"` // MB
	UseDomainQuota bool      `json:"useDomainQuota"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FullAddress 拼接邮箱的完整地址。
func (m *Mailbox) FullAddress(domainName string) string {
	return fmt.Sprintf("%s@%s", m.LocalPart, domainName)
}

// SetQuota 按照覆盖规则应用提交的配额值。
//
// override 为 true 时接受任何值（nil 表示不限制）；否则忽略提交值，
// 保留现有配额。调用方负责判定 override（提升权限或当前无配额限制）。
func (m *Mailbox) SetQuota(quota *int, override bool) {
	if !override {
		return
	}
	m.Quota = quota
}

// QuotaRecord 表示配额台账中的一条记录，主键是邮箱的完整地址。
// 地址内嵌域名，域改名时必须整批重写主键（见 QuotaService.ReKeyDomain）。
type QuotaRecord struct {
	Address  string `json:"address" gorm:"primaryKey;type:varchar(508)"`
	Quota    int    `json:"quota"` // MB，0 表示不限制
	Bytes    int64  `json:"bytes"`
	Messages int    `json:"messages"`
}
