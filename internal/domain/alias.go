package domain

import (
	"fmt"
	"time"
)

// Alias 表示邮件地址别名。收件人数不超过 1 的为"简单别名"，
// 由别名同步器维护；收件人数大于等于 2 的视为分发列表，同步器不处理。
type Alias struct {
	ID         string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LocalPart  string           `json:"localPart" gorm:"type:varchar(255);uniqueIndex:idx_alias_address;not null"`
	DomainID   string           `json:"domainId" gorm:"type:varchar(36);uniqueIndex:idx_alias_address;index;not null"`
	Enabled    bool             `json:"enabled"`
	Recipients []AliasRecipient `json:"recipients" gorm:"foreignKey:AliasID"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// FullAddress 拼接别名的完整地址。
func (a *Alias) FullAddress(domainName string) string {
	return fmt.Sprintf("%s@%s", a.LocalPart, domainName)
}

// IsDistributionList 判断别名是否为分发列表（收件人数 >= 2）。
func (a *Alias) IsDistributionList() bool {
	return len(a.Recipients) >= 2
}

// AliasRecipient 表示别名的一个收件人，指向邮箱或另一个别名。
type AliasRecipient struct {
	ID            string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AliasID       string  `json:"aliasId" gorm:"type:varchar(36);index;not null"`
	MailboxID     *string `json:"mailboxId,omitempty" gorm:"type:varchar(36);index"`
	TargetAliasID *string `json:"targetAliasId,omitempty" gorm:"type:varchar(36)"`
}
