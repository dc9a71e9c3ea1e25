package domain

import "time"

// Domain 表示平台托管的邮件域。
type Domain struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(253);not null"`
	Quota     int       `json:"quota"` // 域默认配额（MB），0 表示不限制
	Enabled   bool      `json:"enabled" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DomainAlias 表示指向目标域的别名域。
// 创建时 Enabled 继承目标域的状态，之后不再联动。
type DomainAlias struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(253);not null"`
	TargetID  string    `json:"targetId" gorm:"type:varchar(36);index;not null"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// DomainAdmin 记录某个用户管理某个域的关系。
type DomainAdmin struct {
	DomainID  string    `json:"domainId" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
}
