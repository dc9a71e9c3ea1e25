package domain

import (
	"errors"
	"regexp"
	"strings"
)

// 地址校验相关的错误定义
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooLong     = errors.New("email address too long")
	ErrLocalPartTooLong = errors.New("local part too long (max 64 chars)")
	ErrDomainTooLong    = errors.New("domain name too long (max 253 chars)")
	ErrInvalidLocalPart = errors.New("invalid local part format")
	ErrInvalidDomain    = errors.New("invalid domain name format")
)

// RFC 5321/5322 地址长度限制
const (
	MaxEmailLength     = 254
	MaxLocalPartLength = 64
	MaxDomainLength    = 253
)

var (
	// 本地部分：字母数字开头结尾，中间允许 . _ - ；单字符也合法
	localPartRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

	// 域名：每段以字母数字开头结尾，允许连字符，至少两段
	domainNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
)

// SplitAddress 将完整邮件地址拆分为本地部分和域名。
// 地址统一转为小写。
func SplitAddress(address string) (localPart, domainName string, err error) {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", "", ErrInvalidEmail
	}
	return address[:at], address[at+1:], nil
}

// ValidateDomainName 校验域名格式。
func ValidateDomainName(name string) error {
	if name == "" {
		return ErrInvalidDomain
	}
	if len(name) > MaxDomainLength {
		return ErrDomainTooLong
	}
	if !domainNameRegex.MatchString(name) {
		return ErrInvalidDomain
	}
	return nil
}

// ValidateLocalPart 校验地址本地部分。
// forAlias 为 true 时允许 "*"（catchall 别名）。
func ValidateLocalPart(localPart string, forAlias bool) error {
	if forAlias && localPart == "*" {
		return nil
	}
	if localPart == "" {
		return ErrInvalidLocalPart
	}
	if len(localPart) > MaxLocalPartLength {
		return ErrLocalPartTooLong
	}
	if !localPartRegex.MatchString(localPart) {
		return ErrInvalidLocalPart
	}
	return nil
}

// ValidateEmail 完整校验邮件地址（不允许 catchall）。
func ValidateEmail(address string) error {
	if len(address) > MaxEmailLength {
		return ErrEmailTooLong
	}
	localPart, domainName, err := SplitAddress(address)
	if err != nil {
		return err
	}
	if err := ValidateLocalPart(localPart, false); err != nil {
		return err
	}
	return ValidateDomainName(domainName)
}

// ValidateAliasAddress 校验别名地址，本地部分允许 catchall 通配符。
func ValidateAliasAddress(address string) error {
	if len(address) > MaxEmailLength {
		return ErrEmailTooLong
	}
	localPart, domainName, err := SplitAddress(address)
	if err != nil {
		return err
	}
	if err := ValidateLocalPart(localPart, true); err != nil {
		return err
	}
	return ValidateDomainName(domainName)
}
