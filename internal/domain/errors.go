package domain

import (
	"fmt"
	"strings"
)

// FieldError 表示单个字段的校验错误。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors 聚合一次保存中产生的全部字段校验错误，
// 按字段返回给调用方。区别于业务规则错误（哨兵错误）和权限错误。
type ValidationErrors []FieldError

// Error 实现 error 接口。
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

// Add 追加一条字段错误。
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// HasErrors 判断是否存在校验错误。
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// OrNil 有错误时返回自身，否则返回 nil，便于直接作为返回值。
func (v ValidationErrors) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
