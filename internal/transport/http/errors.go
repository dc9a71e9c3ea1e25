package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/service"
	"mailadmin/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	service.ErrPermissionDenied: "权限不足",
	service.ErrSelfDisable:      "不能停用自己的账户",
	service.ErrSelfDelete:       "不能删除自己的账户",
	service.ErrDomainNotFound:   "域名不存在",
	service.ErrUserExists:       "登录名已被占用",
	service.ErrMailboxExists:    "该地址已有邮箱",
	storage.ErrDomainNotFound:   "域名不存在",
	storage.ErrUserNotFound:     "账户不存在",
	storage.ErrMailboxNotFound:  "邮箱不存在",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// RespondError 按错误类型选择响应：字段校验错误带字段明细返回 422，
// 权限类错误返回 403，已知业务错误返回 409/404，其余按 500 处理。
func RespondError(c *gin.Context, err error) {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationFailed(c, verrs)
		return
	}

	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		Forbidden(c, GetErrorMessage(service.ErrPermissionDenied))
	case errors.Is(err, service.ErrSelfDisable):
		Forbidden(c, GetErrorMessage(service.ErrSelfDisable))
	case errors.Is(err, service.ErrSelfDelete):
		Forbidden(c, GetErrorMessage(service.ErrSelfDelete))
	case errors.Is(err, service.ErrDomainNotFound):
		NotFound(c, GetErrorMessage(service.ErrDomainNotFound))
	case errors.Is(err, service.ErrUserExists):
		Conflict(c, GetErrorMessage(service.ErrUserExists))
	case errors.Is(err, service.ErrMailboxExists):
		Conflict(c, GetErrorMessage(service.ErrMailboxExists))
	case errors.Is(err, storage.ErrUserNotFound):
		NotFound(c, GetErrorMessage(storage.ErrUserNotFound))
	case errors.Is(err, storage.ErrMailboxNotFound):
		NotFound(c, GetErrorMessage(storage.ErrMailboxNotFound))
	default:
		InternalError(c, MsgInternalError)
	}
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 认证相关
	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgTokenInvalid       = "无效的访问令牌"
	MsgPermissionDenied   = "权限不足"

	// 域相关
	MsgDomainSaveFailed   = "保存域名失败"
	MsgDomainListFailed   = "获取域名列表失败"
	MsgDomainNotFound     = "域名不存在"
	MsgDomainDeleteFailed = "删除域名失败"

	// 账户相关
	MsgAccountSaveFailed = "保存账户失败"
	MsgAccountNotFound   = "账户不存在"
	MsgAccountListFailed = "获取账户列表失败"

	// 邮箱相关
	MsgMailboxSaveFailed = "保存邮箱失败"
	MsgMailboxNotFound   = "邮箱不存在"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
