package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// RBAC 角色权限中间件。JWT 中间件只验证令牌，这里从存储加载完整
// 账户并把它放进上下文，后续判定都以存储里的当前角色为准。
type RBAC struct {
	store storage.UserRepository
}

// NewRBAC 创建角色权限中间件
func NewRBAC(store storage.UserRepository) *RBAC {
	return &RBAC{store: store}
}

// LoadUser 从存储加载当前账户并写入上下文。账户被停用时直接拒绝。
func (r *RBAC) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		userID, ok := userIDVal.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user context"})
			c.Abort()
			return
		}

		user, err := r.store.GetUser(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// RequireSuperAdmin 要求超级管理员角色
func (r *RBAC) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		if !user.IsSuperAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "super admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCapability 要求账户角色持有指定能力
func (r *RBAC) RequireCapability(cap domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		if !user.Can(cap) {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文取出已加载的账户，没有时返回 nil。
func CurrentUser(c *gin.Context) *domain.User {
	val, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := val.(*domain.User)
	if !ok {
		return nil
	}
	return user
}
