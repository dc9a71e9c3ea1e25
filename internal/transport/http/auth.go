package httptransport

import (
	"time"

	"github.com/gin-gonic/gin"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/middleware"
	"mailadmin/backend/internal/service"
	"mailadmin/backend/internal/storage"
	"mailadmin/backend/internal/storage/redis"
)

// AuthHandler 认证相关的 HTTP 处理器
type AuthHandler struct {
	accounts   *service.AccountService
	store      storage.UserRepository
	jwtManager *auth.JWTManager
	blacklist  *redis.Cache // 可以为 nil（未启用 Redis 时注销不生效）
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(accounts *service.AccountService, store storage.UserRepository, jwtManager *auth.JWTManager, blacklist *redis.Cache) *AuthHandler {
	return &AuthHandler{
		accounts:   accounts,
		store:      store,
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type authResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
}

// Login 登录并颁发令牌对
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		Unauthorized(c, MsgInvalidCredentials)
		return
	}

	now := time.Now()
	account.LastLoginAt = &now
	_ = h.store.UpdateUser(account)

	tokens, err := h.jwtManager.GenerateTokens(account.ID, account.Username, string(account.Role))
	if err != nil {
		InternalError(c, MsgInternalError)
		return
	}

	Success(c, authResponse{
		User:         account,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Refresh 刷新令牌。已注销的刷新令牌被拒绝。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	if h.blacklist != nil {
		blocked, err := h.blacklist.IsBlacklisted(c.Request.Context(), req.RefreshToken)
		if err == nil && blocked {
			Unauthorized(c, MsgTokenInvalid)
			return
		}
	}

	tokens, err := h.jwtManager.RefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(c, MsgTokenInvalid)
		return
	}

	Success(c, tokens)
}

// Logout 注销：把刷新令牌加入黑名单直到它自然过期。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	if h.blacklist != nil {
		ttl := h.jwtManager.RefreshExpiry()
		if err := h.blacklist.AddToBlacklist(c.Request.Context(), req.RefreshToken, ttl); err != nil {
			InternalError(c, MsgInternalError)
			return
		}
	}

	NoContent(c)
}

// Me 返回当前账户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		Unauthorized(c, MsgAuthRequired)
		return
	}
	Success(c, user)
}
