package auth

import (
	"time"

	"mailadmin/backend/internal/auth/jwt"
	"mailadmin/backend/internal/config"
)

// JWTManager JWT管理器包装
type JWTManager struct {
	manager       *jwt.Manager
	refreshExpiry time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(cfg *config.JWTConfig) *JWTManager {
	manager := jwt.NewManager(cfg.Secret, cfg.Issuer, cfg.AccessExpiry, cfg.RefreshExpiry)
	return &JWTManager{manager: manager, refreshExpiry: cfg.RefreshExpiry}
}

// RefreshExpiry 返回刷新令牌的有效期
func (j *JWTManager) RefreshExpiry() time.Duration {
	return j.refreshExpiry
}

// Manager 返回底层令牌管理器（供认证中间件使用）
func (j *JWTManager) Manager() *jwt.Manager {
	return j.manager
}

// TokenResponse 令牌响应
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Claims JWT声明
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GenerateTokens 生成令牌对
func (j *JWTManager) GenerateTokens(userID, username, role string) (*TokenResponse, error) {
	tokenPair, err := j.manager.GenerateTokenPair(userID, username, role)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// ValidateToken 验证令牌
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := j.manager.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// RefreshToken 刷新令牌
func (j *JWTManager) RefreshToken(refreshToken string) (*TokenResponse, error) {
	// 先验证刷新令牌
	claims, err := j.manager.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	tokenPair, err := j.manager.GenerateTokenPair(claims.UserID, claims.Username, claims.Role)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}
