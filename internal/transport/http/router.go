package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/config"
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/health"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/middleware"
	"mailadmin/backend/internal/monitoring"
	"mailadmin/backend/internal/service"
	"mailadmin/backend/internal/storage"
	"mailadmin/backend/internal/storage/redis"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	DomainService  *service.DomainService
	AccountService *service.AccountService
	MailboxService *service.MailboxService
	Hooks          *hook.Registry
	JWTManager     *auth.JWTManager
	Cache          *redis.Cache // 可以为 nil
	Store          storage.Store
	Metrics        *monitoring.Metrics
	HealthChecker  *health.HealthChecker
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 监控中间件兼作 panic 恢复
	mon := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
	router.Use(mon.PanicRecovery())
	router.Use(mon.HTTPMetrics())

	// 按客户端 IP 限流
	rateLimiter := middleware.NewRateLimiter(10, 30)
	router.Use(rateLimiter.Limit())

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	authHandler := NewAuthHandler(deps.AccountService, deps.Store, deps.JWTManager, deps.Cache)
	domainHandler := NewDomainHandler(deps.DomainService, deps.Store, deps.Hooks, deps.Metrics)
	accountHandler := NewAccountHandler(deps.AccountService, deps.MailboxService, deps.Hooks, deps.Metrics)

	// 创建中间件
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager.Manager(), deps.Logger)
	rbac := middleware.NewRBAC(deps.Store)

	// 健康检查与指标
	if deps.HealthChecker != nil {
		router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint()))
		router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Auth Routes ==========
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", jwtAuth.RequireAuth(), rbac.LoadUser(), authHandler.Me)
		}

		// ========== Domain Routes ==========
		domainRoutes := v1.Group("/domains")
		domainRoutes.Use(jwtAuth.RequireAuth(), rbac.LoadUser())
		{
			domainRoutes.POST("", rbac.RequireCapability(domain.CapAddDomain), domainHandler.CreateDomain)
			domainRoutes.GET("", domainHandler.ListDomains)
			domainRoutes.GET("/:id", domainHandler.GetDomain)
			domainRoutes.PUT("/:id", rbac.RequireCapability(domain.CapChangeDomain), domainHandler.UpdateDomain)
			domainRoutes.DELETE("/:id", rbac.RequireCapability(domain.CapChangeDomain), domainHandler.DeleteDomain)
			domainRoutes.GET("/:id/admins", domainHandler.ListDomainAdmins)
		}

		// ========== Account Routes ==========
		accountRoutes := v1.Group("/accounts")
		accountRoutes.Use(jwtAuth.RequireAuth(), rbac.LoadUser())
		{
			accountRoutes.POST("", rbac.RequireCapability(domain.CapAddUser), accountHandler.CreateAccount)
			accountRoutes.GET("", accountHandler.ListAccounts)
			accountRoutes.GET("/:id", accountHandler.GetAccount)
			accountRoutes.PUT("/:id", accountHandler.UpdateAccount)
			accountRoutes.DELETE("/:id", accountHandler.DeleteAccount)
		}
	}

	return router
}
