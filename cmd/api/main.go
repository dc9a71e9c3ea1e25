package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/config"
	"mailadmin/backend/internal/health"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/logger"
	"mailadmin/backend/internal/maildir"
	"mailadmin/backend/internal/monitoring"
	"mailadmin/backend/internal/service"
	"mailadmin/backend/internal/storage"
	"mailadmin/backend/internal/storage/memory"
	"mailadmin/backend/internal/storage/redis"
	sqlstore "mailadmin/backend/internal/storage/sql"
	httptransport "mailadmin/backend/internal/transport/http"
)

// main 是开通后端 HTTP 服务的程序入口。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	logCfg := logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	}
	log, err := logger.NewLogger(logCfg)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting mailadmin API server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层：配置了数据库时用关系存储，否则用内存存储
	var store storage.Store
	if cfg.Database.Type != "" {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			log.Fatal("failed to connect database", zap.Error(err))
		}
		store = sqlStore
		log.Info("using sql storage", zap.String("driver", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Warn("no database configured, using in-memory storage")
	}
	defer store.Close()

	// Redis 缓存（可选，连不上时降级运行）
	var cache *redis.Client
	var tokenBlacklist *redis.Cache
	if c, err := redis.New(&cfg.Redis, log); err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
	} else {
		cache = c
		tokenBlacklist = redis.NewCache(cache)
		defer cache.Close()
	}

	// 邮件主目录存储
	var mail maildir.Storage
	if cfg.Provision.EnableMailDir {
		mail = maildir.NewFS(cfg.Provision.MailRoot)
		log.Info("maildir migration enabled", zap.String("root", cfg.Provision.MailRoot))
	} else {
		mail = maildir.NewNoop(cfg.Provision.MailRoot)
	}

	// 初始化服务层
	hooks := hook.NewRegistry()
	perms := service.NewPermissionService(store, hooks)
	quotas := service.NewQuotaService(store)
	aliasSync := service.NewAliasSyncService(store, perms)
	domainService := service.NewDomainService(store, quotas, aliasSync, perms, mail, cfg)
	mailboxService := service.NewMailboxService(store, quotas, aliasSync, perms, mail)
	accountService := service.NewAccountService(store, perms, quotas)

	jwtManager := auth.NewJWTManager(&cfg.JWT)
	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
		zap.Duration("refresh_expiry", cfg.JWT.RefreshExpiry),
	)

	metrics := monitoring.NewMetrics()
	healthChecker := health.NewHealthChecker(store, cache, log)

	// 创建 HTTP 路由
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		DomainService:  domainService,
		AccountService: accountService,
		MailboxService: mailboxService,
		Hooks:          hooks,
		JWTManager:     jwtManager,
		Cache:          tokenBlacklist,
		Store:          store,
		Metrics:        metrics,
		HealthChecker:  healthChecker,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("API server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
		return
	}
	log.Info("server stopped cleanly")
}
