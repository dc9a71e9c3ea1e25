package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailadmin/backend/internal/storage"
	"mailadmin/backend/internal/storage/redis"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	cache  *redis.Client
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器。cache 可以为 nil（未启用 Redis）。
func NewHealthChecker(store storage.Store, cache *redis.Client, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		cache:  cache,
		logger: logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 数据库连接检查
	hc.health.AddLivenessCheck("database", func() error {
		return hc.store.Health()
	})

	// Redis 连接检查（如果启用）
	if hc.cache != nil {
		hc.health.AddLivenessCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return hc.cache.Ping(ctx)
		})
	}
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// LiveEndpoint 存活检查端点
func (hc *HealthChecker) LiveEndpoint() http.HandlerFunc {
	return hc.health.LiveEndpoint
}

// ReadyEndpoint 就绪检查端点
func (hc *HealthChecker) ReadyEndpoint() http.HandlerFunc {
	return hc.health.ReadyEndpoint
}

// CheckHealth 执行健康检查
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.store.Health(); err != nil {
		results["database"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["database"] = "OK"
	}

	if hc.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := hc.cache.Ping(ctx); err != nil {
			results["redis"] = fmt.Sprintf("ERROR: %v", err)
		} else {
			results["redis"] = "OK"
		}
	} else {
		results["redis"] = "NOT_AVAILABLE"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}
