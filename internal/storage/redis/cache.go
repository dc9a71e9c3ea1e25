package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache Redis 缓存实现，承载已注销令牌的黑名单。
// 访问令牌短时有效，黑名单只需要覆盖刷新令牌的生命周期。
type Cache struct {
	client *redis.Client
}

// NewCache 基于已建立的客户端创建缓存实例
func NewCache(client *Client) *Cache {
	return &Cache{client: client.Client()}
}

// AddToBlacklist 将令牌加入黑名单，TTL 过后自动清除
func (c *Cache) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	key := fmt.Sprintf("blacklist:%s", token)
	return c.client.Set(ctx, key, "1", ttl).Err()
}

// IsBlacklisted 检查令牌是否在黑名单中
func (c *Cache) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)
	_, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
