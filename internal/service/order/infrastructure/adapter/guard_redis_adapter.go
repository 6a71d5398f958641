package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/redis"
)

const releaseGuardScriptName = "release_guard"

// RedisGuard 是 port.ProcessingGuard 的 Redis 实现。
// 用 SET NX PX 抢占，用 Lua 脚本比对令牌后删除，避免误删别人的锁。
type RedisGuard struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisGuard 在创建时加载释放脚本
func NewRedisGuard(redisClient *redis.Client, ttl time.Duration) (*RedisGuard, error) {
	if err := redisClient.LoadScriptFromContent(releaseGuardScriptName, releaseGuardScript); err != nil {
		return nil, fmt.Errorf("failed to load guard release script: %w", err)
	}
	return &RedisGuard{redisClient: redisClient, ttl: ttl}, nil
}

func guardKey(orderNumber string) string {
	return fmt.Sprintf("order:processing:{%s}", orderNumber)
}

func (g *RedisGuard) Acquire(ctx context.Context, orderNumber string) (func(), error) {
	key := guardKey(orderNumber)
	token := uuid.NewString()

	ok, err := g.redisClient.GetClient().SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "acquire processing guard for %s", orderNumber)
	}
	if !ok {
		return nil, apperr.ConcurrencyConflict("order %s is already being processed", orderNumber)
	}

	return func() {
		// 释放不受调用方 ctx 取消影响
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if _, err := g.redisClient.RunScript(releaseCtx, releaseGuardScriptName, []string{key}, token); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order", orderNumber).Msg("Failed to release processing guard")
		}
	}, nil
}

var releaseGuardScript = `
-- KEYS[1]: 处理中标记的 Key, 例如: order:processing:{ORD-1a2b3c4d}
-- ARGV[1]: 抢占时写入的令牌

if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`
