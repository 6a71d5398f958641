package adapter

import (
	"context"
	"errors"
	"time"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/zookeeper"
)

// ZookeeperGuard 用 ZooKeeper 临时顺序节点实现 port.ProcessingGuard。
// 会话断开时节点自动删除，进程崩溃不会留下死锁。
type ZookeeperGuard struct {
	conn zookeeper.Conn
	wait time.Duration
}

func NewZookeeperGuard(conn zookeeper.Conn, wait time.Duration) *ZookeeperGuard {
	return &ZookeeperGuard{conn: conn, wait: wait}
}

func (g *ZookeeperGuard) Acquire(ctx context.Context, orderNumber string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(g.conn, "order-"+orderNumber)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "prepare processing guard for %s", orderNumber)
	}
	if err := lock.Lock(ctx, g.wait); err != nil {
		if errors.Is(err, zookeeper.ErrLockTimeout) {
			return nil, apperr.Wrap(err, apperr.KindConcurrencyConflict, "order %s is already being processed", orderNumber)
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "acquire processing guard for %s", orderNumber)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order", orderNumber).Msg("Failed to release processing guard")
		}
	}, nil
}
