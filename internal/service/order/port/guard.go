package port

import "context"

// ProcessingGuard 保证同一个订单同一时刻只被一个调用方处理。
// 拿不到时返回 ConcurrencyConflict，拿到后必须调用 release。
type ProcessingGuard interface {
	Acquire(ctx context.Context, orderNumber string) (release func(), err error)
}
