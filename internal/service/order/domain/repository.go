// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	FindWithLock(ctx context.Context, orderNumber string) (*Order, error)
	Find(ctx context.Context, orderNumber string) (*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	Create(ctx context.Context, order *Order) error
	// Save 更新状态和支付流水号，明细创建后不再变化
	Save(ctx context.Context, order *Order) error
}

type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
