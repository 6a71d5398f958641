package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// InventoryService 是库存服务的出站端口。
// Reserve 和 Release 各自独立提交，调用方不能把它们纳入自己的事务。
type InventoryService interface {
	// UnitPrice 返回商品当前单价，下单时用来快照价格
	UnitPrice(ctx context.Context, sku string) (decimal.Decimal, error)

	Reserve(ctx context.Context, sku string, qty int) error

	// Release 是 Reserve 的补偿操作
	Release(ctx context.Context, sku string, qty int) error
}
