package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"txflow/internal/service/inventory/application"
)

// InventoryLocalAdapter 在同一进程内调用库存应用服务，实现 port.InventoryService
type InventoryLocalAdapter struct {
	svc *application.InventoryApplicationService
}

func NewInventoryLocalAdapter(svc *application.InventoryApplicationService) *InventoryLocalAdapter {
	return &InventoryLocalAdapter{svc: svc}
}

func (a *InventoryLocalAdapter) UnitPrice(ctx context.Context, sku string) (decimal.Decimal, error) {
	p, err := a.svc.GetProduct(ctx, sku)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price, nil
}

func (a *InventoryLocalAdapter) Reserve(ctx context.Context, sku string, qty int) error {
	return a.svc.Reserve(ctx, sku, qty)
}

func (a *InventoryLocalAdapter) Release(ctx context.Context, sku string, qty int) error {
	return a.svc.Release(ctx, sku, qty)
}
