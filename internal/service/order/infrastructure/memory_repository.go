package infrastructure

import (
	"context"
	"sort"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/memdb"
	"txflow/internal/service/order/domain"
)

const ordersTable = "orders"

// MemoryOrderRepository 是基于 memdb 的订单仓储
type MemoryOrderRepository struct {
	table *memdb.Table[*domain.Order]
}

func NewMemoryOrderRepository(db *memdb.DB) *MemoryOrderRepository {
	return &MemoryOrderRepository{table: memdb.NewTable(db, ordersTable, (*domain.Order).Clone)}
}

func (r *MemoryOrderRepository) FindWithLock(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if err := r.table.Lock(ctx, orderNumber); err != nil {
		return nil, err
	}
	return r.Find(ctx, orderNumber)
}

func (r *MemoryOrderRepository) Find(ctx context.Context, orderNumber string) (*domain.Order, error) {
	o, ok := r.table.Get(ctx, orderNumber)
	if !ok {
		return nil, apperr.NotFound("order %s not found", orderNumber)
	}
	return o, nil
}

// FindAll 按创建时间排序
func (r *MemoryOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	orders := r.table.List(ctx)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.table.Insert(ctx, order.OrderNumber, order)
}

func (r *MemoryOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.table.Put(ctx, order.OrderNumber, order)
}
