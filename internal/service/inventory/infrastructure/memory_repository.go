package infrastructure

import (
	"context"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/memdb"
	"txflow/internal/service/inventory/domain"
)

const productsTable = "products"

// MemoryProductRepository 是基于 memdb 的商品仓储
type MemoryProductRepository struct {
	table *memdb.Table[*domain.Product]
}

func NewMemoryProductRepository(db *memdb.DB) *MemoryProductRepository {
	return &MemoryProductRepository{table: memdb.NewTable(db, productsTable, (*domain.Product).Clone)}
}

func (r *MemoryProductRepository) FindWithLock(ctx context.Context, sku string) (*domain.Product, error) {
	if err := r.table.Lock(ctx, sku); err != nil {
		return nil, err
	}
	return r.Find(ctx, sku)
}

func (r *MemoryProductRepository) Find(ctx context.Context, sku string) (*domain.Product, error) {
	p, ok := r.table.Get(ctx, sku)
	if !ok {
		return nil, apperr.NotFound("product %s not found", sku)
	}
	return p, nil
}

func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.table.List(ctx), nil
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.table.Insert(ctx, product.SKU, product)
}

func (r *MemoryProductRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.table.Put(ctx, product.SKU, product)
}
