// internal/service/inventory/domain/product.go
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/money"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "ACTIVE"
	ProductStatusOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// Product 以 SKU 为键，库存只会在加锁后修改
type Product struct {
	SKU           string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	Status        ProductStatus
	UpdatedAt     time.Time
}

func NewProduct(sku, name string, price decimal.Decimal, stock int) (*Product, error) {
	if sku == "" || name == "" {
		return nil, apperr.InvalidArgument("sku and name are required")
	}
	if price.IsNegative() {
		return nil, apperr.InvalidArgument("price must not be negative")
	}
	if !money.FitsScale(price) {
		return nil, apperr.InvalidArgument("price %s has more than %d decimal places", price, money.Scale)
	}
	if stock < 0 {
		return nil, apperr.InvalidArgument("stock must not be negative")
	}
	p := &Product{SKU: sku, Name: name, Price: price, StockQuantity: stock, Status: ProductStatusActive, UpdatedAt: time.Now()}
	if stock == 0 {
		p.Status = ProductStatusOutOfStock
	}
	return p, nil
}

// Reserve 扣减库存，扣到 0 时标记为缺货
func (p *Product) Reserve(qty int) error {
	if p.StockQuantity < qty {
		return apperr.InsufficientStock("product %s has %d in stock, %d requested", p.SKU, p.StockQuantity, qty)
	}
	p.StockQuantity -= qty
	if p.StockQuantity == 0 {
		p.Status = ProductStatusOutOfStock
	}
	p.UpdatedAt = time.Now()
	return nil
}

// Release 归还库存。只有缺货状态会自动恢复为上架，其他状态保持不变。
func (p *Product) Release(qty int) {
	p.StockQuantity += qty
	if p.Status == ProductStatusOutOfStock {
		p.Status = ProductStatusActive
	}
	p.UpdatedAt = time.Now()
}

func (p *Product) Clone() *Product {
	c := *p
	return &c
}

// ProductRepository 定义了商品的持久化接口
type ProductRepository interface {
	FindWithLock(ctx context.Context, sku string) (*Product, error)
	Find(ctx context.Context, sku string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, product *Product) error
	Save(ctx context.Context, product *Product) error
}

type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
