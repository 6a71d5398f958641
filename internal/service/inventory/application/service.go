// internal/service/inventory/application/service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/service/inventory/domain"
)

// InventoryApplicationService 负责库存预占与归还。
// Reserve 和 Release 各自开启并提交自己的事务，不会并入调用方的事务。
type InventoryApplicationService struct {
	products domain.ProductRepository
	txm      domain.TxManager
	tracer   trace.Tracer
}

func NewInventoryApplicationService(products domain.ProductRepository, txm domain.TxManager, tracer trace.Tracer) *InventoryApplicationService {
	return &InventoryApplicationService{products: products, txm: txm, tracer: tracer}
}

type CreateProductRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (s *InventoryApplicationService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*domain.Product, error) {
	product, err := domain.NewProduct(req.SKU, req.Name, req.Price, req.StockQuantity)
	if err != nil {
		return nil, err
	}
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *InventoryApplicationService) Reserve(ctx context.Context, sku string, qty int) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Reserve")
	defer span.End()
	span.SetAttributes(attribute.String("sku", sku), attribute.Int("quantity", qty))

	if qty <= 0 {
		return apperr.InvalidArgument("reserve quantity must be positive, got %d", qty)
	}
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		product, err := s.products.FindWithLock(ctx, sku)
		if err != nil {
			return err
		}
		if err := product.Reserve(qty); err != nil {
			return err
		}
		return s.products.Save(ctx, product)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve failed")
		return err
	}
	logger.Ctx(ctx).Debug().Str("sku", sku).Int("quantity", qty).Msg("Stock reserved")
	return nil
}

func (s *InventoryApplicationService) Release(ctx context.Context, sku string, qty int) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Release")
	defer span.End()
	span.SetAttributes(attribute.String("sku", sku), attribute.Int("quantity", qty))

	if qty <= 0 {
		return apperr.InvalidArgument("release quantity must be positive, got %d", qty)
	}
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		product, err := s.products.FindWithLock(ctx, sku)
		if err != nil {
			return err
		}
		product.Release(qty)
		return s.products.Save(ctx, product)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "release failed")
		return err
	}
	logger.Ctx(ctx).Debug().Str("sku", sku).Int("quantity", qty).Msg("Stock released")
	return nil
}

func (s *InventoryApplicationService) GetProduct(ctx context.Context, sku string) (*domain.Product, error) {
	return s.products.Find(ctx, sku)
}

func (s *InventoryApplicationService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.products.FindAll(ctx)
}
