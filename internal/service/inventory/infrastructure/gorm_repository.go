package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"txflow/internal/pkg/database"
	"txflow/internal/service/inventory/domain"
)

// GormProductRepository 是 ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindWithLock(ctx context.Context, sku string) (*domain.Product, error) {
	var model ProductModel
	err := database.Conn(ctx, r.db).Clauses(database.ForUpdate()).
		Where("sku = ?", sku).First(&model).Error
	if err != nil {
		return nil, database.MapError(err, "product "+sku)
	}
	return ToDomainProduct(&model), nil
}

func (r *GormProductRepository) Find(ctx context.Context, sku string) (*domain.Product, error) {
	var model ProductModel
	if err := database.Conn(ctx, r.db).Where("sku = ?", sku).First(&model).Error; err != nil {
		return nil, database.MapError(err, "product "+sku)
	}
	return ToDomainProduct(&model), nil
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := database.Conn(ctx, r.db).Order("sku").Find(&models).Error; err != nil {
		return nil, database.MapError(err, "products")
	}
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, ToDomainProduct(&models[i]))
	}
	return out, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	err := database.Conn(ctx, r.db).Create(FromDomainProduct(product)).Error
	return database.MapError(err, "product "+product.SKU)
}

// Save 只更新库存和状态
func (r *GormProductRepository) Save(ctx context.Context, product *domain.Product) error {
	err := database.Conn(ctx, r.db).Model(&ProductModel{}).
		Where("sku = ?", product.SKU).
		Updates(map[string]any{
			"stock_quantity": product.StockQuantity,
			"status":         string(product.Status),
			"updated_at":     product.UpdatedAt,
		}).Error
	return database.MapError(err, "product "+product.SKU)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProductModel{})
}
