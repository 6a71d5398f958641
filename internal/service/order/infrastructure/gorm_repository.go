package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"txflow/internal/pkg/database"
	"txflow/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindWithLock 只锁订单头，明细随后普通读取
func (r *GormOrderRepository) FindWithLock(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var model OrderModel
	err := database.Conn(ctx, r.db).Clauses(database.ForUpdate()).
		Where("order_number = ?", orderNumber).First(&model).Error
	if err != nil {
		return nil, database.MapError(err, "order "+orderNumber)
	}
	if err := database.Conn(ctx, r.db).Where("order_id = ?", model.ID).Find(&model.Items).Error; err != nil {
		return nil, database.MapError(err, "order items "+orderNumber)
	}
	return ToDomainOrder(&model), nil
}

func (r *GormOrderRepository) Find(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var model OrderModel
	err := database.Conn(ctx, r.db).Preload("Items").
		Where("order_number = ?", orderNumber).First(&model).Error
	if err != nil {
		return nil, database.MapError(err, "order "+orderNumber)
	}
	return ToDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var models []OrderModel
	if err := database.Conn(ctx, r.db).Preload("Items").Order("created_at").Find(&models).Error; err != nil {
		return nil, database.MapError(err, "orders")
	}
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, ToDomainOrder(&models[i]))
	}
	return out, nil
}

// Create 同时写入订单头和明细
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	err := database.Conn(ctx, r.db).Create(FromDomainOrder(order)).Error
	return database.MapError(err, "order "+order.OrderNumber)
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	err := database.Conn(ctx, r.db).Model(&OrderModel{}).
		Where("order_number = ?", order.OrderNumber).
		Updates(map[string]any{
			"status":            string(order.State),
			"payment_reference": order.PaymentReference,
			"updated_at":        order.UpdatedAt,
		}).Error
	return database.MapError(err, "order "+order.OrderNumber)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OrderModel{}, &OrderItemModel{})
}
