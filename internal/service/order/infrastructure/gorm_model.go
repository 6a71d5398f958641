package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID               uint             `gorm:"primaryKey"`
	OrderNumber      string           `gorm:"size:32;uniqueIndex;not null"`
	CustomerName     string           `gorm:"size:128"`
	CustomerEmail    string           `gorm:"size:255"`
	TotalAmount      decimal.Decimal  `gorm:"type:decimal(19,2);not null"`
	Status           string           `gorm:"size:16;index;not null"`
	PaymentReference string           `gorm:"size:64"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应 order_items 表，Position 保存下单时的明细顺序
type OrderItemModel struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"index;not null"`
	Position  int             `gorm:"not null"`
	SKU       string          `gorm:"column:sku;size:64;not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(19,2);not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}
